package domain

import sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"

// Tipos de evento de dominio (dentro del proceso).
const (
	ShoppingCartCreated    = "basket.created"
	ShoppingCartCheckedOut = "basket.checked_out"
)

type ShoppingCartCreatedEvent struct {
	sharedDomain.EventBase
	Cart ShoppingCartSnapshot `json:"cart"`
}

type ShoppingCartCheckedOutEvent struct {
	sharedDomain.EventBase
	Cart    ShoppingCartSnapshot `json:"cart"`
	Details CheckoutDetails      `json:"details"`
}
