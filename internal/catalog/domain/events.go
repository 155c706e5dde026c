package domain

import (
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

// Tipos de evento de dominio (dentro del proceso).
const (
	ProductCreated      = "product.created"
	ProductPriceChanged = "product.price_changed"
)

type ProductCreatedEvent struct {
	sharedDomain.EventBase
	Product ProductSnapshot `json:"product"`
}

type ProductPriceChangedEvent struct {
	sharedDomain.EventBase
	OldPrice decimal.Decimal `json:"old_price"`
	Product  ProductSnapshot `json:"product"`
}
