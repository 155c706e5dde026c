package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contratos de integración, NO entidades del dominio.
// Se definen planos para intercambio entre contextos.

const (
	ProductPriceChanged = "catalog.product.price_changed"
	BasketCheckout      = "basket.checkout"
)

const (
	CatalogTopic = "catalog-events"
	BasketTopic  = "basket-events"
)

type ProductPriceChangedIntegrationEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Category  []string        `json:"category"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	ChangedAt time.Time       `json:"changed_at"`
}

type BasketCheckoutIntegrationEvent struct {
	BasketID   uuid.UUID       `json:"basket_id"`
	UserName   string          `json:"user_name"`
	CustomerID uuid.UUID       `json:"customer_id"`
	TotalPrice decimal.Decimal `json:"total_price"`

	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	AddressLine  string `json:"address_line"`
	Country      string `json:"country"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`

	CardName      string `json:"card_name"`
	PaymentMethod int    `json:"payment_method"`
}
