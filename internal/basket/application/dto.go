package application

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
)

type ShoppingCartItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	ShoppingCartID uuid.UUID       `json:"shopping_cart_id"`
	ProductID      uuid.UUID       `json:"product_id" validate:"required"`
	Quantity       int             `json:"quantity" validate:"gt=0"`
	Color          string          `json:"color" validate:"max=30"`
	Price          decimal.Decimal `json:"price"`
	ProductName    string          `json:"product_name"`
}

type ShoppingCartDTO struct {
	ID         uuid.UUID             `json:"id"`
	UserName   string                `json:"user_name" validate:"required"`
	Items      []ShoppingCartItemDTO `json:"items" validate:"required,min=1,dive"`
	TotalPrice decimal.Decimal       `json:"total_price"`
}

type BasketCheckoutDTO struct {
	UserName      string    `json:"user_name" validate:"required"`
	CustomerID    uuid.UUID `json:"customer_id" validate:"required"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	EmailAddress  string    `json:"email_address" validate:"required,email"`
	AddressLine   string    `json:"address_line"`
	Country       string    `json:"country"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zip_code"`
	CardName      string    `json:"card_name"`
	CardNumber    string    `json:"card_number"`
	Expiration    string    `json:"expiration"`
	CVV           string    `json:"cvv"`
	PaymentMethod int       `json:"payment_method"`
}

func (d BasketCheckoutDTO) Details() basketDomain.CheckoutDetails {
	return basketDomain.CheckoutDetails{
		CustomerID:    d.CustomerID,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		EmailAddress:  d.EmailAddress,
		AddressLine:   d.AddressLine,
		Country:       d.Country,
		State:         d.State,
		ZipCode:       d.ZipCode,
		CardName:      d.CardName,
		PaymentMethod: d.PaymentMethod,
	}
}

// Masked deja solo los cuatro últimos dígitos de la tarjeta y borra caducidad y CVV.
func (d BasketCheckoutDTO) Masked() BasketCheckoutDTO {
	if n := len(d.CardNumber); n > 4 {
		d.CardNumber = strings.Repeat("*", n-4) + d.CardNumber[n-4:]
	} else if n > 0 {
		d.CardNumber = strings.Repeat("*", n)
	}
	if d.Expiration != "" {
		d.Expiration = redacted
	}
	if d.CVV != "" {
		d.CVV = redacted
	}
	return d
}

const redacted = "[REDACTED]"

func ToShoppingCartDTO(c *basketDomain.ShoppingCart) ShoppingCartDTO {
	items := c.Items()
	out := ShoppingCartDTO{
		ID:         c.ID,
		UserName:   c.UserName,
		Items:      make([]ShoppingCartItemDTO, 0, len(items)),
		TotalPrice: c.TotalPrice(),
	}
	for _, i := range items {
		out.Items = append(out.Items, ShoppingCartItemDTO{
			ID:             i.ID,
			ShoppingCartID: i.ShoppingCartID,
			ProductID:      i.ProductID,
			Quantity:       i.Quantity,
			Color:          i.Color,
			Price:          i.Price,
			ProductName:    i.ProductName,
		})
	}
	return out
}
