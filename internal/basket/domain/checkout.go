package domain

import "github.com/google/uuid"

// CheckoutDetails son los datos de envío y pago que acompañan a la compra.
// Los datos de tarjeta no salen del módulo.
type CheckoutDetails struct {
	CustomerID    uuid.UUID `json:"customer_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	EmailAddress  string    `json:"email_address"`
	AddressLine   string    `json:"address_line"`
	Country       string    `json:"country"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zip_code"`
	CardName      string    `json:"card_name"`
	PaymentMethod int       `json:"payment_method"`
}
