package application

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davicafu/hexashop/internal/shared/cqrs"
)

// ---------------- Commands ----------------

type CreateBasketCommand struct {
	cqrs.Command
	ShoppingCart ShoppingCartDTO `json:"shopping_cart"`
}

type DeleteBasketCommand struct {
	cqrs.Command
	UserName string `json:"user_name" validate:"required"`
}

type AddItemIntoBasketCommand struct {
	cqrs.Command
	UserName string              `json:"user_name" validate:"required"`
	Item     ShoppingCartItemDTO `json:"shopping_cart_item"`
}

type RemoveItemFromBasketCommand struct {
	cqrs.Command
	UserName  string    `json:"user_name" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// UpdateItemPriceInBasketCommand lo lanza el consumidor de cambios de precio del catálogo.
type UpdateItemPriceInBasketCommand struct {
	cqrs.Command
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Price     decimal.Decimal `json:"price"`
}

type CheckoutBasketCommand struct {
	cqrs.Command
	Checkout BasketCheckoutDTO `json:"basket_checkout"`
}

// Redacted oculta los datos de tarjeta en los logs del pipeline.
func (c CheckoutBasketCommand) Redacted() any {
	c.Checkout = c.Checkout.Masked()
	return c
}

// ---------------- Queries ----------------

type GetBasketQuery struct {
	cqrs.Query
	UserName string `json:"user_name" validate:"required"`
}
