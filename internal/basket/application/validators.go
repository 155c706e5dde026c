package application

import (
	"context"

	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

var updateItemPrice = cqrs.ValidatorFunc[UpdateItemPriceInBasketCommand](
	func(_ context.Context, cmd UpdateItemPriceInBasketCommand) []sharedDomain.FieldError {
		if !cmd.Price.IsPositive() {
			return []sharedDomain.FieldError{{Field: "price", Message: "must be greater than 0"}}
		}
		return nil
	})

func RegisterValidators(m *cqrs.Mediator) {
	cqrs.RegisterValidator[CreateBasketCommand](m, cqrs.StructValidator[CreateBasketCommand]{})
	cqrs.RegisterValidator[DeleteBasketCommand](m, cqrs.StructValidator[DeleteBasketCommand]{})
	cqrs.RegisterValidator[AddItemIntoBasketCommand](m, cqrs.StructValidator[AddItemIntoBasketCommand]{})
	cqrs.RegisterValidator[RemoveItemFromBasketCommand](m, cqrs.StructValidator[RemoveItemFromBasketCommand]{})
	cqrs.RegisterValidator[UpdateItemPriceInBasketCommand](m, cqrs.StructValidator[UpdateItemPriceInBasketCommand]{})
	cqrs.RegisterValidator[UpdateItemPriceInBasketCommand](m, updateItemPrice)
	cqrs.RegisterValidator[CheckoutBasketCommand](m, cqrs.StructValidator[CheckoutBasketCommand]{})
	cqrs.RegisterValidator[GetBasketQuery](m, cqrs.StructValidator[GetBasketQuery]{})
}
