package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

// go-playground no sabe comparar decimal.Decimal, el precio se valida aparte.
func validatePrice(p ProductDTO) []sharedDomain.FieldError {
	if !p.Price.IsPositive() {
		return []sharedDomain.FieldError{{Field: "product.price", Message: "must be greater than 0"}}
	}
	return nil
}

var createProductPrice = cqrs.ValidatorFunc[CreateProductCommand](
	func(_ context.Context, cmd CreateProductCommand) []sharedDomain.FieldError {
		return validatePrice(cmd.Product)
	})

var updateProductRules = cqrs.ValidatorFunc[UpdateProductCommand](
	func(_ context.Context, cmd UpdateProductCommand) []sharedDomain.FieldError {
		errs := validatePrice(cmd.Product)
		if cmd.Product.ID == uuid.Nil {
			errs = append(errs, sharedDomain.FieldError{Field: "product.id", Message: "is required"})
		}
		return errs
	})

var priceTrendRange = cqrs.ValidatorFunc[GetPriceTrendQuery](
	func(_ context.Context, q GetPriceTrendQuery) []sharedDomain.FieldError {
		if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
			return []sharedDomain.FieldError{{Field: "to", Message: "must be after from"}}
		}
		return nil
	})

// RegisterValidators da de alta las reglas de cada petición del catálogo.
func RegisterValidators(m *cqrs.Mediator) {
	cqrs.RegisterValidator[CreateProductCommand](m, cqrs.StructValidator[CreateProductCommand]{})
	cqrs.RegisterValidator[CreateProductCommand](m, createProductPrice)
	cqrs.RegisterValidator[UpdateProductCommand](m, cqrs.StructValidator[UpdateProductCommand]{})
	cqrs.RegisterValidator[UpdateProductCommand](m, updateProductRules)
	cqrs.RegisterValidator[DeleteProductCommand](m, cqrs.StructValidator[DeleteProductCommand]{})
	cqrs.RegisterValidator[GetProductByIdQuery](m, cqrs.StructValidator[GetProductByIdQuery]{})
	cqrs.RegisterValidator[GetProductsByCategoryQuery](m, cqrs.StructValidator[GetProductsByCategoryQuery]{})
	cqrs.RegisterValidator[GetPriceTrendQuery](m, cqrs.StructValidator[GetPriceTrendQuery]{})
	cqrs.RegisterValidator[GetPriceTrendQuery](m, priceTrendRange)
}
