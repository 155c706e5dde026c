package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

// ---------------- Commands ----------------

type CreateProductCommand struct {
	cqrs.Command
	Product ProductDTO `json:"product"`
}

type UpdateProductCommand struct {
	cqrs.Command
	Product ProductDTO `json:"product"`
}

type DeleteProductCommand struct {
	cqrs.Command
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// ---------------- Queries ----------------

type GetProductsQuery struct {
	cqrs.Query
	sharedDomain.PageRequest
}

type GetProductsByCategoryQuery struct {
	cqrs.Query
	sharedDomain.PageRequest
	Category string `json:"category" validate:"required"`
}

type GetProductByIdQuery struct {
	cqrs.Query
	ID uuid.UUID `json:"id" validate:"required"`
}

type GetPriceTrendQuery struct {
	cqrs.Query
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}
