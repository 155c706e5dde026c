package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

// ShoppingCartReader es el lado de lectura del almacén de carritos.
// Campos filtrables: "id", "user_name", "items.product_id".
type ShoppingCartReader = sharedDomain.Reader[*ShoppingCart]

// ProductInfo es lo que el carrito necesita saber de un producto.
type ProductInfo struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
}

// ProductCatalog consulta el catálogo; un producto inexistente devuelve NotFoundError.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (ProductInfo, error)
}
