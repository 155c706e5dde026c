package catalog

import (
	"context"

	"github.com/google/uuid"

	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
	catalogApp "github.com/davicafu/hexashop/internal/catalog/application"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
)

// MediatorCatalog consulta el módulo de catálogo a través del mediator, igual que cualquier otro cliente.
type MediatorCatalog struct {
	mediator *cqrs.Mediator
}

var _ basketDomain.ProductCatalog = (*MediatorCatalog)(nil)

func NewMediatorCatalog(m *cqrs.Mediator) *MediatorCatalog {
	return &MediatorCatalog{mediator: m}
}

func (c *MediatorCatalog) GetProduct(ctx context.Context, id uuid.UUID) (basketDomain.ProductInfo, error) {
	product, err := cqrs.Send[catalogApp.ProductDTO](ctx, c.mediator, catalogApp.GetProductByIdQuery{ID: id}).Unwrap()
	if err != nil {
		return basketDomain.ProductInfo{}, err
	}
	return basketDomain.ProductInfo{ID: product.ID, Name: product.Name, Price: product.Price}, nil
}
