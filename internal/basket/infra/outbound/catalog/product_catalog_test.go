package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogApp "github.com/davicafu/hexashop/internal/catalog/application"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

func TestMediatorCatalog_GetProduct(t *testing.T) {
	m := cqrs.New(zap.NewNop())
	known := uuid.New()
	cqrs.Register[catalogApp.GetProductByIdQuery, catalogApp.ProductDTO](m, cqrs.HandlerFunc[catalogApp.GetProductByIdQuery, catalogApp.ProductDTO](
		func(ctx context.Context, q catalogApp.GetProductByIdQuery) (catalogApp.ProductDTO, error) {
			if q.ID != known {
				return catalogApp.ProductDTO{}, sharedDomain.NewNotFoundError("Product", q.ID)
			}
			return catalogApp.ProductDTO{ID: known, Name: "Bolso", Price: decimal.NewFromInt(10)}, nil
		}))

	c := NewMediatorCatalog(m)

	info, err := c.GetProduct(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, "Bolso", info.Name)
	assert.True(t, decimal.NewFromInt(10).Equal(info.Price))

	_, err = c.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
}
