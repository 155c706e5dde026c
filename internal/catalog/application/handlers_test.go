package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	"github.com/davicafu/hexashop/internal/catalog/infra/outbound/analytics/memory"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/memstore"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

type catalogFixture struct {
	mediator *cqrs.Mediator
	store    *memstore.Store
	cache    *cache.InMemoryCache
	history  *memory.PriceHistoryRepo
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	log := zap.NewNop()

	store := memstore.New(log)
	products := memstore.NewCollection[catalogDomain.Product, *catalogDomain.Product](store, catalogDomain.ProductEntityName)
	domainBus := bus.NewDomainEventBus(log)
	Subscribe(domainBus, log)

	uows := persistence.NewFactory(store, log, persistence.DefaultInterceptors(nil, nil, domainBus)...)
	productCache := cache.NewInMemoryCache(time.Minute, time.Minute)
	t.Cleanup(productCache.Stop)
	history := memory.NewPriceHistoryRepo()

	m := cqrs.New(log)
	NewHandlers(uows, products, history, productCache, time.Minute, log).Register(m)

	return &catalogFixture{mediator: m, store: store, cache: productCache, history: history}
}

func productInput(name string, price string, category ...string) ProductDTO {
	return ProductDTO{
		Name:        name,
		Description: name + " description",
		ImageFile:   name + ".png",
		Price:       decimal.RequireFromString(price),
		Category:    category,
	}
}

func (f *catalogFixture) create(t *testing.T, in ProductDTO) uuid.UUID {
	t.Helper()
	id, err := cqrs.Send[uuid.UUID](context.Background(), f.mediator, CreateProductCommand{Product: in}).Unwrap()
	require.NoError(t, err)
	return id
}

func TestCreateProduct_ThenGetById(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := sharedDomain.WithActor(context.Background(), "admin")

	id, err := cqrs.Send[uuid.UUID](ctx, f.mediator, CreateProductCommand{Product: productInput("Bolso", "10.50", "Moda")}).Unwrap()
	require.NoError(t, err)

	res := cqrs.Send[ProductDTO](ctx, f.mediator, GetProductByIdQuery{ID: id})
	require.True(t, res.IsSuccess())
	assert.Equal(t, "Bolso", res.Value().Name)
	assert.True(t, decimal.RequireFromString("10.50").Equal(res.Value().Price))

	// El producto creado no deja nada en la outbox
	pending, _ := f.store.FetchPendingOutbox(ctx, 10)
	assert.Empty(t, pending)
}

func TestCreateProduct_ValidationCollectsAllFailures(t *testing.T) {
	f := newCatalogFixture(t)

	in := productInput("", "0")
	res := cqrs.Send[uuid.UUID](context.Background(), f.mediator, CreateProductCommand{Product: in})

	require.True(t, res.IsFailure())
	require.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(res.Err()))
	var fields []string
	for _, fe := range res.Err().(*sharedDomain.ValidationError).Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"product.name", "product.category", "product.price"}, fields)
	assert.Equal(t, 0, f.store.Count(catalogDomain.ProductEntityName))
}

func TestUpdateProduct_PriceChangeEnqueuesIntegrationEvent(t *testing.T) {
	f := newCatalogFixture(t)
	id := f.create(t, productInput("Bolso", "10", "Moda"))

	in := productInput("Bolso", "12.5", "Moda")
	in.ID = id
	ok, err := cqrs.Send[bool](context.Background(), f.mediator, UpdateProductCommand{Product: in}).Unwrap()
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := f.store.FetchPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, sharedEvents.ProductPriceChanged, pending[0].EventType)
	assert.Equal(t, catalogDomain.ProductAggregateType, pending[0].AggregateType)
	assert.Equal(t, id.String(), pending[0].AggregateID)

	payload := pending[0].Payload.(map[string]interface{})
	assert.Equal(t, "10", payload["old_price"])
	assert.Equal(t, "12.5", payload["new_price"])
}

func TestUpdateProduct_SamePriceEnqueuesNothing(t *testing.T) {
	f := newCatalogFixture(t)
	id := f.create(t, productInput("Bolso", "10", "Moda"))

	in := productInput("Bolso de piel", "10.00", "Moda")
	in.ID = id
	_, err := cqrs.Send[bool](context.Background(), f.mediator, UpdateProductCommand{Product: in}).Unwrap()
	require.NoError(t, err)

	pending, _ := f.store.FetchPendingOutbox(context.Background(), 10)
	assert.Empty(t, pending)

	got, err := cqrs.Send[ProductDTO](context.Background(), f.mediator, GetProductByIdQuery{ID: id}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "Bolso de piel", got.Name)
}

func TestUpdateProduct_MissingIsNotFound(t *testing.T) {
	f := newCatalogFixture(t)
	in := productInput("Bolso", "10", "Moda")
	in.ID = uuid.New()

	res := cqrs.Send[bool](context.Background(), f.mediator, UpdateProductCommand{Product: in})

	assert.Equal(t, sharedDomain.KindNotFound, sharedDomain.KindOf(res.Err()))
	assert.Contains(t, res.Err().Error(), "Could not find Product with id: "+in.ID.String())
}

func TestDeleteProduct(t *testing.T) {
	f := newCatalogFixture(t)
	id := f.create(t, productInput("Bolso", "10", "Moda"))

	ok, err := cqrs.Send[bool](context.Background(), f.mediator, DeleteProductCommand{ProductID: id}).Unwrap()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, f.store.Count(catalogDomain.ProductEntityName))

	res := cqrs.Send[bool](context.Background(), f.mediator, DeleteProductCommand{ProductID: id})
	assert.Equal(t, sharedDomain.KindNotFound, sharedDomain.KindOf(res.Err()))
}

func TestGetProductById_FillsCache(t *testing.T) {
	f := newCatalogFixture(t)
	id := f.create(t, productInput("Bolso", "10", "Moda"))

	_, err := cqrs.Send[ProductDTO](context.Background(), f.mediator, GetProductByIdQuery{ID: id}).Unwrap()
	require.NoError(t, err)

	key := cache.KeyByID(productCachePrefix, id)
	assert.Eventually(t, func() bool {
		var cached ProductDTO
		hit, _ := f.cache.Get(context.Background(), key, &cached)
		return hit && cached.ID == id
	}, time.Second, 10*time.Millisecond)
}

func TestGetProductById_NotFound(t *testing.T) {
	f := newCatalogFixture(t)

	res := cqrs.Send[ProductDTO](context.Background(), f.mediator, GetProductByIdQuery{ID: uuid.New()})

	assert.Equal(t, sharedDomain.KindNotFound, sharedDomain.KindOf(res.Err()))
}

func TestGetProducts_PagesSortedByName(t *testing.T) {
	f := newCatalogFixture(t)
	for _, name := range []string{"C", "A", "B"} {
		f.create(t, productInput(name, "1", "Moda"))
	}

	page, err := cqrs.Send[sharedDomain.Page[ProductDTO]](context.Background(), f.mediator,
		GetProductsQuery{PageRequest: sharedDomain.PageRequest{PageIndex: 1, PageSize: 2}}).Unwrap()
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.Count)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "C", page.Data[0].Name)
}

func TestGetProductsByCategory_MatchesPartOfCategoryIgnoringCase(t *testing.T) {
	f := newCatalogFixture(t)
	f.create(t, productInput("Bolso", "10", "Moda", "Piel"))
	f.create(t, productInput("Balón", "20", "Deporte"))

	page, err := cqrs.Send[sharedDomain.Page[ProductDTO]](context.Background(), f.mediator,
		GetProductsByCategoryQuery{Category: "mod"}).Unwrap()
	require.NoError(t, err)

	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Bolso", page.Data[0].Name)
}

func TestGetProductsByCategory_PagesBeyondMaxPageSize(t *testing.T) {
	// Arrange
	f := newCatalogFixture(t)
	total := sharedDomain.MaxPageSize + 5
	for i := 0; i < total; i++ {
		f.create(t, productInput(fmt.Sprintf("P%03d", i), "1", "Moda"))
	}
	f.create(t, productInput("Balón", "20", "Deporte"))

	// Act
	first, err := cqrs.Send[sharedDomain.Page[ProductDTO]](context.Background(), f.mediator,
		GetProductsByCategoryQuery{Category: "MODA", PageRequest: sharedDomain.PageRequest{PageSize: sharedDomain.MaxPageSize}}).Unwrap()
	require.NoError(t, err)
	second, err := cqrs.Send[sharedDomain.Page[ProductDTO]](context.Background(), f.mediator,
		GetProductsByCategoryQuery{Category: "MODA", PageRequest: sharedDomain.PageRequest{PageIndex: 1, PageSize: sharedDomain.MaxPageSize}}).Unwrap()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, int64(total), first.Count)
	assert.Len(t, first.Data, sharedDomain.MaxPageSize)
	assert.Equal(t, "P000", first.Data[0].Name)

	assert.Equal(t, int64(total), second.Count)
	require.Len(t, second.Data, 5)
	assert.Equal(t, "P100", second.Data[0].Name)
	assert.Equal(t, "P104", second.Data[4].Name)
}

func TestGetPriceTrend(t *testing.T) {
	f := newCatalogFixture(t)
	at := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, f.history.LogBatch(context.Background(), []catalogDomain.PriceChange{
		{ProductID: uuid.New(), OldPrice: decimal.NewFromInt(1), NewPrice: decimal.NewFromInt(2), ChangedAt: at},
		{ProductID: uuid.New(), OldPrice: decimal.NewFromInt(3), NewPrice: decimal.NewFromInt(2), ChangedAt: at},
	}))

	trend, err := cqrs.Send[PriceTrendDTO](context.Background(), f.mediator,
		GetPriceTrendQuery{From: at.Add(-time.Hour), To: at.Add(time.Hour)}).Unwrap()
	require.NoError(t, err)
	assert.EqualValues(t, 2, trend.Total)

	res := cqrs.Send[PriceTrendDTO](context.Background(), f.mediator, GetPriceTrendQuery{From: at, To: at.Add(-time.Hour)})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(res.Err()))
}
