package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

const productCachePrefix = "product"

// Handlers reúne los casos de uso del catálogo.
type Handlers struct {
	uows     *persistence.Factory
	products catalogDomain.ProductReader
	history  catalogDomain.PriceHistoryRepository
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewHandlers(
	uows *persistence.Factory,
	products catalogDomain.ProductReader,
	history catalogDomain.PriceHistoryRepository,
	productCache cache.Cache,
	cacheTTL time.Duration,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		uows:     uows,
		products: products,
		history:  history,
		cache:    productCache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Register da de alta handlers y validadores en el mediator.
func (h *Handlers) Register(m *cqrs.Mediator) {
	cqrs.Register[CreateProductCommand, uuid.UUID](m, cqrs.HandlerFunc[CreateProductCommand, uuid.UUID](h.CreateProduct))
	cqrs.Register[UpdateProductCommand, bool](m, cqrs.HandlerFunc[UpdateProductCommand, bool](h.UpdateProduct))
	cqrs.Register[DeleteProductCommand, bool](m, cqrs.HandlerFunc[DeleteProductCommand, bool](h.DeleteProduct))
	cqrs.Register[GetProductsQuery, sharedDomain.Page[ProductDTO]](m, cqrs.HandlerFunc[GetProductsQuery, sharedDomain.Page[ProductDTO]](h.GetProducts))
	cqrs.Register[GetProductsByCategoryQuery, sharedDomain.Page[ProductDTO]](m, cqrs.HandlerFunc[GetProductsByCategoryQuery, sharedDomain.Page[ProductDTO]](h.GetProductsByCategory))
	cqrs.Register[GetProductByIdQuery, ProductDTO](m, cqrs.HandlerFunc[GetProductByIdQuery, ProductDTO](h.GetProductById))
	cqrs.Register[GetPriceTrendQuery, PriceTrendDTO](m, cqrs.HandlerFunc[GetPriceTrendQuery, PriceTrendDTO](h.GetPriceTrend))
	RegisterValidators(m)
}

// ---------------- Commands ----------------

func (h *Handlers) CreateProduct(ctx context.Context, cmd CreateProductCommand) (uuid.UUID, error) {
	in := cmd.Product
	product, err := catalogDomain.NewProduct(uuid.New(), in.Name, in.Description, in.ImageFile, in.Price, in.Category)
	if err != nil {
		return uuid.Nil, err
	}

	uow := h.uows.New()
	uow.Add(product)
	if _, err := uow.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return product.ID, nil
}

func (h *Handlers) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (bool, error) {
	in := cmd.Product
	uow := h.uows.New()

	product, err := persistence.FindByKey[*catalogDomain.Product](ctx, uow, h.products, in.ID)
	if err != nil {
		return false, err
	}
	if err := product.Update(in.Name, in.Description, in.ImageFile, in.Price, in.Category); err != nil {
		return false, err
	}
	if _, err := uow.Commit(ctx); err != nil {
		return false, err
	}

	cache.AsyncCacheDelete(h.cache, cache.KeyByID(productCachePrefix, product.ID), h.log)
	return true, nil
}

func (h *Handlers) DeleteProduct(ctx context.Context, cmd DeleteProductCommand) (bool, error) {
	uow := h.uows.New()

	product, err := persistence.FindByKey[*catalogDomain.Product](ctx, uow, h.products, cmd.ProductID)
	if err != nil {
		return false, err
	}
	uow.Remove(product)
	if _, err := uow.Commit(ctx); err != nil {
		return false, err
	}

	cache.AsyncCacheDelete(h.cache, cache.KeyByID(productCachePrefix, product.ID), h.log)
	return true, nil
}

// ---------------- Queries ----------------

func (h *Handlers) GetProducts(ctx context.Context, q GetProductsQuery) (sharedDomain.Page[ProductDTO], error) {
	page := q.PageRequest
	if page.Sort.Field == "" {
		page.Sort = sharedDomain.Sort{Field: "name"}
	}
	products, err := persistence.FindPage[*catalogDomain.Product](ctx, h.products, nil, page)
	if err != nil {
		return sharedDomain.Page[ProductDTO]{}, err
	}
	return sharedDomain.MapPage(products, ToProductDTO), nil
}

// GetProductsByCategory pagina los productos con alguna categoría que contenga el texto (sin distinguir mayúsculas).
func (h *Handlers) GetProductsByCategory(ctx context.Context, q GetProductsByCategoryQuery) (sharedDomain.Page[ProductDTO], error) {
	page := q.PageRequest
	if page.Sort.Field == "" {
		page.Sort = sharedDomain.Sort{Field: "name"}
	}
	products, err := persistence.FindPage[*catalogDomain.Product](ctx, h.products,
		sharedDomain.Where("category", sharedDomain.OpILike, "%"+q.Category+"%"), page)
	if err != nil {
		return sharedDomain.Page[ProductDTO]{}, fmt.Errorf("list products by category: %w", err)
	}
	return sharedDomain.MapPage(products, ToProductDTO), nil
}

// GetProductById usa cache-aside: caché, si no almacén, y repoblado en background.
func (h *Handlers) GetProductById(ctx context.Context, q GetProductByIdQuery) (ProductDTO, error) {
	key := cache.KeyByID(productCachePrefix, q.ID)
	if h.cache != nil {
		var cached ProductDTO
		if ok, err := h.cache.Get(ctx, key, &cached); err != nil {
			h.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	product, err := persistence.FindSingle[*catalogDomain.Product](ctx, nil, h.products,
		sharedDomain.Where("id", sharedDomain.OpEq, q.ID), true)
	if err != nil {
		return ProductDTO{}, err
	}

	dto := ToProductDTO(product)
	cache.AsyncCacheSet(h.cache, key, dto, int(h.cacheTTL.Seconds()), h.log)
	return dto, nil
}

func (h *Handlers) GetPriceTrend(ctx context.Context, q GetPriceTrendQuery) (PriceTrendDTO, error) {
	days, err := h.history.GetDailyTrend(ctx, q.From, q.To)
	if err != nil {
		return PriceTrendDTO{}, fmt.Errorf("price trend: %w", err)
	}

	out := PriceTrendDTO{From: q.From, To: q.To, Days: days}
	for _, d := range days {
		out.Total += d.Changes
	}
	if out.Days == nil {
		out.Days = []catalogDomain.DailyPriceTrend{}
	}
	return out, nil
}
