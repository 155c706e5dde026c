package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

// Handlers reúne los casos de uso del carrito.
type Handlers struct {
	uows    *persistence.Factory
	carts   basketDomain.ShoppingCartReader
	catalog basketDomain.ProductCatalog
	log     *zap.Logger
}

func NewHandlers(uows *persistence.Factory, carts basketDomain.ShoppingCartReader, catalog basketDomain.ProductCatalog, log *zap.Logger) *Handlers {
	return &Handlers{uows: uows, carts: carts, catalog: catalog, log: log}
}

func (h *Handlers) Register(m *cqrs.Mediator) {
	cqrs.Register[CreateBasketCommand, uuid.UUID](m, cqrs.HandlerFunc[CreateBasketCommand, uuid.UUID](h.CreateBasket))
	cqrs.Register[DeleteBasketCommand, bool](m, cqrs.HandlerFunc[DeleteBasketCommand, bool](h.DeleteBasket))
	cqrs.Register[AddItemIntoBasketCommand, uuid.UUID](m, cqrs.HandlerFunc[AddItemIntoBasketCommand, uuid.UUID](h.AddItemIntoBasket))
	cqrs.Register[RemoveItemFromBasketCommand, uuid.UUID](m, cqrs.HandlerFunc[RemoveItemFromBasketCommand, uuid.UUID](h.RemoveItemFromBasket))
	cqrs.Register[UpdateItemPriceInBasketCommand, int](m, cqrs.HandlerFunc[UpdateItemPriceInBasketCommand, int](h.UpdateItemPriceInBasket))
	cqrs.Register[CheckoutBasketCommand, bool](m, cqrs.HandlerFunc[CheckoutBasketCommand, bool](h.CheckoutBasket))
	cqrs.Register[GetBasketQuery, ShoppingCartDTO](m, cqrs.HandlerFunc[GetBasketQuery, ShoppingCartDTO](h.GetBasket))
	RegisterValidators(m)
}

// ---------------- Commands ----------------

// CreateBasket rechaza un segundo carrito para el mismo usuario.
func (h *Handlers) CreateBasket(ctx context.Context, cmd CreateBasketCommand) (uuid.UUID, error) {
	in := cmd.ShoppingCart
	_, found, err := h.carts.FindOne(ctx, byUserName(in.UserName))
	if err != nil {
		return uuid.Nil, fmt.Errorf("find basket: %w", err)
	}
	if found {
		return uuid.Nil, sharedDomain.NewBadRequestError("basket already exists", "user_name: "+in.UserName)
	}

	cart, err := basketDomain.NewShoppingCart(uuid.New(), in.UserName)
	if err != nil {
		return uuid.Nil, err
	}
	for _, item := range in.Items {
		if err := h.addItem(ctx, cart, item); err != nil {
			return uuid.Nil, err
		}
	}

	uow := h.uows.New()
	uow.Add(cart)
	if _, err := uow.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return cart.ID, nil
}

func (h *Handlers) DeleteBasket(ctx context.Context, cmd DeleteBasketCommand) (bool, error) {
	uow := h.uows.New()
	cart, err := h.cartOf(ctx, uow, cmd.UserName)
	if err != nil {
		return false, err
	}
	uow.Remove(cart)
	if _, err := uow.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// AddItemIntoBasket toma precio y nombre actuales del catálogo.
func (h *Handlers) AddItemIntoBasket(ctx context.Context, cmd AddItemIntoBasketCommand) (uuid.UUID, error) {
	uow := h.uows.New()
	cart, err := h.cartOf(ctx, uow, cmd.UserName)
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.addItem(ctx, cart, cmd.Item); err != nil {
		return uuid.Nil, err
	}
	if _, err := uow.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return cart.ID, nil
}

func (h *Handlers) RemoveItemFromBasket(ctx context.Context, cmd RemoveItemFromBasketCommand) (uuid.UUID, error) {
	uow := h.uows.New()
	cart, err := h.cartOf(ctx, uow, cmd.UserName)
	if err != nil {
		return uuid.Nil, err
	}
	cart.RemoveItem(cmd.ProductID)
	if _, err := uow.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return cart.ID, nil
}

// UpdateItemPriceInBasket actualiza todos los carritos que contienen el producto y
// devuelve cuántos han cambiado.
func (h *Handlers) UpdateItemPriceInBasket(ctx context.Context, cmd UpdateItemPriceInBasketCommand) (int, error) {
	uow := h.uows.New()
	criteria := sharedDomain.Where("items.product_id", sharedDomain.OpEq, cmd.ProductID)
	page := sharedDomain.PageRequest{PageSize: sharedDomain.MaxPageSize}

	updated := 0
	for {
		carts, total, err := h.carts.List(ctx, criteria, page)
		if err != nil {
			return 0, fmt.Errorf("list baskets with product %s: %w", cmd.ProductID, err)
		}
		for _, c := range carts {
			tracked := uow.Attach(c).(*basketDomain.ShoppingCart)
			if tracked.UpdateItemPrice(cmd.ProductID, cmd.Price) {
				updated++
			}
		}
		if len(carts) == 0 || int64((page.PageIndex+1)*page.PageSize) >= total {
			break
		}
		page.PageIndex++
	}

	if updated == 0 {
		return 0, nil
	}
	if _, err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	h.log.Info("💲 Precios actualizados en carritos",
		zap.String("product_id", cmd.ProductID.String()),
		zap.Int("baskets", updated),
	)
	return updated, nil
}

// CheckoutBasket deja el evento de compra en la outbox y borra el carrito en el mismo commit.
func (h *Handlers) CheckoutBasket(ctx context.Context, cmd CheckoutBasketCommand) (bool, error) {
	uow := h.uows.New()
	cart, err := h.cartOf(ctx, uow, cmd.Checkout.UserName)
	if err != nil {
		return false, err
	}
	if err := cart.Checkout(cmd.Checkout.Details()); err != nil {
		return false, err
	}
	uow.Remove(cart)
	if _, err := uow.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ---------------- Queries ----------------

func (h *Handlers) GetBasket(ctx context.Context, q GetBasketQuery) (ShoppingCartDTO, error) {
	cart, err := persistence.FindSingle[*basketDomain.ShoppingCart](ctx, nil, h.carts, byUserName(q.UserName), true)
	if err != nil {
		return ShoppingCartDTO{}, err
	}
	return ToShoppingCartDTO(cart), nil
}

// ---------------- Helpers ----------------

func byUserName(userName string) sharedDomain.Criterion {
	return sharedDomain.Where("user_name", sharedDomain.OpEq, userName)
}

func (h *Handlers) cartOf(ctx context.Context, uow *persistence.UnitOfWork, userName string) (*basketDomain.ShoppingCart, error) {
	return persistence.FindSingle[*basketDomain.ShoppingCart](ctx, uow, h.carts, byUserName(userName), false)
}

func (h *Handlers) addItem(ctx context.Context, cart *basketDomain.ShoppingCart, item ShoppingCartItemDTO) error {
	product, err := h.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	return cart.AddItem(item.ProductID, item.Quantity, item.Color, product.Price, product.Name)
}
