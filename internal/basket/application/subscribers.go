package application

import (
	"context"

	"go.uber.org/zap"

	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

// Subscribe registra los manejadores de eventos de dominio del carrito.
func Subscribe(b *bus.DomainEventBus, log *zap.Logger) {
	bus.On[basketDomain.ShoppingCartCreatedEvent](b, basketDomain.ShoppingCartCreated, func(ctx context.Context, evt basketDomain.ShoppingCartCreatedEvent) error {
		log.Info("🛒 Carrito creado",
			zap.String("basket_id", evt.Cart.ID.String()),
			zap.String("user_name", evt.Cart.UserName),
			zap.Int("items", len(evt.Cart.Items)),
		)
		return nil
	})

	bus.On[basketDomain.ShoppingCartCheckedOutEvent](b, basketDomain.ShoppingCartCheckedOut, func(ctx context.Context, evt basketDomain.ShoppingCartCheckedOutEvent) error {
		log.Info("💳 Checkout de carrito",
			zap.String("basket_id", evt.Cart.ID.String()),
			zap.String("total", evt.Cart.TotalPrice.String()),
		)
		return enqueueCheckout(ctx, evt)
	})
}

func enqueueCheckout(ctx context.Context, evt basketDomain.ShoppingCartCheckedOutEvent) error {
	uow, ok := persistence.FromContext(ctx)
	if !ok {
		return sharedDomain.NewInternalServerError("checkout dispatched outside a unit of work")
	}

	d := evt.Details
	uow.Enqueue(sharedDomain.NewOutboxEvent(
		basketDomain.BasketAggregateType,
		evt.Cart.ID,
		sharedEvents.BasketCheckout,
		sharedEvents.BasketCheckoutIntegrationEvent{
			BasketID:      evt.Cart.ID,
			UserName:      evt.Cart.UserName,
			CustomerID:    d.CustomerID,
			TotalPrice:    evt.Cart.TotalPrice,
			FirstName:     d.FirstName,
			LastName:      d.LastName,
			EmailAddress:  d.EmailAddress,
			AddressLine:   d.AddressLine,
			Country:       d.Country,
			State:         d.State,
			ZipCode:       d.ZipCode,
			CardName:      d.CardName,
			PaymentMethod: d.PaymentMethod,
		},
	))
	return nil
}
