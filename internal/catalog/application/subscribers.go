package application

import (
	"context"

	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

// Subscribe registra los manejadores de eventos de dominio del catálogo.
func Subscribe(b *bus.DomainEventBus, log *zap.Logger) {
	bus.On[catalogDomain.ProductCreatedEvent](b, catalogDomain.ProductCreated, func(ctx context.Context, evt catalogDomain.ProductCreatedEvent) error {
		log.Info("🆕 Producto creado",
			zap.String("product_id", evt.Product.ID.String()),
			zap.String("name", evt.Product.Name),
		)
		return nil
	})

	bus.On[catalogDomain.ProductPriceChangedEvent](b, catalogDomain.ProductPriceChanged, func(ctx context.Context, evt catalogDomain.ProductPriceChangedEvent) error {
		log.Info("💲 Precio de producto cambiado",
			zap.String("product_id", evt.Product.ID.String()),
			zap.String("old_price", evt.OldPrice.String()),
			zap.String("new_price", evt.Product.Price.String()),
		)
		return enqueuePriceChanged(ctx, evt)
	})
}

// enqueuePriceChanged deja el evento de integración en la outbox del mismo commit.
func enqueuePriceChanged(ctx context.Context, evt catalogDomain.ProductPriceChangedEvent) error {
	uow, ok := persistence.FromContext(ctx)
	if !ok {
		return sharedDomain.NewInternalServerError("price change dispatched outside a unit of work")
	}

	uow.Enqueue(sharedDomain.NewOutboxEvent(
		catalogDomain.ProductAggregateType,
		evt.Product.ID,
		sharedEvents.ProductPriceChanged,
		sharedEvents.ProductPriceChangedIntegrationEvent{
			ProductID: evt.Product.ID,
			Name:      evt.Product.Name,
			Category:  evt.Product.Category,
			OldPrice:  evt.OldPrice,
			NewPrice:  evt.Product.Price,
			ChangedAt: evt.OccurredAt(),
		},
	))
	return nil
}
