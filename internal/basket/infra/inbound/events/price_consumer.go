package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	basketApp "github.com/davicafu/hexashop/internal/basket/application"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/hexashop/internal/shared/infra/utils"
)

const handleTimeout = 2 * time.Second

// PriceChangedConsumer propaga los cambios de precio del catálogo a los carritos abiertos.
type PriceChangedConsumer struct {
	mediator *cqrs.Mediator
	log      *zap.Logger
}

func NewPriceChangedConsumer(m *cqrs.Mediator, logger *zap.Logger) *PriceChangedConsumer {
	return &PriceChangedConsumer{mediator: m, log: logger}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *PriceChangedConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event for basket", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case sharedEvents.ProductPriceChanged:
		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(evt sharedEvents.ProductPriceChangedIntegrationEvent) {
			ctxCmd, cancel := context.WithTimeout(ctx, handleTimeout)
			defer cancel()

			res := cqrs.Send[int](ctxCmd, c.mediator, basketApp.UpdateItemPriceInBasketCommand{
				ProductID: evt.ProductID,
				Price:     evt.NewPrice,
			})
			if res.IsFailure() {
				c.log.Warn("Failed to update basket prices",
					zap.String("product_id", evt.ProductID.String()),
					zap.Error(res.Err()),
				)
				return
			}
			c.log.Info("Basket prices updated via event",
				zap.String("product_id", evt.ProductID.String()),
				zap.Int("baskets", res.Value()),
			)
		})

	default:
		c.log.Debug("Evento ignorado por el carrito", zap.String("type", base.Type), zap.String("key", key))
	}
}
