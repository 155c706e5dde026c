package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/hexashop/internal/shared/infra/utils"
)

const handleTimeout = 500 * time.Millisecond

// PriceHistoryConsumer vuelca los cambios de precio publicados por el catálogo al histórico analítico.
type PriceHistoryConsumer struct {
	history catalogDomain.PriceHistoryRepository
	log     *zap.Logger
}

func NewPriceHistoryConsumer(history catalogDomain.PriceHistoryRepository, logger *zap.Logger) *PriceHistoryConsumer {
	return &PriceHistoryConsumer{history: history, log: logger}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *PriceHistoryConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event for price history", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case sharedEvents.ProductPriceChanged:
		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(evt sharedEvents.ProductPriceChangedIntegrationEvent) {
			ctxLog, cancel := context.WithTimeout(ctx, handleTimeout)
			defer cancel()

			change := catalogDomain.PriceChange{
				ProductID: evt.ProductID,
				Name:      evt.Name,
				OldPrice:  evt.OldPrice,
				NewPrice:  evt.NewPrice,
				ChangedAt: evt.ChangedAt,
			}
			if err := c.history.LogBatch(ctxLog, []catalogDomain.PriceChange{change}); err != nil {
				c.log.Warn("Failed to log price change",
					zap.String("product_id", evt.ProductID.String()),
					zap.Error(err),
				)
				return
			}
			c.log.Info("📈 Cambio de precio registrado en el histórico",
				zap.String("product_id", evt.ProductID.String()),
				zap.String("new_price", evt.NewPrice.String()),
			)
		})

	default:
		c.log.Debug("Evento ignorado por el histórico de precios", zap.String("type", base.Type), zap.String("key", key))
	}
}
