package bus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// DomainEventHandler procesa un evento de dominio dentro del commit que lo produjo.
type DomainEventHandler func(ctx context.Context, evt domain.DomainEvent) error

// DomainEventBus es el Publisher en proceso del interceptor de despacho: entrega cada
// evento a los suscriptores de su tipo, de forma secuencial y esperando a cada uno.
type DomainEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]DomainEventHandler
	log      *zap.Logger
}

func NewDomainEventBus(log *zap.Logger) *DomainEventBus {
	return &DomainEventBus{handlers: make(map[string][]DomainEventHandler), log: log}
}

// Subscribe registra un handler para un tipo de evento. El orden de registro es el orden de entrega.
func (b *DomainEventBus) Subscribe(eventType string, h DomainEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// On registra un handler tipado; un evento de otro tipo Go con el mismo nombre es un error.
func On[E domain.DomainEvent](b *DomainEventBus, eventType string, h func(ctx context.Context, evt E) error) {
	b.Subscribe(eventType, func(ctx context.Context, evt domain.DomainEvent) error {
		typed, ok := evt.(E)
		if !ok {
			return fmt.Errorf("event %s has unexpected type %T", eventType, evt)
		}
		return h(ctx, typed)
	})
}

// Publish se detiene en el primer handler que falla y devuelve su error.
func (b *DomainEventBus) Publish(ctx context.Context, evt domain.DomainEvent) error {
	b.mu.RLock()
	handlers := b.handlers[evt.EventType()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("Evento de dominio sin suscriptores", zap.String("event_type", evt.EventType()))
		return nil
	}

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			b.log.Warn("⚠️ Fallo en suscriptor de evento de dominio",
				zap.String("event_type", evt.EventType()),
				zap.String("event_id", evt.EventID().String()),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}
