package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
)

// Message es lo que recibe un suscriptor del bus en memoria.
type Message struct {
	Key   string
	Value []byte
}

// InMemoryEventBus sustituye a Kafka en local: reparte por topic a canales con buffer.
// Si un suscriptor tiene el buffer lleno el mensaje se descarta para él.
type InMemoryEventBus struct {
	mu           sync.RWMutex
	subscribers  map[string][]chan Message
	defaultTopic string
	log          *zap.Logger
}

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(defaultTopic string, log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers:  make(map[string][]chan Message),
		defaultTopic: defaultTopic,
		log:          log,
	}
}

func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := b.defaultTopic
	if topical, ok := event.(sharedBus.Topical); ok && topical.EventTopic() != "" {
		topic = topical.EventTopic()
	}
	msg := Message{Value: payload}
	if keyer, ok := event.(sharedBus.Keyer); ok {
		msg.Key = keyer.PartitionKey()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers[topic] {
		select {
		case sub <- msg:
		default:
			b.log.Warn("⚠️ Suscriptor lleno, mensaje descartado", zap.String("topic", topic))
		}
	}
	return nil
}

// Subscribe devuelve un canal que recibe los mensajes del topic.
func (b *InMemoryEventBus) Subscribe(topic string, bufferSize int) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, bufferSize)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}
