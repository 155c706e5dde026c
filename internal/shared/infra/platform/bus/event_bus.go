package bus

import "context"

// Keyer lo implementan los mensajes que deben ir a una partición concreta.
type Keyer interface {
	PartitionKey() string
}

// Topical lo implementan los mensajes que eligen su propio topic.
type Topical interface {
	EventTopic() string
}

// EventBus publica eventos de integración hacia fuera del proceso.
// La semántica de topic/nombre y formato del payload la deciden los adapters.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}
