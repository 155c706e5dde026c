package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler es cualquier consumidor de eventos de integración (ej. el de precios del carrito).
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// ConsumerAdapter es el "oído" que escucha en Kafka.
type ConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{reader: reader, handler: handler, log: log}
}

// Run consume hasta que se cancele el contexto. Bloquea: se lanza desde un errgroup.
func (c *ConsumerAdapter) Run(ctx context.Context) error {
	cfg := c.reader.Config()
	c.log.Info("🎧 Iniciando consumidor de Kafka...",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
	)
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("🛑 Consumidor de Kafka detenido.", zap.String("topic", cfg.Topic))
				return nil
			}
			c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
			continue
		}
		c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
	}
}

// RunChannelConsumer hace lo mismo sobre un canal del bus en memoria.
func RunChannelConsumer(ctx context.Context, ch <-chan Message, handler MessageHandler, log *zap.Logger) error {
	log.Info("🎧 Iniciando consumidor en memoria...")
	for {
		select {
		case <-ctx.Done():
			log.Info("🛑 Consumidor en memoria detenido.")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler.HandleMessage(ctx, msg.Key, msg.Value)
		}
	}
}
