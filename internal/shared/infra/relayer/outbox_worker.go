package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
)

// Worker procesa eventos pendientes de la outbox de forma genérica.
type Worker struct {
	name          string
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry map[string]sharedDomainEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	now           func() time.Time
	log           *zap.Logger
}

func NewOutboxWorker(
	name string,
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry map[string]sharedDomainEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		name:          name,
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		now:           func() time.Time { return time.Now().UTC() },
		log:           log.With(zap.String("outbox", name)),
	}
}

// Run inicia el bucle de polling y bloquea hasta que se cancele el contexto.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido.")
			return nil
		case <-ticker.C:
			w.log.Debug("🔄 Ejecutando polling de outbox")
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote. Las filas que fallan se quedan pendientes para el siguiente tick.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	published := 0
	for _, evt := range events {
		if w.publishAndMark(ctx, evt) {
			published++
		}
	}
	return published
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		w.log.Error("Tipo de evento desconocido en registro", zap.String("event_type", evt.EventType))
		return false
	}

	envelope, err := w.envelope(evt, metadata)
	if err != nil {
		w.log.Error("Error al decodificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false
	}

	if err := w.publisher.Publish(ctx, envelope); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	w.log.Info("✅ Evento publicado y marcado", zap.String("event_id", evt.ID.String()), zap.String("event_type", evt.EventType))
	return true
}

// envelope valida el payload contra el contrato registrado y lo envuelve en un IntegrationEvent.
func (w *Worker) envelope(evt sharedDomain.OutboxEvent, metadata sharedDomainEvents.EventMetadata) (sharedDomainEvents.IntegrationEvent, error) {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return sharedDomainEvents.IntegrationEvent{}, err
	}

	typed := reflect.New(metadata.Type).Interface()
	if err := json.Unmarshal(payloadBytes, typed); err != nil {
		return sharedDomainEvents.IntegrationEvent{}, err
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return sharedDomainEvents.IntegrationEvent{}, err
	}

	return sharedDomainEvents.IntegrationEvent{
		Type:      evt.EventType,
		Timestamp: w.now(),
		Data:      data,
		Key:       evt.AggregateID,
		Topic:     metadata.Topic,
	}, nil
}
