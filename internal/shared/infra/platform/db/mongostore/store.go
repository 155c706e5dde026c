// Package mongostore implementa persistence.Store sobre MongoDB usando transacciones de sesión.
package mongostore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

const OutboxCollection = "outbox"

// Writer persiste un tipo de entidad dentro de la transacción. ctx es el contexto de sesión.
type Writer interface {
	Insert(ctx context.Context, db *mongo.Database, entity domain.Auditable) error
	Update(ctx context.Context, db *mongo.Database, entity domain.Auditable) error
	Delete(ctx context.Context, db *mongo.Database, entity domain.Auditable) error
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger

	mu      sync.RWMutex
	writers map[string]Writer
}

var _ persistence.Store = (*Store)(nil)

// New comprueba la conexión antes de devolver el store.
func New(ctx context.Context, client *mongo.Client, dbName string, log *zap.Logger) (*Store, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return &Store{
		client:  client,
		db:      client.Database(dbName),
		log:     log,
		writers: make(map[string]Writer),
	}, nil
}

func (s *Store) Database() *mongo.Database { return s.db }

func (s *Store) Register(name string, w Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writers[name] = w
}

func (s *Store) writer(name string) (Writer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.writers[name]
	return w, ok
}

// Apply escribe cambios y outbox en una única transacción (requiere replica set).
func (s *Store) Apply(ctx context.Context, batch persistence.Batch) (int, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return 0, err
	}
	defer session.EndSession(ctx)

	written, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		n := 0
		for _, ch := range batch.Changes {
			w, ok := s.writer(ch.Name)
			if !ok {
				return nil, fmt.Errorf("no mongo writer registered for %s", ch.Name)
			}
			var err error
			switch ch.State {
			case persistence.Added:
				err = w.Insert(sessCtx, s.db, ch.Entity)
			case persistence.Modified:
				err = w.Update(sessCtx, s.db, ch.Entity)
			case persistence.Deleted:
				err = w.Delete(sessCtx, s.db, ch.Entity)
			}
			if err != nil {
				return nil, fmt.Errorf("%s %s %s: %w", ch.State, ch.Name, ch.Entity.GetID(), err)
			}
			n++
		}

		if len(batch.Outbox) > 0 {
			docs := make([]interface{}, 0, len(batch.Outbox))
			for _, evt := range batch.Outbox {
				doc, err := toMongoOutboxEvent(evt)
				if err != nil {
					return nil, err
				}
				docs = append(docs, doc)
			}
			if _, err := s.db.Collection(OutboxCollection).InsertMany(sessCtx, docs); err != nil {
				return nil, fmt.Errorf("failed to insert outbox events: %w", err)
			}
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("Batch aplicado en MongoDB", zap.Int("changes", written.(int)), zap.Int("outbox", len(batch.Outbox)))
	return written.(int), nil
}

// MatchedOrNotFound traduce un update/delete sin coincidencias a NotFoundError.
func MatchedOrNotFound(matched int64, entity domain.Auditable) error {
	if matched == 0 {
		return domain.NewNotFoundError(entity.EntityName(), entity.GetID())
	}
	return nil
}

// mongoOutboxEvent mapea la outbox a BSON sin poner tags en el dominio.
type mongoOutboxEvent struct {
	ID            string      `bson:"_id"`
	AggregateType string      `bson:"aggregateType"`
	AggregateID   string      `bson:"aggregateId"`
	EventType     string      `bson:"eventType"`
	Payload       interface{} `bson:"payload"`
	CreatedAt     time.Time   `bson:"createdAt"`
	Processed     bool        `bson:"processed"`
}

// El payload se guarda con sus nombres JSON (los contratos no llevan tags bson).
func toMongoOutboxEvent(evt domain.OutboxEvent) (mongoOutboxEvent, error) {
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return mongoOutboxEvent{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return mongoOutboxEvent{}, fmt.Errorf("outbox payload must be a JSON object: %w", err)
	}

	return mongoOutboxEvent{
		ID:            evt.ID.String(),
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.EventType,
		Payload:       payload,
		CreatedAt:     evt.CreatedAt,
		Processed:     evt.Processed,
	}, nil
}
