package mongostore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// OutboxRepo implementa domain.OutboxRepository sobre la colección outbox.
type OutboxRepo struct {
	outboxColl *mongo.Collection
}

var _ domain.OutboxRepository = (*OutboxRepo)(nil)

func NewOutboxRepo(db *mongo.Database) *OutboxRepo {
	return &OutboxRepo{outboxColl: db.Collection(OutboxCollection)}
}

func (r *OutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	filter := bson.M{"processed": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.OutboxEvent
	for cursor.Next(ctx) {
		var mo mongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, err
		}
		evt, err := fromMongoOutboxEvent(&mo)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, cursor.Err()
}

func (r *OutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// fromMongoOutboxEvent pasa el payload BSON por JSON para que el relayer reciba
// la misma forma (map[string]interface{}) que con el resto de stores.
func fromMongoOutboxEvent(mo *mongoOutboxEvent) (domain.OutboxEvent, error) {
	id, err := uuid.Parse(mo.ID)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("invalid UUID in outbox document: %w", err)
	}

	raw, err := bson.MarshalExtJSON(bson.M{"p": mo.Payload}, false, false)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("invalid payload in outbox document %s: %w", id, err)
	}
	var wrapper struct {
		P map[string]interface{} `json:"p"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("invalid payload in outbox document %s: %w", id, err)
	}

	return domain.OutboxEvent{
		ID:            id,
		AggregateType: mo.AggregateType,
		AggregateID:   mo.AggregateID,
		EventType:     mo.EventType,
		Payload:       wrapper.P,
		CreatedAt:     mo.CreatedAt,
		Processed:     mo.Processed,
	}, nil
}
