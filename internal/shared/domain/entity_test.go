package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	EventBase
	Label string
}

func TestAggregate_RaiseAndDrain(t *testing.T) {
	agg := &Aggregate{Entity: Entity{ID: uuid.New()}}
	assert.False(t, agg.HasEvents())

	agg.RaiseEvent(testEvent{EventBase: NewEventBase("test.first", agg.ID), Label: "a"})
	agg.RaiseEvent(testEvent{EventBase: NewEventBase("test.second", agg.ID), Label: "b"})

	assert.True(t, agg.HasEvents())
	assert.Len(t, agg.PendingEvents(), 2, "PendingEvents no debe vaciar la cola")

	drained := agg.DrainEvents()
	assert.Len(t, drained, 2)
	assert.Equal(t, "test.first", drained[0].EventType())
	assert.Equal(t, "test.second", drained[1].EventType())

	// La cola queda vacía tras drenar
	assert.False(t, agg.HasEvents())
	assert.Empty(t, agg.DrainEvents())
}

func TestAggregate_PendingEventsIsACopy(t *testing.T) {
	agg := &Aggregate{Entity: Entity{ID: uuid.New()}}
	agg.RaiseEvent(testEvent{EventBase: NewEventBase("test.first", agg.ID)})

	pending := agg.PendingEvents()
	pending[0] = nil

	assert.NotNil(t, agg.PendingEvents()[0])
}

func TestEventBase_Metadata(t *testing.T) {
	id := uuid.New()
	evt := NewEventBase("product.created", id)

	assert.NotEqual(t, uuid.Nil, evt.EventID())
	assert.Equal(t, id, evt.AggregateID())
	assert.Equal(t, id.String(), evt.PartitionKey())
	assert.Equal(t, "UTC", evt.OccurredAt().Location().String())
}

func TestEntity_AuditStartsEmpty(t *testing.T) {
	e := &Entity{ID: uuid.New()}
	audit := e.AuditInfo()

	assert.Nil(t, audit.CreatedAt)
	assert.Nil(t, audit.CreatedBy)
	assert.Nil(t, audit.UpdatedAt)
	assert.Nil(t, audit.UpdatedBy)
}
