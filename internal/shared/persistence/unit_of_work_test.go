package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

func newTestFactory(store Store, publisher Publisher, now func() time.Time) *Factory {
	return NewFactory(store, zap.NewNop(), DefaultInterceptors(now, nil, publisher)...)
}

func TestCommit_NewAggregateIsAuditedAndEventsDispatched(t *testing.T) {
	store := &fakeStore{}
	publisher := &recordingPublisher{}
	uow := newTestFactory(store, publisher, time.Now).New()

	w := newWidget("gear")
	uow.Add(w)

	before := time.Now().UTC()
	n, err := uow.Commit(domain.WithActor(context.Background(), "john"))

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NotNil(t, w.CreatedAt)
	require.NotNil(t, w.CreatedBy)
	require.NotNil(t, w.UpdatedAt)
	require.NotNil(t, w.UpdatedBy)
	assert.Equal(t, "john", *w.CreatedBy)
	assert.Equal(t, "john", *w.UpdatedBy)
	assert.WithinDuration(t, before, *w.CreatedAt, time.Second)
	assert.Equal(t, time.UTC, w.CreatedAt.Location())

	assert.Equal(t, []string{"widget.created"}, publisher.types())
	assert.False(t, w.HasEvents())

	require.Len(t, store.batches, 1)
	assert.Equal(t, Added, store.batches[0].Changes[0].State)
	assert.Equal(t, "Widget", store.batches[0].Changes[0].Name)

	state, tracked := uow.StateOf(w)
	assert.True(t, tracked)
	assert.Equal(t, Unchanged, state)
}

func TestCommit_ModifiedEntityKeepsCreationStamp(t *testing.T) {
	store := &fakeStore{}
	clock := steppingClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), time.Minute)
	uow := newTestFactory(store, &recordingPublisher{}, clock).New()

	w := newWidget("gear")
	uow.Add(w)
	_, err := uow.Commit(domain.WithActor(context.Background(), "john"))
	require.NoError(t, err)

	createdAt, createdBy := *w.CreatedAt, *w.CreatedBy
	firstUpdate := *w.UpdatedAt

	w.rename("cog")
	_, err = uow.Commit(domain.WithActor(context.Background(), "maria"))
	require.NoError(t, err)

	assert.Equal(t, createdAt, *w.CreatedAt)
	assert.Equal(t, createdBy, *w.CreatedBy)
	assert.True(t, w.UpdatedAt.After(firstUpdate))
	assert.Equal(t, "maria", *w.UpdatedBy)
	require.Len(t, store.batches, 2)
	assert.Equal(t, Modified, store.batches[1].Changes[0].State)
}

func TestCommit_UnchangedEntityIsNotWritten(t *testing.T) {
	store := &fakeStore{}
	uow := newTestFactory(store, &recordingPublisher{}, time.Now).New()

	w := &widget{Name: "idle"}
	uow.Attach(w)

	n, err := uow.Commit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.batches)
	assert.Nil(t, w.UpdatedAt)
}

func TestCommit_ActorFallsBackToSystem(t *testing.T) {
	uow := newTestFactory(&fakeStore{}, &recordingPublisher{}, time.Now).New()
	w := newWidget("gear")
	uow.Add(w)

	_, err := uow.Commit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.SystemActor, *w.CreatedBy)
}

func TestCommit_PublishFailureAbortsAndEmptiesQueues(t *testing.T) {
	store := &fakeStore{}
	boom := errors.New("subscriber failed")
	publisher := &recordingPublisher{err: boom, failOn: "widget.renamed"}
	uow := newTestFactory(store, publisher, time.Now).New()

	a := newWidget("a")
	a.rename("a2")
	b := newWidget("b")
	uow.Add(a)
	uow.Add(b)

	n, err := uow.Commit(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.batches, "no debe escribirse nada")
	// Lo publicado antes del fallo no se deshace
	assert.Equal(t, []string{"widget.created"}, publisher.types())
	assert.False(t, a.HasEvents())
	assert.False(t, b.HasEvents())
}

func TestCommit_StoreFailureAfterPublish(t *testing.T) {
	boom := errors.New("disk full")
	store := &fakeStore{err: boom}
	publisher := &recordingPublisher{}
	uow := newTestFactory(store, publisher, time.Now).New()

	w := newWidget("gear")
	uow.Add(w)

	_, err := uow.Commit(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Len(t, publisher.published, 1, "la publicación ocurre antes de la escritura física")
	assert.False(t, w.HasEvents())
	state, _ := uow.StateOf(w)
	assert.Equal(t, Added, state, "un commit fallido no acepta cambios")
}

func TestCommit_InterceptorFailureStillEmptiesQueues(t *testing.T) {
	boom := errors.New("audit unavailable")
	publisher := &recordingPublisher{}
	store := &fakeStore{}
	failing := InterceptorFunc(func(ctx context.Context, uow *UnitOfWork) error { return boom })
	uow := NewFactory(store, zap.NewNop(), failing, NewDispatchDomainEventsInterceptor(publisher)).New()

	w := newWidget("gear")
	w.rename("cog")
	uow.Add(w)

	_, err := uow.Commit(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, publisher.published)
	assert.Empty(t, store.batches)
	assert.False(t, w.HasEvents())
}

func TestCommit_DrainsAllQueuesBeforePublishingInOrder(t *testing.T) {
	uow := newTestFactory(&fakeStore{}, nil, time.Now).New()
	a := newWidget("a")
	a.rename("a2")
	b := newWidget("b")
	uow.Add(a)
	uow.Add(b)

	var pendingAtFirstPublish []bool
	publisher := &recordingPublisher{}
	publisher.onPublish = func(ctx context.Context, evt domain.DomainEvent) {
		if len(publisher.published) == 0 {
			pendingAtFirstPublish = []bool{a.HasEvents(), b.HasEvents()}
		}
	}
	uow.interceptors = DefaultInterceptors(time.Now, nil, publisher)

	_, err := uow.Commit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, pendingAtFirstPublish)
	require.Len(t, publisher.published, 3)
	assert.Equal(t, []string{"widget.created", "widget.renamed", "widget.created"}, publisher.types())
	assert.Equal(t, a.ID, publisher.published[0].AggregateID())
	assert.Equal(t, a.ID, publisher.published[1].AggregateID())
	assert.Equal(t, b.ID, publisher.published[2].AggregateID())
}

func TestCommit_EventCarriesSnapshotNotReference(t *testing.T) {
	publisher := &recordingPublisher{}
	uow := newTestFactory(&fakeStore{}, publisher, time.Now).New()
	w := newWidget("original")
	uow.Add(w)

	_, err := uow.Commit(context.Background())
	require.NoError(t, err)

	w.Name = "mutated later"
	evt := publisher.published[0].(widgetEvent)
	assert.Equal(t, "original", evt.Widget.Name)
}

func TestCommit_SubscriberCanEnqueueOutboxInSameBatch(t *testing.T) {
	store := &fakeStore{}
	publisher := &recordingPublisher{}
	publisher.onPublish = func(ctx context.Context, evt domain.DomainEvent) {
		uow, ok := FromContext(ctx)
		if ok {
			uow.Enqueue(domain.NewOutboxEvent("widget", evt.AggregateID(), "widget.integration", map[string]string{"k": "v"}))
		}
	}
	uow := newTestFactory(store, publisher, time.Now).New()
	uow.Add(newWidget("gear"))

	_, err := uow.Commit(context.Background())

	require.NoError(t, err)
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0].Outbox, 1)
	assert.Equal(t, "widget.integration", store.batches[0].Outbox[0].EventType)

	// El outbox se vacía tras un commit correcto
	_, err = uow.Commit(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.batches, 1)
}

func TestCommit_AggregateAddedBySubscriberIsAuditedAndDispatched(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	publisher := &recordingPublisher{}
	gear := newWidget("gear")
	sprocket := newWidget("sprocket")
	publisher.onPublish = func(ctx context.Context, evt domain.DomainEvent) {
		if uow, ok := FromContext(ctx); ok && evt.AggregateID() == gear.ID {
			uow.Add(sprocket)
		}
	}
	uow := newTestFactory(store, publisher, time.Now).New()
	uow.Add(gear)

	// Act
	n, err := uow.Commit(domain.WithActor(context.Background(), "john"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NotNil(t, sprocket.CreatedBy)
	assert.Equal(t, "john", *sprocket.CreatedBy)
	require.NotNil(t, sprocket.UpdatedAt)
	assert.Equal(t, []string{"widget.created", "widget.created"}, publisher.types())
	assert.Equal(t, sprocket.ID, publisher.published[1].AggregateID())
	assert.False(t, sprocket.HasEvents())
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0].Changes, 2)
	assert.Equal(t, Added, store.batches[0].Changes[1].State)
}

func TestCommit_EntityChangedBySubscriberIsWritten(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	publisher := &recordingPublisher{}
	clock := steppingClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), time.Minute)
	stock := &widget{Name: "stock"}
	stock.ID = uuid.New()
	gear := newWidget("gear")
	publisher.onPublish = func(ctx context.Context, evt domain.DomainEvent) {
		if evt.AggregateID() == gear.ID {
			stock.rename("stock-1")
		}
	}
	uow := newTestFactory(store, publisher, clock).New()
	uow.Attach(stock)
	uow.Add(gear)

	// Act
	_, err := uow.Commit(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"widget.created", "widget.renamed"}, publisher.types())
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0].Changes, 2)
	assert.Equal(t, Modified, store.batches[0].Changes[0].State)
	require.NotNil(t, stock.UpdatedAt)
	require.NotNil(t, gear.CreatedAt)
	// El sello de gear no se repite en la segunda vuelta
	assert.Equal(t, *gear.CreatedAt, *gear.UpdatedAt)
	assert.True(t, stock.UpdatedAt.After(*gear.UpdatedAt))
}

func TestCommit_RunawaySubscriberFails(t *testing.T) {
	store := &fakeStore{}
	publisher := &recordingPublisher{}
	publisher.onPublish = func(ctx context.Context, evt domain.DomainEvent) {
		if uow, ok := FromContext(ctx); ok {
			uow.Add(newWidget("echo"))
		}
	}
	uow := newTestFactory(store, publisher, time.Now).New()
	uow.Add(newWidget("gear"))

	_, err := uow.Commit(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 10 rounds")
	assert.Empty(t, store.batches)
	for _, agg := range uow.Aggregates() {
		assert.False(t, agg.HasEvents())
	}
}

func TestRemove_AddedEntityIsForgotten(t *testing.T) {
	store := &fakeStore{}
	uow := newTestFactory(store, &recordingPublisher{}, time.Now).New()
	w := &widget{Name: "temp"}
	uow.Add(w)
	uow.Remove(w)

	n, err := uow.Commit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.batches)
	_, tracked := uow.StateOf(w)
	assert.False(t, tracked)
}

func TestRemove_TrackedEntityIsDeletedAndDetached(t *testing.T) {
	store := &fakeStore{}
	uow := newTestFactory(store, &recordingPublisher{}, time.Now).New()
	w := &widget{Name: "old"}
	uow.Attach(w)
	uow.Remove(w)

	n, err := uow.Commit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Deleted, store.batches[0].Changes[0].State)
	assert.Empty(t, uow.Entries())
}

func TestAggregates_OnlyEventSources(t *testing.T) {
	uow := newTestFactory(&fakeStore{}, &recordingPublisher{}, time.Now).New()
	uow.Add(newWidget("a"))
	uow.Add(newWidget("b"))

	assert.Len(t, uow.Entities(), 2)
	assert.Len(t, uow.Aggregates(), 2)
}
