package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
)

// ---------------- Mocks ----------------

type mockOutboxRepository struct{ mock.Mock }

func (m *mockOutboxRepository) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]sharedDomain.OutboxEvent)
	return events, args.Error(1)
}

func (m *mockOutboxRepository) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, event interface{}) error {
	return m.Called(ctx, event).Error(0)
}

var (
	_ sharedDomain.OutboxRepository = (*mockOutboxRepository)(nil)
	_ sharedBus.EventBus            = (*mockPublisher)(nil)
)

var registry = map[string]sharedDomainEvents.EventMetadata{
	sharedDomainEvents.ProductPriceChanged: {
		Type:  reflect.TypeOf(sharedDomainEvents.ProductPriceChangedIntegrationEvent{}),
		Topic: sharedDomainEvents.CatalogTopic,
	},
}

func priceChangedRow(productID uuid.UUID) sharedDomain.OutboxEvent {
	return sharedDomain.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: productID.String(),
		EventType:   sharedDomainEvents.ProductPriceChanged,
		Payload: map[string]interface{}{
			"product_id": productID.String(),
			"name":       "Bolso",
			"old_price":  "10",
			"new_price":  "12.5",
		},
	}
}

// ---------------- Tests ----------------

func TestOutboxWorker_ProcessBatch_Success(t *testing.T) {
	repo := new(mockOutboxRepository)
	publisher := new(mockPublisher)

	productID := uuid.New()
	row := priceChangedRow(productID)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{row}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.IntegrationEvent")).Return(nil).Once()
	repo.On("MarkOutboxProcessed", mock.Anything, row.ID).Return(nil).Once()

	worker := NewOutboxWorker("test", repo, publisher, registry, 0, 10, zap.NewNop())

	assert.Equal(t, 1, worker.ProcessBatch(context.Background()))

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	sent := publisher.Calls[0].Arguments.Get(1).(sharedDomainEvents.IntegrationEvent)
	assert.Equal(t, sharedDomainEvents.ProductPriceChanged, sent.Type)
	assert.Equal(t, sharedDomainEvents.CatalogTopic, sent.EventTopic())
	assert.Equal(t, productID.String(), sent.PartitionKey())
	assert.False(t, sent.Timestamp.IsZero())

	var data sharedDomainEvents.ProductPriceChangedIntegrationEvent
	require.NoError(t, json.Unmarshal(sent.Data, &data))
	assert.Equal(t, productID, data.ProductID)
	assert.Equal(t, "12.5", data.NewPrice.String())
}

func TestOutboxWorker_ProcessBatch_PublisherFails(t *testing.T) {
	repo := new(mockOutboxRepository)
	publisher := new(mockPublisher)
	row := priceChangedRow(uuid.New())

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{row}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka is down")).Once()

	worker := NewOutboxWorker("test", repo, publisher, registry, 0, 10, zap.NewNop())

	assert.Equal(t, 0, worker.ProcessBatch(context.Background()))
	publisher.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_UnknownEventType(t *testing.T) {
	repo := new(mockOutboxRepository)
	publisher := new(mockPublisher)
	row := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "unregistered.event", Payload: map[string]interface{}{}}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{row}, nil).Once()

	worker := NewOutboxWorker("test", repo, publisher, registry, 0, 10, zap.NewNop())
	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_FetchFails(t *testing.T) {
	repo := new(mockOutboxRepository)
	publisher := new(mockPublisher)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return(nil, errors.New("db down")).Once()

	worker := NewOutboxWorker("test", repo, publisher, registry, 0, 10, zap.NewNop())

	assert.Equal(t, 0, worker.ProcessBatch(context.Background()))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
