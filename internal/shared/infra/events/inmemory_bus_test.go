package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
)

func TestInMemoryEventBus_RoutesByTopic(t *testing.T) {
	bus := NewInMemoryEventBus("default", zap.NewNop())
	catalog := bus.Subscribe(sharedEvents.CatalogTopic, 1)
	basket := bus.Subscribe(sharedEvents.BasketTopic, 1)

	evt := sharedEvents.IntegrationEvent{
		Type:  sharedEvents.ProductPriceChanged,
		Data:  json.RawMessage(`{"product_id":"x"}`),
		Key:   "p-1",
		Topic: sharedEvents.CatalogTopic,
	}
	require.NoError(t, bus.Publish(context.Background(), evt))

	select {
	case msg := <-catalog:
		assert.Equal(t, "p-1", msg.Key)
		var decoded sharedEvents.IntegrationEvent
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, sharedEvents.ProductPriceChanged, decoded.Type)
		assert.JSONEq(t, `{"product_id":"x"}`, string(decoded.Data))
	default:
		t.Fatal("expected message on catalog topic")
	}
	assert.Empty(t, basket)
}

func TestInMemoryEventBus_DropsWhenBufferFull(t *testing.T) {
	bus := NewInMemoryEventBus("default", zap.NewNop())
	ch := bus.Subscribe("default", 1)

	require.NoError(t, bus.Publish(context.Background(), map[string]string{"n": "1"}))
	require.NoError(t, bus.Publish(context.Background(), map[string]string{"n": "2"}))

	assert.Len(t, ch, 1)
}

type recordingHandler struct {
	mu   sync.Mutex
	keys []string
}

func (h *recordingHandler) HandleMessage(ctx context.Context, key string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.keys...)
}

func TestRunChannelConsumer_StopsOnCancel(t *testing.T) {
	ch := make(chan Message, 2)
	ch <- Message{Key: "a"}
	ch <- Message{Key: "b"}
	handler := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunChannelConsumer(ctx, ch, handler, zap.NewNop()) }()

	assert.Eventually(t, func() bool { return len(handler.seen()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, []string{"a", "b"}, handler.seen())
}
