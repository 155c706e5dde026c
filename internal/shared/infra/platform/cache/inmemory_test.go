package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedProduct struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()
	p := cachedProduct{ID: uuid.New(), Name: "Laptop"}
	key := KeyByID("product", p.ID)

	require.NoError(t, c.Set(ctx, key, p, 0))

	var got cachedProduct
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, p, got)

	require.NoError(t, c.Delete(ctx, key))
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_ExpiredIsMiss(t *testing.T) {
	c := NewInMemoryCache(time.Nanosecond, time.Hour)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	time.Sleep(time.Millisecond)

	var v string
	hit, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAsyncCacheSet_EventuallyWrites(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()

	AsyncCacheSet(c, "k", "v", 0, zap.NewNop())

	assert.Eventually(t, func() bool {
		var v string
		hit, _ := c.Get(context.Background(), "k", &v)
		return hit && v == "v"
	}, time.Second, 5*time.Millisecond)
}

func TestAsyncHelpers_NilCacheIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		AsyncCacheSet(nil, "k", "v", 0, zap.NewNop())
		AsyncCacheDelete(nil, "k", zap.NewNop())
	})
}

func TestKeyByID(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-6d8e-4e3a-9d0b-3c4f1a2b3c4d")
	assert.Equal(t, "product:6f1c2a52-6d8e-4e3a-9d0b-3c4f1a2b3c4d", KeyByID("product", id))
}
