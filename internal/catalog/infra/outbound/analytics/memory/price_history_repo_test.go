package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
)

func change(at time.Time, from, to int64) catalogDomain.PriceChange {
	return catalogDomain.PriceChange{
		ProductID: uuid.New(),
		OldPrice:  decimal.NewFromInt(from),
		NewPrice:  decimal.NewFromInt(to),
		ChangedAt: at,
	}
}

func TestGetDailyTrend_GroupsByDay(t *testing.T) {
	repo := NewPriceHistoryRepo()
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	require.NoError(t, repo.LogBatch(context.Background(), []catalogDomain.PriceChange{
		change(day1, 10, 12),
		change(day1.Add(time.Hour), 10, 8),
		change(day2, 5, 6),
		change(day2.Add(72*time.Hour), 5, 6),
	}))

	trend, err := repo.GetDailyTrend(context.Background(), day1.Add(-time.Hour), day2.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, trend, 2)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), trend[0].Day)
	assert.EqualValues(t, 2, trend[0].Changes)
	assert.EqualValues(t, 1, trend[0].Increases)
	assert.EqualValues(t, 1, trend[0].Decreases)
	assert.EqualValues(t, 1, trend[1].Changes)
	assert.Equal(t, 4, repo.Len())
}
