package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
)

// PriceHistoryRepo es el histórico de precios en memoria (sin ClickHouse).
type PriceHistoryRepo struct {
	mu      sync.RWMutex
	changes []catalogDomain.PriceChange
}

var _ catalogDomain.PriceHistoryRepository = (*PriceHistoryRepo)(nil)

func NewPriceHistoryRepo() *PriceHistoryRepo {
	return &PriceHistoryRepo{}
}

func (r *PriceHistoryRepo) LogBatch(ctx context.Context, changes []catalogDomain.PriceChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changes...)
	return nil
}

func (r *PriceHistoryRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]catalogDomain.DailyPriceTrend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[time.Time]*catalogDomain.DailyPriceTrend)
	for _, c := range r.changes {
		if c.ChangedAt.Before(start) || c.ChangedAt.After(end) {
			continue
		}
		at := c.ChangedAt.UTC()
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		t, ok := byDay[day]
		if !ok {
			t = &catalogDomain.DailyPriceTrend{Day: day}
			byDay[day] = t
		}
		t.Changes++
		switch {
		case c.IsIncrease():
			t.Increases++
		case c.NewPrice.LessThan(c.OldPrice):
			t.Decreases++
		}
	}

	out := make([]catalogDomain.DailyPriceTrend, 0, len(byDay))
	for _, t := range byDay {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// Len devuelve cuántos cambios hay registrados.
func (r *PriceHistoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.changes)
}
