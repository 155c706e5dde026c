package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

// ProductReader es el lado de lectura del almacén de productos.
type ProductReader = sharedDomain.Reader[*Product]

// PriceChange es una fila del histórico de precios (analítica).
type PriceChange struct {
	ProductID uuid.UUID
	Name      string
	OldPrice  decimal.Decimal
	NewPrice  decimal.Decimal
	ChangedAt time.Time
}

func (c PriceChange) IsIncrease() bool { return c.NewPrice.GreaterThan(c.OldPrice) }

// DailyPriceTrend agrega los cambios de precio de un día.
type DailyPriceTrend struct {
	Day       time.Time `json:"day"`
	Changes   uint64    `json:"changes"`
	Increases uint64    `json:"increases"`
	Decreases uint64    `json:"decreases"`
}

// PriceHistoryRepository guarda y consulta el histórico de precios.
type PriceHistoryRepository interface {
	LogBatch(ctx context.Context, changes []PriceChange) error
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyPriceTrend, error)
}
