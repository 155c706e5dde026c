package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
)

// PriceHistoryRepo guarda el histórico de precios en ClickHouse.
type PriceHistoryRepo struct {
	db *sql.DB
}

var _ catalogDomain.PriceHistoryRepository = (*PriceHistoryRepo)(nil)

func NewPriceHistoryRepo(ctx context.Context, addr string, dbName string) (*PriceHistoryRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return &PriceHistoryRepo{db: conn}, nil
}

func (r *PriceHistoryRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// LogBatch inserta un lote de cambios. ClickHouse funciona mejor con inserciones en lotes.
func (r *PriceHistoryRepo) LogBatch(ctx context.Context, changes []catalogDomain.PriceChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO product_price_log (product_id, name, old_price, new_price, changed_at, event_time)")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	eventTime := time.Now().UTC()
	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx,
			c.ProductID,
			c.Name,
			c.OldPrice.String(),
			c.NewPrice.String(),
			c.ChangedAt,
			eventTime,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to exec statement for product %s: %w", c.ProductID, err)
		}
	}
	return tx.Commit()
}

func (r *PriceHistoryRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]catalogDomain.DailyPriceTrend, error) {
	query := `
		SELECT
			toStartOfDay(changed_at) AS day,
			count() AS changes,
			countIf(toDecimal64(new_price, 2) > toDecimal64(old_price, 2)) AS increases,
			countIf(toDecimal64(new_price, 2) < toDecimal64(old_price, 2)) AS decreases
		FROM product_price_log
		WHERE changed_at BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []catalogDomain.DailyPriceTrend
	for rows.Next() {
		var t catalogDomain.DailyPriceTrend
		if err := rows.Scan(&t.Day, &t.Changes, &t.Increases, &t.Decreases); err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *PriceHistoryRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS product_price_log (
			product_id UUID,
			name       String,
			old_price  String,
			new_price  String,
			changed_at DateTime64(3),
			event_time DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(changed_at)
		ORDER BY (product_id, changed_at);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}
