package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *Tx, evt domain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES (?, ?, ?, ?, ?, ?, FALSE)`,
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// ------------------ Repositorio del relayer ------------------

// OutboxRepo implementa domain.OutboxRepository para ambos dialectos.
type OutboxRepo struct {
	db      *sql.DB
	dialect Dialect
}

var _ domain.OutboxRepository = (*OutboxRepo)(nil)

func NewOutboxRepo(db *sql.DB, dialect Dialect) *OutboxRepo {
	return &OutboxRepo{db: db, dialect: dialect}
}

// FetchPendingOutbox obtiene los eventos no procesados en orden de creación.
func (r *OutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE processed = FALSE
		 ORDER BY created_at
		 LIMIT ?`), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			evt       domain.OutboxEvent
			payload   []byte
			createdAt time.Time
		)
		if err := rows.Scan(&evt.ID, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &payload, &createdAt); err != nil {
			return nil, err
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", evt.ID, err)
		}
		evt.Payload = decoded
		evt.CreatedAt = createdAt
		events = append(events, evt)
	}
	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE outbox SET processed = TRUE WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s as processed: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected for outbox event %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("no outbox event found with id %s", id)
	}
	return nil
}

// ------------------ Inicialización ------------------

// InitOutbox crea la tabla outbox si no existe.
func InitOutbox(ctx context.Context, db *sql.DB, d Dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS outbox (
		id %s PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload %s NOT NULL,
		created_at %s NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT FALSE
	)`, d.UUIDType(), d.JSONType(), d.TimestampType()))
	return err
}
