package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

// Tx envuelve *sql.Tx aplicando el Rebind del dialecto a cada sentencia.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) Dialect() Dialect { return t.dialect }

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

// Writer persiste un tipo de entidad dentro de la transacción del commit.
type Writer interface {
	Insert(ctx context.Context, tx *Tx, entity domain.Auditable) error
	Update(ctx context.Context, tx *Tx, entity domain.Auditable) error
	Delete(ctx context.Context, tx *Tx, entity domain.Auditable) error
}

// Store aplica cada Batch en una única transacción: cambios de entidades + filas de outbox.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     *zap.Logger

	mu      sync.RWMutex
	writers map[string]Writer
}

var _ persistence.Store = (*Store)(nil)

func New(db *sql.DB, dialect Dialect, log *zap.Logger) *Store {
	return &Store{db: db, dialect: dialect, log: log, writers: make(map[string]Writer)}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

// Register asocia un Writer al nombre de entidad (EntityName).
func (s *Store) Register(name string, w Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writers[name] = w
}

func (s *Store) writer(name string) (Writer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.writers[name]
	return w, ok
}

func (s *Store) Apply(ctx context.Context, batch persistence.Batch) (n int, err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	tx := &Tx{tx: sqlTx, dialect: s.dialect}

	for _, ch := range batch.Changes {
		w, ok := s.writer(ch.Name)
		if !ok {
			err = fmt.Errorf("no sql writer registered for %s", ch.Name)
			return 0, err
		}
		switch ch.State {
		case persistence.Added:
			err = w.Insert(ctx, tx, ch.Entity)
		case persistence.Modified:
			err = w.Update(ctx, tx, ch.Entity)
		case persistence.Deleted:
			err = w.Delete(ctx, tx, ch.Entity)
		}
		if err != nil {
			err = fmt.Errorf("%s %s %s: %w", ch.State, ch.Name, ch.Entity.GetID(), err)
			return 0, err
		}
		n++
	}

	for _, evt := range batch.Outbox {
		if err = insertOutboxTx(ctx, tx, evt); err != nil {
			return 0, err
		}
	}

	if err = sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tx: %w", err)
	}

	s.log.Debug("Batch aplicado", zap.Int("changes", n), zap.Int("outbox", len(batch.Outbox)))
	return n, nil
}

// RowsAffectedOrNotFound convierte un UPDATE/DELETE sin filas en NotFoundError.
func RowsAffectedOrNotFound(res sql.Result, entity domain.Auditable) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return domain.NewNotFoundError(entity.EntityName(), entity.GetID())
	}
	return nil
}
