// Package memstore es un persistence.Store en memoria: guarda cada entidad serializada en JSON,
// aplica los Batch de forma atómica y expone la outbox al relayer.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

type record struct {
	seq  uint64
	data []byte
}

type table map[string]record

func (t table) clone() table {
	out := make(table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// sorted devuelve las filas en orden de inserción.
func (t table) sorted() []record {
	rows := make([]record, 0, len(t))
	for _, r := range t {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	return rows
}

type Store struct {
	mu       sync.RWMutex
	tables   map[string]table
	outbox   []domain.OutboxEvent
	seq      uint64
	failNext error
	log      *zap.Logger
}

var (
	_ persistence.Store       = (*Store)(nil)
	_ domain.OutboxRepository = (*Store)(nil)
)

func New(log *zap.Logger) *Store {
	return &Store{tables: make(map[string]table), log: log}
}

// FailNextApply hace que el siguiente Apply falle sin escribir nada.
func (s *Store) FailNextApply(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) Apply(ctx context.Context, batch persistence.Batch) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return 0, err
	}

	// Se trabaja sobre copias y solo se publican si todo el batch es válido.
	staged := make(map[string]table)
	seq := s.seq
	stage := func(name string) table {
		if t, ok := staged[name]; ok {
			return t
		}
		t := s.tables[name].clone()
		staged[name] = t
		return t
	}

	for _, ch := range batch.Changes {
		t := stage(ch.Name)
		key := ch.Entity.GetID().String()
		_, exists := t[key]

		switch ch.State {
		case persistence.Added:
			if exists {
				return 0, fmt.Errorf("%s %s already exists", ch.Name, key)
			}
			data, err := json.Marshal(ch.Entity)
			if err != nil {
				return 0, fmt.Errorf("marshal %s %s: %w", ch.Name, key, err)
			}
			seq++
			t[key] = record{seq: seq, data: data}
		case persistence.Modified:
			if !exists {
				return 0, domain.NewNotFoundError(ch.Name, ch.Entity.GetID())
			}
			data, err := json.Marshal(ch.Entity)
			if err != nil {
				return 0, fmt.Errorf("marshal %s %s: %w", ch.Name, key, err)
			}
			t[key] = record{seq: t[key].seq, data: data}
		case persistence.Deleted:
			if !exists {
				return 0, domain.NewNotFoundError(ch.Name, ch.Entity.GetID())
			}
			delete(t, key)
		}
	}

	outbox := make([]domain.OutboxEvent, 0, len(batch.Outbox))
	for _, evt := range batch.Outbox {
		// Se normaliza el payload igual que al leerlo de una columna JSON.
		raw, err := json.Marshal(evt.Payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal outbox payload: %w", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return 0, fmt.Errorf("outbox payload must be a JSON object: %w", err)
		}
		evt.Payload = decoded
		outbox = append(outbox, evt)
	}

	for name, t := range staged {
		s.tables[name] = t
	}
	s.seq = seq
	s.outbox = append(s.outbox, outbox...)

	s.log.Debug("Batch aplicado en memoria", zap.Int("changes", len(batch.Changes)), zap.Int("outbox", len(outbox)))
	return len(batch.Changes), nil
}

func (s *Store) rows(name string) []record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[name].sorted()
}

func (s *Store) row(name string, id uuid.UUID) (record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tables[name][id.String()]
	return r, ok
}

// Count devuelve cuántas entidades hay guardadas con ese nombre.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[name])
}

// ------------------ Outbox ------------------

func (s *Store) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []domain.OutboxEvent
	for _, evt := range s.outbox {
		if evt.Processed {
			continue
		}
		events = append(events, evt)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *Store) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].ID == id {
			s.outbox[i].Processed = true
			return nil
		}
	}
	return fmt.Errorf("no outbox event found with id %s", id)
}
