package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// ---------------- Agregado de prueba ----------------

type widgetSnapshot struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type widgetEvent struct {
	domain.EventBase
	Widget widgetSnapshot `json:"widget"`
}

type widget struct {
	domain.Aggregate
	Name string `json:"name"`
}

func (w *widget) EntityName() string { return "Widget" }

func newWidget(name string) *widget {
	w := &widget{Aggregate: domain.Aggregate{Entity: domain.Entity{ID: uuid.New()}}, Name: name}
	w.raise("widget.created")
	return w
}

func (w *widget) rename(name string) {
	w.Name = name
	w.raise("widget.renamed")
}

func (w *widget) raise(eventType string) {
	w.RaiseEvent(widgetEvent{
		EventBase: domain.NewEventBase(eventType, w.ID),
		Widget:    widgetSnapshot{ID: w.ID, Name: w.Name},
	})
}

// ---------------- Store de prueba ----------------

type fakeStore struct {
	batches []Batch
	err     error
}

func (s *fakeStore) Apply(ctx context.Context, batch Batch) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, batch)
	return len(batch.Changes), nil
}

// ---------------- Publisher de prueba ----------------

type recordingPublisher struct {
	published []domain.DomainEvent
	err       error
	failOn    string
	onPublish func(ctx context.Context, evt domain.DomainEvent)
}

func (p *recordingPublisher) Publish(ctx context.Context, evt domain.DomainEvent) error {
	if p.onPublish != nil {
		p.onPublish(ctx, evt)
	}
	if p.err != nil && (p.failOn == "" || p.failOn == evt.EventType()) {
		return p.err
	}
	p.published = append(p.published, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.published))
	for i, e := range p.published {
		out[i] = e.EventType()
	}
	return out
}

// ---------------- Reader de prueba ----------------

type fakeReader struct {
	rows map[uuid.UUID]*widget
}

func (r *fakeReader) Name() string { return "Widget" }

func (r *fakeReader) Get(ctx context.Context, id uuid.UUID) (*widget, bool, error) {
	w, ok := r.rows[id]
	if !ok {
		return nil, false, nil
	}
	cp := *w
	return &cp, true, nil
}

func (r *fakeReader) FindOne(ctx context.Context, c domain.Criteria) (*widget, bool, error) {
	matches, err := r.filter(c)
	if err != nil || len(matches) == 0 {
		return nil, false, err
	}
	return matches[0], true, nil
}

func (r *fakeReader) List(ctx context.Context, c domain.Criteria, p domain.PageRequest) ([]*widget, int64, error) {
	matches, err := r.filter(c)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(matches))
	if p.PageSize > 0 && len(matches) > p.PageSize {
		matches = matches[:p.PageSize]
	}
	return matches, total, nil
}

// filter solo entiende igualdad sobre "name"; criterio nil devuelve todo.
func (r *fakeReader) filter(c domain.Criteria) ([]*widget, error) {
	var conds []domain.Criterion
	if c != nil {
		conds = c.ToConditions()
	}
	for _, cond := range conds {
		if cond.Field != "name" {
			return nil, errors.New("unsupported field")
		}
	}
	var out []*widget
	for _, w := range r.rows {
		keep := true
		for _, cond := range conds {
			if w.Name != cond.Value {
				keep = false
			}
		}
		if keep {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}
