package memstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// Collection es el Reader en memoria de un tipo de entidad. P es el puntero a E
// para poder instanciar y decodificar cada fila.
type Collection[E any, P interface {
	*E
	domain.Auditable
}] struct {
	store *Store
	name  string
}

func NewCollection[E any, P interface {
	*E
	domain.Auditable
}](store *Store, name string) *Collection[E, P] {
	return &Collection[E, P]{store: store, name: name}
}

func (c *Collection[E, P]) Name() string { return c.name }

func (c *Collection[E, P]) Get(ctx context.Context, id uuid.UUID) (P, bool, error) {
	var zero P
	r, ok := c.store.row(c.name, id)
	if !ok {
		return zero, false, nil
	}
	entity, err := c.decode(r.data)
	if err != nil {
		return zero, false, err
	}
	return entity, true, nil
}

func (c *Collection[E, P]) FindOne(ctx context.Context, criteria domain.Criteria) (P, bool, error) {
	var zero P
	items, _, err := c.filter(criteria)
	if err != nil || len(items) == 0 {
		return zero, false, err
	}
	return items[0], true, nil
}

func (c *Collection[E, P]) List(ctx context.Context, criteria domain.Criteria, page domain.PageRequest) ([]P, int64, error) {
	items, docs, err := c.filter(criteria)
	if err != nil {
		return nil, 0, err
	}
	if page.Sort.Field != "" {
		sortDocs(items, docs, page.Sort)
	}

	total := int64(len(items))
	start := page.Offset()
	if start >= len(items) {
		return []P{}, total, nil
	}
	end := start + page.PageSize
	if page.PageSize <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}

func (c *Collection[E, P]) filter(criteria domain.Criteria) ([]P, []map[string]interface{}, error) {
	var conds []domain.Criterion
	if criteria != nil {
		conds = criteria.ToConditions()
	}

	var (
		items []P
		docs  []map[string]interface{}
	)
	for _, r := range c.store.rows(c.name) {
		var doc map[string]interface{}
		if err := json.Unmarshal(r.data, &doc); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		ok, err := matchesAll(doc, conds)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		entity, err := c.decode(r.data)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, entity)
		docs = append(docs, doc)
	}
	return items, docs, nil
}

func (c *Collection[E, P]) decode(data []byte) (P, error) {
	entity := P(new(E))
	if err := json.Unmarshal(data, entity); err != nil {
		var zero P
		return zero, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return entity, nil
}
