// Package persistence contiene el Unit-of-Work, sus interceptores y las búsquedas tipadas.
package persistence

import (
	"context"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// State es el estado de seguimiento de una entidad dentro del Unit-of-Work.
type State int

const (
	Unchanged State = iota
	Added
	Modified
	Deleted
)

func (s State) String() string {
	switch s {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// Change es una escritura física que el Store debe aplicar.
type Change struct {
	Name   string
	State  State
	Entity domain.Auditable
}

// Batch es todo lo que un commit escribe: cambios de entidades y eventos de outbox.
type Batch struct {
	Changes []Change
	Outbox  []domain.OutboxEvent
}

func (b Batch) Empty() bool { return len(b.Changes) == 0 && len(b.Outbox) == 0 }

// Store aplica un Batch de forma atómica (una transacción del backend) y devuelve
// el número de entidades escritas. Si devuelve error no se ha persistido nada.
type Store interface {
	Apply(ctx context.Context, batch Batch) (int, error)
}
