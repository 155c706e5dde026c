package domain

import (
	"time"

	"github.com/google/uuid"
)

// ---------------- Auditoría ----------------

// Audit agrupa los metadatos de creación/actualización.
// Empiezan a nil y solo los escribe el interceptor de auditoría al hacer commit.
type Audit struct {
	CreatedAt *time.Time `json:"created_at,omitempty"`
	CreatedBy *string    `json:"created_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	UpdatedBy *string    `json:"updated_by,omitempty"`
}

// ---------------- Entity ----------------

// Entity es la base de todo objeto con identidad.
type Entity struct {
	ID uuid.UUID `json:"id"`
	Audit
}

func (e *Entity) GetID() uuid.UUID { return e.ID }

// AuditInfo devuelve un puntero para que el interceptor pueda sellar los campos.
func (e *Entity) AuditInfo() *Audit { return &e.Audit }

// Auditable es la capacidad "Entity" que el Unit-of-Work sabe rastrear.
type Auditable interface {
	GetID() uuid.UUID
	AuditInfo() *Audit
	// EntityName identifica la colección/tabla y aparece en los errores NotFound.
	EntityName() string
}

// OwnedChangeReporter lo implementan los agregados con sub-objetos propios (p.ej. líneas de carrito).
type OwnedChangeReporter interface {
	HasChangedOwnedEntities() bool
	AcceptOwnedChanges()
}

// ---------------- Aggregate ----------------

// Aggregate añade la cola de eventos de dominio. La cola no está sincronizada:
// el agregado pertenece en exclusiva al Unit-of-Work que lo cargó.
type Aggregate struct {
	Entity
	events []DomainEvent
}

// RaiseEvent encola un evento (sin deduplicar ni límite).
func (a *Aggregate) RaiseEvent(evt DomainEvent) {
	a.events = append(a.events, evt)
}

// DrainEvents devuelve los eventos pendientes y vacía la cola.
func (a *Aggregate) DrainEvents() []DomainEvent {
	drained := a.events
	a.events = nil
	return drained
}

// PendingEvents devuelve una copia de la cola sin vaciarla.
func (a *Aggregate) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(a.events))
	copy(out, a.events)
	return out
}

func (a *Aggregate) HasEvents() bool { return len(a.events) > 0 }

// EventSource es la capacidad "Aggregate".
type EventSource interface {
	Auditable
	HasEvents() bool
	DrainEvents() []DomainEvent
}

// ---------------- Domain events ----------------

// DomainEvent es un registro inmutable de una transición ya ocurrida.
type DomainEvent interface {
	EventID() uuid.UUID
	OccurredAt() time.Time
	EventType() string
	AggregateID() uuid.UUID
}

// EventBase se embebe en los eventos concretos, que añaden un snapshot por valor del agregado.
type EventBase struct {
	ID        uuid.UUID `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	Type      string    `json:"event_type"`
	Aggregate uuid.UUID `json:"aggregate_id"`
}

func NewEventBase(eventType string, aggregateID uuid.UUID) EventBase {
	return EventBase{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Type:      eventType,
		Aggregate: aggregateID,
	}
}

func (e EventBase) EventID() uuid.UUID     { return e.ID }
func (e EventBase) OccurredAt() time.Time  { return e.CreatedAt }
func (e EventBase) EventType() string      { return e.Type }
func (e EventBase) AggregateID() uuid.UUID { return e.Aggregate }

// PartitionKey permite que los adapters de broker agrupen por agregado.
func (e EventBase) PartitionKey() string { return e.Aggregate.String() }
