package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// Interceptor se ejecuta justo antes de la escritura física del commit.
type Interceptor interface {
	SavingChanges(ctx context.Context, uow *UnitOfWork) error
}

type InterceptorFunc func(ctx context.Context, uow *UnitOfWork) error

func (f InterceptorFunc) SavingChanges(ctx context.Context, uow *UnitOfWork) error {
	return f(ctx, uow)
}

// ---------------- Auditoría ----------------

// ActorProvider resuelve la identidad a la que se atribuye la operación.
type ActorProvider interface {
	CurrentActor(ctx context.Context) string
}

type ActorFunc func(ctx context.Context) string

func (f ActorFunc) CurrentActor(ctx context.Context) string { return f(ctx) }

// ContextActor lee el actor que el transporte dejó en el contexto (domain.WithActor).
var ContextActor ActorProvider = ActorFunc(domain.ActorFrom)

// AuditInterceptor sella los campos de auditoría. Debe ir el primero de la cadena.
// Cada entrada se sella una sola vez por commit aunque la cadena dé varias vueltas.
type AuditInterceptor struct {
	now    func() time.Time
	actors ActorProvider
}

func NewAuditInterceptor(now func() time.Time, actors ActorProvider) *AuditInterceptor {
	if now == nil {
		now = time.Now
	}
	if actors == nil {
		actors = ContextActor
	}
	return &AuditInterceptor{now: now, actors: actors}
}

func (a *AuditInterceptor) SavingChanges(ctx context.Context, uow *UnitOfWork) error {
	now := a.now().UTC()
	actor := a.actors.CurrentActor(ctx)

	for _, e := range uow.Entries() {
		if !e.dirty() || e.State == Deleted || !uow.markAudited(e) {
			continue
		}
		audit := e.Entity.AuditInfo()
		if e.State == Added {
			audit.CreatedAt = ptr(now)
			audit.CreatedBy = ptr(actor)
		}
		audit.UpdatedAt = ptr(now)
		audit.UpdatedBy = ptr(actor)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// ---------------- Despacho de eventos de dominio ----------------

// Publisher entrega un evento a todos los suscriptores de su tipo y espera a que terminen.
type Publisher interface {
	Publish(ctx context.Context, evt domain.DomainEvent) error
}

// DispatchDomainEventsInterceptor drena TODAS las colas antes de publicar, y publica
// de uno en uno. Un fallo aborta el commit; lo ya publicado no se deshace.
type DispatchDomainEventsInterceptor struct {
	publisher Publisher
}

func NewDispatchDomainEventsInterceptor(publisher Publisher) *DispatchDomainEventsInterceptor {
	return &DispatchDomainEventsInterceptor{publisher: publisher}
}

func (d *DispatchDomainEventsInterceptor) SavingChanges(ctx context.Context, uow *UnitOfWork) error {
	var pending []domain.DomainEvent
	for _, agg := range uow.Aggregates() {
		if agg.HasEvents() {
			pending = append(pending, agg.DrainEvents()...)
		}
	}

	for _, evt := range pending {
		if err := d.publisher.Publish(ctx, evt); err != nil {
			return fmt.Errorf("dispatch %s (%s): %w", evt.EventType(), evt.EventID(), err)
		}
	}
	return nil
}

// DefaultInterceptors devuelve la cadena en el orden obligatorio: auditoría y después despacho.
func DefaultInterceptors(now func() time.Time, actors ActorProvider, publisher Publisher) []Interceptor {
	return []Interceptor{
		NewAuditInterceptor(now, actors),
		NewDispatchDomainEventsInterceptor(publisher),
	}
}
