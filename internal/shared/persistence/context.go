package persistence

import (
	"context"

	"go.uber.org/zap"
)

type uowKey struct{}

// WithUnitOfWork expone el Unit-of-Work en curso a los suscriptores de eventos de dominio.
func WithUnitOfWork(ctx context.Context, uow *UnitOfWork) context.Context {
	return context.WithValue(ctx, uowKey{}, uow)
}

// FromContext devuelve el Unit-of-Work en curso, si lo hay.
func FromContext(ctx context.Context) (*UnitOfWork, bool) {
	uow, ok := ctx.Value(uowKey{}).(*UnitOfWork)
	return uow, ok
}

// ---------------- Factory ----------------

// Factory crea un Unit-of-Work nuevo por operación lógica, todos contra el mismo Store.
type Factory struct {
	store        Store
	interceptors []Interceptor
	log          *zap.Logger
}

func NewFactory(store Store, log *zap.Logger, interceptors ...Interceptor) *Factory {
	return &Factory{store: store, interceptors: interceptors, log: log}
}

func (f *Factory) New() *UnitOfWork {
	return newUnitOfWork(f.store, f.interceptors, f.log)
}
