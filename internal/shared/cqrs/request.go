// Package cqrs implementa el mediador de comandos y consultas con sus behaviors.
package cqrs

import (
	"context"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// Intent distingue intención de escritura y de lectura.
type Intent string

const (
	IntentCommand Intent = "command"
	IntentQuery   Intent = "query"
)

// Request lo cumple cualquier struct que embeba Command o Query.
type Request interface {
	Intent() Intent
}

// Command se embebe en las peticiones que cambian estado.
type Command struct{}

func (Command) Intent() Intent { return IntentCommand }

// Query se embebe en las peticiones de solo lectura.
type Query struct{}

func (Query) Intent() Intent { return IntentQuery }

// Redactor lo implementan las peticiones con datos sensibles: el log usa Redacted()
// en lugar de la petición.
type Redactor interface {
	Redacted() any
}

// ---------------- Handlers ----------------

// Handler ejecuta la lógica de negocio de un tipo de petición concreto.
type Handler[Req Request, Res any] interface {
	Handle(ctx context.Context, req Req) (Res, error)
}

type HandlerFunc[Req Request, Res any] func(ctx context.Context, req Req) (Res, error)

func (f HandlerFunc[Req, Res]) Handle(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

// ---------------- Validators ----------------

// Validator devuelve los fallos de campo encontrados; vacío significa válido.
type Validator[Req Request] interface {
	Validate(ctx context.Context, req Req) []domain.FieldError
}

type ValidatorFunc[Req Request] func(ctx context.Context, req Req) []domain.FieldError

func (f ValidatorFunc[Req]) Validate(ctx context.Context, req Req) []domain.FieldError {
	return f(ctx, req)
}

// ---------------- Behaviors ----------------

// Next invoca la siguiente etapa del pipeline.
type Next func(ctx context.Context) (any, error)

// Behavior envuelve la ejecución de un handler (logging, validación...).
type Behavior func(ctx context.Context, req Request, next Next) (any, error)
