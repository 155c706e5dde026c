package cqrs

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

type route struct {
	resType reflect.Type
	handle  func(ctx context.Context, req Request) (any, error)
}

// ValidateFunc es un validador con el tipo de la petición ya borrado.
type ValidateFunc func(ctx context.Context, req Request) []domain.FieldError

// Mediator encamina cada petición a su único handler a través del pipeline
// fijo: logging/timing (exterior) -> validación -> handler.
type Mediator struct {
	mu         sync.RWMutex
	routes     map[reflect.Type]route
	validators map[reflect.Type][]ValidateFunc
	behaviors  []Behavior
}

type options struct {
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*options)

// WithClock sustituye el reloj usado para medir la duración (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

func New(log *zap.Logger, opts ...Option) *Mediator {
	o := options{now: time.Now, tracer: otel.Tracer("hexashop/cqrs")}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Mediator{
		routes:     make(map[reflect.Type]route),
		validators: make(map[reflect.Type][]ValidateFunc),
	}
	m.behaviors = []Behavior{
		LoggingBehavior(log, o.now, o.tracer),
		ValidationBehavior(m.validatorsFor),
	}
	return m
}

// Register asocia el handler a Req. Registrar dos veces el mismo tipo es un error de cableado y hace panic.
func Register[Req Request, Res any](m *Mediator, h Handler[Req, Res]) {
	key := reflect.TypeFor[Req]()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.routes[key]; dup {
		panic(fmt.Sprintf("cqrs: handler already registered for %s", key))
	}
	m.routes[key] = route{
		resType: reflect.TypeFor[Res](),
		handle: func(ctx context.Context, req Request) (any, error) {
			return h.Handle(ctx, req.(Req))
		},
	}
}

// RegisterValidator añade un validador más para Req; se ejecutan todos.
func RegisterValidator[Req Request](m *Mediator, v Validator[Req]) {
	key := reflect.TypeFor[Req]()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.validators[key] = append(m.validators[key], func(ctx context.Context, req Request) []domain.FieldError {
		return v.Validate(ctx, req.(Req))
	})
}

// Send ejecuta la petición y devuelve un Result tipado. El handler y los validadores
// se eligen por el tipo dinámico de req, aunque llegue como Request.
func Send[Res any, Req Request](ctx context.Context, m *Mediator, req Req) domain.Result[Res] {
	key := reflect.TypeOf(any(req))
	if key == nil {
		return domain.Failure[Res](domain.NewInternalServerError("nil request"))
	}

	m.mu.RLock()
	r, ok := m.routes[key]
	m.mu.RUnlock()

	if !ok {
		return domain.Failure[Res](domain.NewInternalServerError("no handler registered", key.String()))
	}
	if want := reflect.TypeFor[Res](); r.resType != want {
		return domain.Failure[Res](domain.NewInternalServerError(
			"handler result type mismatch",
			fmt.Sprintf("%s returns %s, caller expects %s", key, r.resType, want),
		))
	}

	out, err := m.run(ctx, req, func(ctx context.Context) (any, error) {
		return r.handle(ctx, req)
	})
	if err != nil {
		return domain.Failure[Res](err)
	}

	res, _ := out.(Res)
	return domain.Success(res)
}

func (m *Mediator) run(ctx context.Context, req Request, handler Next) (any, error) {
	next := handler
	for i := len(m.behaviors) - 1; i >= 0; i-- {
		behavior, inner := m.behaviors[i], next
		next = func(ctx context.Context) (any, error) {
			return behavior(ctx, req, inner)
		}
	}
	return next(ctx)
}

func (m *Mediator) validatorsFor(req Request) []ValidateFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validators[reflect.TypeOf(req)]
}

// RequestName es el nombre corto del tipo usado en logs y spans.
func RequestName(req Request) string {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
