package cqrs

import (
	"context"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// ValidationBehavior ejecuta todos los validadores del tipo concreto. Si alguno falla,
// corta el pipeline con un único ValidationError que contiene todos los fallos.
func ValidationBehavior(lookup func(Request) []ValidateFunc) Behavior {
	return func(ctx context.Context, req Request, next Next) (any, error) {
		validators := lookup(req)
		if len(validators) == 0 {
			return next(ctx)
		}

		var failures []domain.FieldError
		for _, validate := range validators {
			failures = append(failures, validate(ctx, req)...)
		}
		if len(failures) > 0 {
			return nil, domain.NewValidationError(failures...)
		}
		return next(ctx)
	}
}
