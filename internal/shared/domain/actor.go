package domain

import "context"

// SystemActor se usa cuando la operación no viene de una petición identificada
// (consumidores, relayer, arranque).
const SystemActor = "system"

type actorKey struct{}

// WithActor guarda en el contexto la identidad a la que se atribuye la operación.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom devuelve el actor del contexto o SystemActor.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
