package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Cache define la interfaz para una caché de clave-valor genérica.
type Cache interface {
	// Get intenta poblar 'dest' (que debe ser un puntero) con el valor asociado a la 'key'.
	// Devuelve (true, nil) si hay un 'hit' y (false, nil) si es un 'miss'.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor con un TTL en segundos (0 = TTL por defecto).
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}

// KeyByID construye claves homogéneas del tipo "product:<uuid>".
func KeyByID(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}
