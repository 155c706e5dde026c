package domain

import (
	"context"

	"github.com/google/uuid"
)

// ---------- Paginación / ordenamiento ----------

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "name", "created_at"
	Desc  bool
}

// PageRequest es una paginación por offset basada en índice de página (0-based).
type PageRequest struct {
	PageIndex int  `json:"page_index"`
	PageSize  int  `json:"page_size"`
	Sort      Sort `json:"-"`
}

// Normalize aplica los límites por defecto.
func (p PageRequest) Normalize() PageRequest {
	if p.PageIndex < 0 {
		p.PageIndex = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int { return p.PageIndex * p.PageSize }

// Page es el resultado paginado: elementos de la página y total de coincidencias.
type Page[T any] struct {
	PageIndex int   `json:"page_index"`
	PageSize  int   `json:"page_size"`
	Count     int64 `json:"count"`
	Data      []T   `json:"data"`
}

// MapPage transforma los elementos conservando los metadatos.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{PageIndex: p.PageIndex, PageSize: p.PageSize, Count: p.Count, Data: make([]U, 0, len(p.Data))}
	for _, item := range p.Data {
		out.Data = append(out.Data, fn(item))
	}
	return out
}

// ---------- Puerto de lectura ----------

// Reader es el lado de consulta de un almacén para un tipo de entidad.
// found=false sin error significa "no existe". FindOne devuelve la primera coincidencia
// aunque haya varias; para exigir unicidad se usa persistence.FindSingle.
type Reader[T Auditable] interface {
	Name() string
	Get(ctx context.Context, id uuid.UUID) (entity T, found bool, err error)
	FindOne(ctx context.Context, criteria Criteria) (entity T, found bool, err error)
	List(ctx context.Context, criteria Criteria, page PageRequest) (items []T, total int64, err error)
}
