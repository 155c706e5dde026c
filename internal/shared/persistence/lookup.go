package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// FindByKey carga por clave primaria o devuelve NotFoundError. Si el Unit-of-Work ya
// rastrea la entidad se devuelve esa misma instancia.
func FindByKey[T domain.Auditable](ctx context.Context, uow *UnitOfWork, reader domain.Reader[T], id uuid.UUID) (T, error) {
	var zero T

	if uow != nil {
		if e := uow.lookupByID(reader.Name(), id.String()); e != nil {
			if e.State == Deleted {
				return zero, domain.NewNotFoundError(reader.Name(), id)
			}
			if tracked, ok := e.Entity.(T); ok {
				return tracked, nil
			}
		}
	}

	entity, found, err := reader.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("load %s %s: %w", reader.Name(), id, err)
	}
	if !found {
		return zero, domain.NewNotFoundError(reader.Name(), id)
	}
	return attach(uow, entity), nil
}

// FindSingle carga la única entidad que cumple el criterio o devuelve NotFoundError con
// la descripción del predicado. Si hay más de una coincidencia falla con InternalServer.
// Con noTracking la entidad no se rastrea (lecturas).
func FindSingle[T domain.Auditable](ctx context.Context, uow *UnitOfWork, reader domain.Reader[T], criteria domain.Criteria, noTracking bool) (T, error) {
	var zero T

	// Basta con pedir dos filas para saber si el criterio es ambiguo.
	matches, total, err := reader.List(ctx, criteria, domain.PageRequest{PageSize: 2})
	if err != nil {
		return zero, fmt.Errorf("find %s: %w", reader.Name(), err)
	}
	if len(matches) == 0 {
		return zero, domain.NewNotFoundErrorBy(reader.Name(), "criteria", domain.Describe(criteria))
	}
	if total > 1 || len(matches) > 1 {
		return zero, domain.NewInternalServerError(
			fmt.Sprintf("more than one %s matches criteria", reader.Name()), domain.Describe(criteria))
	}
	entity := matches[0]
	if noTracking || uow == nil {
		return entity, nil
	}

	if e := uow.lookupByID(reader.Name(), entity.GetID().String()); e != nil && e.State == Deleted {
		return zero, domain.NewNotFoundErrorBy(reader.Name(), "criteria", domain.Describe(criteria))
	}
	return attach(uow, entity), nil
}

// FindPage ejecuta la lectura paginada: (elementos, total).
func FindPage[T domain.Auditable](ctx context.Context, reader domain.Reader[T], criteria domain.Criteria, page domain.PageRequest) (domain.Page[T], error) {
	page = page.Normalize()
	items, total, err := reader.List(ctx, criteria, page)
	if err != nil {
		return domain.Page[T]{}, fmt.Errorf("list %s: %w", reader.Name(), err)
	}
	if items == nil {
		items = []T{}
	}
	return domain.Page[T]{PageIndex: page.PageIndex, PageSize: page.PageSize, Count: total, Data: items}, nil
}

func attach[T domain.Auditable](uow *UnitOfWork, entity T) T {
	if uow == nil {
		return entity
	}
	if tracked, ok := uow.Attach(entity).(T); ok {
		return tracked
	}
	return entity
}
