package sqlstore

import (
	"fmt"
	"strings"

	"github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/infra/utils"
)

// Columns es la lista blanca de campos filtrables/ordenables de una tabla.
// El valor es la expresión SQL del campo; si contiene %s es una plantilla completa
// que recibe el operador y lleva su propio placeholder (ej. subconsultas sobre tablas hijas).
type Columns map[string]string

// NewColumns crea la lista blanca con campos que coinciden con su columna.
func NewColumns(names ...string) Columns {
	c := make(Columns, len(names))
	for _, n := range names {
		c[n] = n
	}
	return c
}

// With añade un campo con una expresión propia.
func (c Columns) With(field, expr string) Columns {
	c[field] = expr
	return c
}

// BuildWhere traduce criterios neutrales a SQL con placeholders '?'.
func BuildWhere(d Dialect, criteria domain.Criteria, allowed Columns) (string, []interface{}, error) {
	if criteria == nil {
		return "", nil, nil
	}
	conds := criteria.ToConditions()
	clauses := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds))
	for _, c := range conds {
		expr, ok := allowed[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("field %q is not filterable", c.Field)
		}
		op := d.Operator(string(c.Op))
		if strings.Contains(expr, "%s") {
			clauses = append(clauses, fmt.Sprintf(expr, op))
		} else {
			clauses = append(clauses, fmt.Sprintf("%s %s ?", expr, op))
		}
		args = append(args, c.Value)
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// BuildOrder produce "ORDER BY ..." con desempate por id para que la paginación sea estable.
func BuildOrder(sort domain.Sort, allowed Columns, fallback string) (string, error) {
	field := utils.Ternary(sort.Field == "", fallback, sort.Field)
	expr, ok := allowed[field]
	if !ok || strings.Contains(expr, "%s") {
		return "", fmt.Errorf("field %q is not sortable", field)
	}
	dir := utils.Ternary(sort.Desc, "DESC", "ASC")
	return fmt.Sprintf(" ORDER BY %s %s, id %s", expr, dir, dir), nil
}

// BuildPage añade LIMIT/OFFSET.
func BuildPage(page domain.PageRequest) (string, []interface{}) {
	return " LIMIT ? OFFSET ?", []interface{}{page.PageSize, page.Offset()}
}
