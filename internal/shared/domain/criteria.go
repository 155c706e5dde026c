package domain

import (
	"fmt"
	"strings"
)

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq    Operator = "="
	OpNeq   Operator = "<>"
	OpGt    Operator = ">"
	OpGte   Operator = ">="
	OpLt    Operator = "<"
	OpLte   Operator = "<="
	OpLike  Operator = "LIKE"
	OpILike Operator = "ILIKE"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

func (c Criterion) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// ToConditions permite usar un Criterion suelto como Criteria.
func (c Criterion) ToConditions() []Criterion { return []Criterion{c} }

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales
type Criteria interface {
	ToConditions() []Criterion
}

// Where es un atajo para una condición simple.
func Where(field string, op Operator, value interface{}) Criterion {
	return Criterion{Field: field, Op: op, Value: value}
}

// ---------------- Composite Criteria ----------------

// CompositeCriteria se aplana en condiciones AND; los adapters no soportan OR anidado.
type CompositeCriteria struct {
	Operator  LogicalOperator
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		if crit == nil {
			continue
		}
		all = append(all, crit.ToConditions()...)
	}
	return all
}

// ---------------- Helpers ----------------

// And crea un CompositeCriteria con operador AND
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpAnd, Criterias: criterias}
}

// Describe produce el texto que acompaña a un NotFound por predicado.
func Describe(c Criteria) string {
	if c == nil {
		return "<all>"
	}
	conds := c.ToConditions()
	if len(conds) == 0 {
		return "<all>"
	}
	parts := make([]string, len(conds))
	for i, cond := range conds {
		parts[i] = cond.String()
	}
	return strings.Join(parts, " AND ")
}
