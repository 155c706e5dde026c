package memstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// ---------------- Evaluación de criterios sobre documentos JSON ----------------

func matchesAll(doc map[string]interface{}, conds []domain.Criterion) (bool, error) {
	for _, c := range conds {
		ok, err := matches(doc, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// matches se cumple si alguno de los valores del campo cumple la condición.
// Los campos con puntos recorren objetos anidados y aplanan arrays ("items.product_id").
func matches(doc map[string]interface{}, c domain.Criterion) (bool, error) {
	want, err := normalize(c.Value)
	if err != nil {
		return false, fmt.Errorf("criterion %s: %w", c.Field, err)
	}

	for _, got := range resolve(doc, strings.Split(c.Field, ".")) {
		ok, err := apply(c.Op, got, want)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func resolve(value interface{}, path []string) []interface{} {
	if arr, ok := value.([]interface{}); ok {
		var out []interface{}
		for _, item := range arr {
			out = append(out, resolve(item, path)...)
		}
		return out
	}
	if len(path) == 0 {
		return []interface{}{value}
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	next, ok := obj[path[0]]
	if !ok {
		return nil
	}
	return resolve(next, path[1:])
}

// normalize lleva el valor del criterio a la misma forma que tiene en el documento.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func apply(op domain.Operator, got, want interface{}) (bool, error) {
	switch op {
	case domain.OpLike, domain.OpILike:
		pattern, ok := want.(string)
		if !ok {
			return false, fmt.Errorf("%s needs a string pattern", op)
		}
		s, ok := got.(string)
		if !ok {
			return false, nil
		}
		re, err := likeRegexp(pattern, op == domain.OpILike)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	}

	cmp, ok := compare(got, want)
	if !ok {
		return op == domain.OpNeq, nil
	}
	switch op {
	case domain.OpEq:
		return cmp == 0, nil
	case domain.OpNeq:
		return cmp != 0, nil
	case domain.OpGt:
		return cmp > 0, nil
	case domain.OpGte:
		return cmp >= 0, nil
	case domain.OpLt:
		return cmp < 0, nil
	case domain.OpLte:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func likeRegexp(pattern string, insensitive bool) (*regexp.Regexp, error) {
	var b strings.Builder
	if insensitive {
		b.WriteString("(?i)")
	}
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// compare devuelve (-1|0|1, true) si los valores son comparables.
// Números y decimales serializados como texto se comparan como decimal; fechas RFC3339 como fechas.
func compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}
	if da, ok := asDecimal(a); ok {
		if db, ok := asDecimal(b); ok {
			return da.Cmp(db), true
		}
	}
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb), true
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0, true
			}
			if !av {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func asDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func asTime(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

// ---------------- Orden ----------------

type byField[P any] struct {
	items []P
	docs  []map[string]interface{}
	field []string
	desc  bool
}

func (s byField[P]) Len() int { return len(s.items) }

func (s byField[P]) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.docs[i], s.docs[j] = s.docs[j], s.docs[i]
}

func (s byField[P]) Less(i, j int) bool {
	a, b := first(resolve(s.docs[i], s.field)), first(resolve(s.docs[j], s.field))
	cmp, ok := compare(a, b)
	if !ok {
		return false
	}
	if s.desc {
		return cmp > 0
	}
	return cmp < 0
}

func first(values []interface{}) interface{} {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

func sortDocs[P any](items []P, docs []map[string]interface{}, by domain.Sort) {
	sort.Stable(byField[P]{items: items, docs: docs, field: strings.Split(by.Field, "."), desc: by.Desc})
}
