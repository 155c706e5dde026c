package mongostore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

// Fields traduce nombres de campo neutrales a rutas BSON ("user_name" -> "userName").
type Fields map[string]string

// BuildFilter traduce criterios neutrales a un filtro BSON.
// Los uuid se guardan como texto, así que se comparan como texto.
func BuildFilter(criteria domain.Criteria, fields Fields) (bson.D, error) {
	filter := bson.D{}
	if criteria == nil {
		return filter, nil
	}

	for _, c := range criteria.ToConditions() {
		path, ok := fields[c.Field]
		if !ok {
			return nil, fmt.Errorf("field %q is not filterable", c.Field)
		}
		value := c.Value
		if id, ok := value.(uuid.UUID); ok {
			value = id.String()
		}

		var cond interface{}
		switch c.Op {
		case domain.OpEq:
			cond = value
		case domain.OpNeq:
			cond = bson.M{"$ne": value}
		case domain.OpGt:
			cond = bson.M{"$gt": value}
		case domain.OpGte:
			cond = bson.M{"$gte": value}
		case domain.OpLt:
			cond = bson.M{"$lt": value}
		case domain.OpLte:
			cond = bson.M{"$lte": value}
		case domain.OpLike, domain.OpILike:
			pattern, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%s needs a string pattern", c.Op)
			}
			opts := ""
			if c.Op == domain.OpILike {
				opts = "i"
			}
			cond = primitive.Regex{Pattern: likeToRegex(pattern), Options: opts}
		default:
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		filter = append(filter, bson.E{Key: path, Value: cond})
	}
	return filter, nil
}

// BuildSort devuelve el orden BSON con desempate por _id.
func BuildSort(sort domain.Sort, fields Fields, fallback string) (bson.D, error) {
	field := sort.Field
	if field == "" {
		field = fallback
	}
	path, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("field %q is not sortable", field)
	}
	dir := 1
	if sort.Desc {
		dir = -1
	}
	return bson.D{{Key: path, Value: dir}, {Key: "_id", Value: dir}}, nil
}

func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
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
	return b.String()
}
