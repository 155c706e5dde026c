// Package sqlstore implementa persistence.Store sobre database/sql (SQLite y Postgres).
package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect encapsula las diferencias entre SQLite y Postgres que afectan a las consultas.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", s)
	}
}

// DriverName es el nombre registrado en database/sql.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// Rebind traduce los placeholders '?' a '$n' en Postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Operator adapta operadores que SQLite no conoce (ILIKE -> LIKE, que ya es case-insensitive en ASCII).
func (d Dialect) Operator(op string) string {
	if d == SQLite && op == "ILIKE" {
		return "LIKE"
	}
	return op
}

// TimestampType, JSONType y UUIDType se usan en los CREATE TABLE de arranque.
func (d Dialect) TimestampType() string {
	if d == Postgres {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

func (d Dialect) JSONType() string {
	if d == Postgres {
		return "JSONB"
	}
	return "TEXT"
}

func (d Dialect) UUIDType() string {
	if d == Postgres {
		return "UUID"
	}
	return "TEXT"
}

// DecimalType en SQLite usa afinidad NUMERIC para que ordenar y comparar sea numérico.
func (d Dialect) DecimalType() string {
	if d == Postgres {
		return "NUMERIC(18,2)"
	}
	return "NUMERIC"
}
