package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts the configured driver names.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx", "pg", "supabase":
		return Postgres, nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported dialect %q", name)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "mysql"
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) quote(ident string) string {
	if d == Postgres {
		return `"` + ident + `"`
	}
	return "`" + ident + "`"
}

func (d Dialect) ilike(column, placeholder string) string {
	if d == Postgres {
		return column + " ILIKE " + placeholder
	}
	return "LOWER(" + column + ") LIKE LOWER(" + placeholder + ")"
}

func (d Dialect) orderTerm(column string, desc, nullsLast bool) []string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if !nullsLast {
		return []string{column + " " + dir}
	}
	if d == Postgres {
		return []string{column + " " + dir + " NULLS LAST"}
	}
	// MySQL sorts NULL first ascending; rank it explicitly.
	return []string{"(" + column + " IS NULL) ASC", column + " " + dir}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(needle string) string {
	return "%" + likeEscaper.Replace(needle) + "%"
}
