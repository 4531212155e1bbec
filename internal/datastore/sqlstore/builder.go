package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

// Statement is rendered SQL with positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

type builder struct {
	dialect Dialect
	args    []any
}

func (b *builder) bind(value any) string {
	b.args = append(b.args, value)
	return b.dialect.placeholder(len(b.args))
}

// Build renders q as a select and, when q.Count is set, a matching count
// statement. q must already be valid.
func Build(d Dialect, q datastore.Query) (Statement, *Statement, error) {
	if err := q.Validate(); err != nil {
		return Statement{}, nil, err
	}

	where, whereArgs, err := buildWhere(d, q)
	if err != nil {
		return Statement{}, nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(d.quote(q.Table))
	sb.WriteString(where)
	if len(q.Orders) > 0 {
		terms := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			terms = append(terms, d.orderTerm(d.quote(o.Field), o.Desc, o.NullsLast)...)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	if q.Range != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.Range.Limit))
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(q.Range.Offset))
	}
	selectStmt := Statement{SQL: sb.String(), Args: whereArgs}

	if !q.Count {
		return selectStmt, nil, nil
	}
	countStmt := &Statement{
		SQL:  "SELECT COUNT(*) FROM " + d.quote(q.Table) + where,
		Args: append([]any(nil), whereArgs...),
	}
	return selectStmt, countStmt, nil
}

func buildWhere(d Dialect, q datastore.Query) (string, []any, error) {
	b := &builder{dialect: d}
	clauses := make([]string, 0, len(q.Filters)+len(q.Any))
	for _, f := range q.Filters {
		clause, err := b.predicate(f)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
	}
	for _, group := range q.Any {
		ors := make([]string, 0, len(group))
		for _, f := range group {
			clause, err := b.predicate(f)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, clause)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), b.args, nil
}

func (b *builder) predicate(f datastore.Filter) (string, error) {
	col := b.dialect.quote(f.Field)
	switch f.Op {
	case datastore.OpEq:
		return col + " = " + b.bind(f.Value), nil
	case datastore.OpNeq:
		return col + " <> " + b.bind(f.Value), nil
	case datastore.OpGte:
		return col + " >= " + b.bind(f.Value), nil
	case datastore.OpLte:
		return col + " <= " + b.bind(f.Value), nil
	case datastore.OpIn:
		values, _ := datastore.InValues(f.Value)
		if len(values) == 0 {
			return "1 = 0", nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = b.bind(v)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")", nil
	case datastore.OpILike:
		needle, _ := f.Value.(string)
		return b.dialect.ilike(col, b.bind(likePattern(needle))), nil
	default:
		return "", fmt.Errorf("%w: %q", datastore.ErrUnsupportedOperator, f.Op)
	}
}
