// Package datastore defines the backend-neutral select API the storefront
// reads through. Backends live in sub-packages.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Table names.
const (
	TableCategories         = "categories"
	TableOccasions          = "occasions"
	TableProducts           = "products"
	TableProductImages      = "product_images"
	TableProductOccasions   = "product_occasions"
	TableProductsWithDetail = "products_with_details"
	TableSections           = "homepage_sections"
	TableSectionItems       = "homepage_section_items"
)

// Operator is a predicate comparison.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpIn    Operator = "in"
	OpILike Operator = "ilike"
	OpGte   Operator = "gte"
	OpLte   Operator = "lte"
)

// Filter is a single predicate. For OpIn, Value is a []any or []string. For
// OpILike, Value is the plain substring to look for; backends add wildcards.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Order is one ordering key. NullsLast puts rows with a null Field after every
// non-null row regardless of direction.
type Order struct {
	Field     string
	Desc      bool
	NullsLast bool
}

// Range selects rows [Offset, Offset+Limit).
type Range struct {
	Offset int
	Limit  int
}

// Query is a single-table select. Filters are ANDed; each Any group is an OR of
// its filters, and groups are ANDed with Filters.
type Query struct {
	Table   string
	Filters []Filter
	Any     [][]Filter
	Orders  []Order
	Range   *Range
	Count   bool
}

// Row is one record keyed by column name.
type Row map[string]any

// Result carries the selected rows. Total is the number of rows matching the
// predicates before Range is applied; it is only set when Query.Count is true.
type Result struct {
	Rows  []Row
	Total int
}

// Client executes selects against a backing store.
type Client interface {
	Select(ctx context.Context, q Query) (Result, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, q Query) (Result, error)

// Select implements Client.
func (f ClientFunc) Select(ctx context.Context, q Query) (Result, error) {
	return f(ctx, q)
}

var (
	ErrInvalidQuery        = errors.New("datastore: invalid query")
	ErrUnsupportedOperator = errors.New("datastore: unsupported operator")
)

// Eq, In and the other helpers build filters.
func Eq(field string, value any) Filter    { return Filter{Field: field, Op: OpEq, Value: value} }
func Neq(field string, value any) Filter   { return Filter{Field: field, Op: OpNeq, Value: value} }
func In(field string, values ...any) Filter { return Filter{Field: field, Op: OpIn, Value: values} }
func ILike(field, needle string) Filter    { return Filter{Field: field, Op: OpILike, Value: needle} }
func Gte(field string, value any) Filter   { return Filter{Field: field, Op: OpGte, Value: value} }
func Lte(field string, value any) Filter   { return Filter{Field: field, Op: OpLte, Value: value} }

// Validate checks identifiers, operators and range bounds. Backends call it
// before translating the query, so identifiers are safe to splice into SQL.
func (q Query) Validate() error {
	if !validIdentifier(q.Table) {
		return fmt.Errorf("%w: table %q", ErrInvalidQuery, q.Table)
	}
	for _, f := range q.Filters {
		if err := f.validate(); err != nil {
			return err
		}
	}
	for _, group := range q.Any {
		if len(group) == 0 {
			return fmt.Errorf("%w: empty OR group", ErrInvalidQuery)
		}
		for _, f := range group {
			if err := f.validate(); err != nil {
				return err
			}
		}
	}
	for _, o := range q.Orders {
		if !validIdentifier(o.Field) {
			return fmt.Errorf("%w: order field %q", ErrInvalidQuery, o.Field)
		}
	}
	if q.Range != nil && (q.Range.Offset < 0 || q.Range.Limit < 0) {
		return fmt.Errorf("%w: negative range", ErrInvalidQuery)
	}
	return nil
}

func (f Filter) validate() error {
	if !validIdentifier(f.Field) {
		return fmt.Errorf("%w: filter field %q", ErrInvalidQuery, f.Field)
	}
	switch f.Op {
	case OpEq, OpNeq, OpGte, OpLte:
	case OpIn:
		if _, ok := InValues(f.Value); !ok {
			return fmt.Errorf("%w: %s requires a list value", ErrInvalidQuery, f.Op)
		}
	case OpILike:
		if _, ok := f.Value.(string); !ok {
			return fmt.Errorf("%w: %s requires a string value", ErrInvalidQuery, f.Op)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedOperator, f.Op)
	}
	return nil
}

// InValues normalises the value of an OpIn filter.
func InValues(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func validIdentifier(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return !strings.HasPrefix(name, "__")
}
