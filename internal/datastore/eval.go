package datastore

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/platform/textutil"
)

// Evaluate applies q to rows in memory. Backends without native support for
// part of the query (case-insensitive substring search, nulls-last ordering)
// run the remainder through it. rows is not modified.
func Evaluate(rows []Row, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if Matches(row, q.Filters, q.Any) {
			matched = append(matched, row)
		}
	}

	if len(q.Orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessRows(matched[i], matched[j], q.Orders)
		})
	}

	result := Result{}
	if q.Count {
		result.Total = len(matched)
	}
	if q.Range != nil {
		start := q.Range.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.Range.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	result.Rows = make([]Row, len(matched))
	for i, row := range matched {
		result.Rows[i] = cloneRow(row)
	}
	return result, nil
}

// Matches reports whether row satisfies every filter and at least one filter of each group.
func Matches(row Row, filters []Filter, groups [][]Filter) bool {
	for _, f := range filters {
		if !matchFilter(row, f) {
			return false
		}
	}
	for _, group := range groups {
		satisfied := false
		for _, f := range group {
			if matchFilter(row, f) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

func matchFilter(row Row, f Filter) bool {
	value, present := row[f.Field]
	if !present || value == nil {
		// SQL semantics: comparisons against NULL are never true.
		return false
	}
	switch f.Op {
	case OpEq:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp == 0
	case OpNeq:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp != 0
	case OpGte:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp >= 0
	case OpLte:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp <= 0
	case OpIn:
		candidates, _ := InValues(f.Value)
		for _, candidate := range candidates {
			if cmp, ok := compareValues(value, candidate); ok && cmp == 0 {
				return true
			}
		}
		return false
	case OpILike:
		needle, _ := f.Value.(string)
		haystack, ok := textutil.String(value)
		return ok && textutil.ContainsFold(haystack, needle)
	default:
		return false
	}
}

func lessRows(a, b Row, orders []Order) bool {
	for _, o := range orders {
		av, bv := a[o.Field], b[o.Field]
		aNull, bNull := av == nil, bv == nil
		switch {
		case aNull && bNull:
			continue
		case aNull || bNull:
			// Nulls compare greater than any value unless NullsLast pins them to the end.
			if o.NullsLast || !o.Desc {
				return bNull
			}
			return aNull
		}
		cmp, ok := compareValues(av, bv)
		if !ok || cmp == 0 {
			continue
		}
		if o.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// compareValues orders two non-nil scalars. Numbers (including decimals and
// numeric strings compared against numbers), times, booleans and strings are
// supported; strings compare case-folded.
func compareValues(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := textutil.Time(b)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	if bt, ok := b.(time.Time); ok {
		at, ok := textutil.Time(a)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	if ab, ok := a.(bool); ok {
		bb, ok := textutil.Bool(b)
		if !ok {
			return 0, false
		}
		return compareBools(ab, bb), true
	}
	if bb, ok := b.(bool); ok {
		ab, ok := textutil.Bool(a)
		if !ok {
			return 0, false
		}
		return compareBools(ab, bb), true
	}
	_, aString := a.(string)
	_, bString := b.(string)
	if !aString || !bString {
		if ad, ok := toDecimal(a); ok {
			if bd, ok := toDecimal(b); ok {
				return ad.Cmp(bd), true
			}
		}
	}
	as, aok := textutil.String(a)
	bs, bok := textutil.String(b)
	if !aok || !bok {
		return 0, false
	}
	if at, ok := textutil.Time(as); ok && looksLikeTimestamp(as) {
		if bt, ok := textutil.Time(bs); ok {
			return at.Compare(bt), true
		}
	}
	return strings.Compare(textutil.Fold(as), textutil.Fold(bs)), true
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case decimal.NullDecimal:
		return d.Decimal, d.Valid
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(d))
		return parsed, err == nil
	}
	f, ok := textutil.Float(v)
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

func looksLikeTimestamp(s string) bool {
	return len(s) >= 10 && s[4] == '-' && s[7] == '-'
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
