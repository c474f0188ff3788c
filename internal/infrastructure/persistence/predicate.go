package persistence

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"gorm.io/gorm"
)

// document is a decoded JSON body used for predicate evaluation
type document map[string]any

// lookup resolves a dotted field path such as "roles.admin"
func (d document) lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalize converts a Go value into the shape encoding/json produces for it,
// so time.Time becomes an RFC 3339 string and named string types become plain strings.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// compareValues orders two normalized values. ok is false when the values
// are of different kinds and have no defined order.
func compareValues(a, b any) (c int, ok bool) {
	switch av := a.(type) {
	case nil:
		if b == nil {
			return 0, true
		}
	case float64:
		if bv, isNum := b.(float64); isNum {
			return cmp.Compare(av, bv), true
		}
	case bool:
		if bv, isBool := b.(bool); isBool {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
	case string:
		if bv, isStr := b.(string); isStr {
			if at, aerr := time.Parse(time.RFC3339Nano, av); aerr == nil {
				if bt, berr := time.Parse(time.RFC3339Nano, bv); berr == nil {
					return at.Compare(bt), true
				}
			}
			return strings.Compare(av, bv), true
		}
	}
	return 0, false
}

func equalValues(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compiledFilter is a filter whose value has been normalized once per query
type compiledFilter struct {
	field string
	op    shared.Operator
	value any
	set   []any
}

func compileFilters(filters []shared.Filter) ([]compiledFilter, error) {
	out := make([]compiledFilter, 0, len(filters))
	for _, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, shared.NewValidationError(f.Field, "filter value is not encodable")
		}
		cf := compiledFilter{field: f.Field, op: f.Op, value: v}
		if f.Op == shared.OpIn || f.Op == shared.OpNotIn {
			set, isSlice := v.([]any)
			if !isSlice {
				return nil, shared.NewValidationError(f.Field, string(f.Op)+" requires a list value")
			}
			cf.set = set
		}
		out = append(out, cf)
	}
	return out, nil
}

// matches mirrors the document-store rule that a record missing the field
// never satisfies a predicate on it.
func (f compiledFilter) matches(doc document) bool {
	got, ok := doc.lookup(f.field)
	if !ok {
		return false
	}
	switch f.op {
	case shared.OpEqual:
		return equalValues(got, f.value)
	case shared.OpNotEqual:
		return !equalValues(got, f.value)
	case shared.OpIn:
		return slices.ContainsFunc(f.set, func(v any) bool { return equalValues(got, v) })
	case shared.OpNotIn:
		return !slices.ContainsFunc(f.set, func(v any) bool { return equalValues(got, v) })
	}

	c, comparable := compareValues(got, f.value)
	if !comparable {
		return false
	}
	switch f.op {
	case shared.OpLess:
		return c < 0
	case shared.OpLessOrEqual:
		return c <= 0
	case shared.OpGreater:
		return c > 0
	case shared.OpGreaterOrEqual:
		return c >= 0
	}
	return false
}

// row pairs a decoded record with its raw body
type row[T any] struct {
	record T
	doc    document
}

// applyQuery filters, orders and limits rows already in store order
func applyQuery[T any](rows []row[T], q shared.Query) ([]T, error) {
	filters, err := compileFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	kept := make([]row[T], 0, len(rows))
	for _, r := range rows {
		if q.Order != nil {
			if _, ok := r.doc.lookup(q.Order.Field); !ok {
				continue
			}
		}
		if allMatch(filters, r.doc) {
			kept = append(kept, r)
		}
	}

	if q.Order != nil {
		field, desc := q.Order.Field, q.Order.Direction == shared.Desc
		slices.SortStableFunc(kept, func(a, b row[T]) int {
			av, _ := a.doc.lookup(field)
			bv, _ := b.doc.lookup(field)
			c, _ := compareValues(av, bv)
			if desc {
				return -c
			}
			return c
		})
	}

	if q.Max > 0 && len(kept) > q.Max {
		kept = kept[:q.Max]
	}

	out := make([]T, len(kept))
	for i, r := range kept {
		out[i] = r.record
	}
	return out, nil
}

func allMatch(filters []compiledFilter, doc document) bool {
	for _, f := range filters {
		if !f.matches(doc) {
			return false
		}
	}
	return true
}

var plainField = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// pushDownEquality narrows the row scan with string equality filters on
// top-level fields. The in-memory pass still evaluates every filter, so
// this only reduces the rows loaded.
func pushDownEquality(tx *gorm.DB, filters []shared.Filter) *gorm.DB {
	for _, f := range filters {
		if f.Op != shared.OpEqual || !plainField.MatchString(f.Field) {
			continue
		}
		v, err := normalize(f.Value)
		if err != nil {
			continue
		}
		s, isString := v.(string)
		if !isString {
			continue
		}
		if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
			// instants compare chronologically, not textually
			continue
		}
		switch tx.Dialector.Name() {
		case "postgres":
			tx = tx.Where(fmt.Sprintf("(data::jsonb) ->> '%s' = ?", f.Field), s)
		case "sqlite":
			tx = tx.Where(fmt.Sprintf("json_extract(data, '$.%s') = ?", f.Field), s)
		}
	}
	return tx
}
