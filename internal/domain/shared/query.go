package shared

import "fmt"

// Operator is a filter comparison understood by every backend.
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpIn             Operator = "in"
	OpNotIn          Operator = "not-in"
)

// Valid reports whether op is a known operator
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpIn, OpNotIn:
		return true
	}
	return false
}

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter is a single predicate on a document field.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Order is the ordering key of a query.
type Order struct {
	Field     string
	Direction Direction
}

// Query describes which records of a collection to return.
// The zero value matches every record in store order.
type Query struct {
	Filters []Filter
	Order   *Order
	Max     int
}

// NewQuery starts an empty query
func NewQuery() Query {
	return Query{}
}

// Where adds a predicate
func (q Query) Where(field string, op Operator, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sets the ordering key
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Order = &Order{Field: field, Direction: dir}
	return q
}

// Limit caps the number of results. Zero means no limit.
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

// Validate checks the query is well formed
func (q Query) Validate() error {
	for _, f := range q.Filters {
		if f.Field == "" {
			return NewValidationError("filter", "field is required")
		}
		if !f.Op.Valid() {
			return NewValidationError("filter", fmt.Sprintf("unsupported operator %q", f.Op))
		}
	}
	if q.Order != nil && q.Order.Direction != Asc && q.Order.Direction != Desc {
		return NewValidationError("order", fmt.Sprintf("unsupported direction %q", q.Order.Direction))
	}
	if q.Max < 0 {
		return NewValidationError("limit", "must not be negative")
	}
	return nil
}
