// Package store defines the query options shared by every persistence store.
package store

// Option refines a Query. Domain packages build their own typed options on
// top of the generic ones here.
type Option func(*Query)

// Query is what a store lookup asks for: filters, sort order and a window.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
	offset     int
}

// Build applies options in order.
func Build(options ...Option) Query {
	var q Query
	for _, opt := range options {
		opt(&q)
	}
	return q
}

// Conditions returns a copy of the filters.
func (q Query) Conditions() []Condition {
	return append([]Condition(nil), q.conditions...)
}

// Orders returns a copy of the sort keys, most significant first.
func (q Query) Orders() []Order {
	return append([]Order(nil), q.orders...)
}

// Limit is the maximum number of rows. Zero means no limit.
func (q Query) Limit() int { return q.limit }

// Offset is the number of rows to skip.
func (q Query) Offset() int { return q.offset }

// Op is how a condition compares its column.
type Op string

// Op values.
const (
	OpEqual    Op = "="
	OpIn       Op = "IN"
	OpContains Op = "CONTAINS"
	// OpRaw is a SQL fragment with bind arguments.
	OpRaw Op = "RAW"
)

// Condition is one filter.
type Condition struct {
	op    Op
	field string
	value any
	args  []any
}

// Op returns the comparison.
func (c Condition) Op() Op { return c.op }

// Field returns the column, or the SQL fragment for OpRaw.
func (c Condition) Field() string { return c.field }

// Value returns the compared value.
func (c Condition) Value() any { return c.value }

// Args returns the bind arguments of an OpRaw condition.
func (c Condition) Args() []any { return append([]any(nil), c.args...) }

// Order is one sort key.
type Order struct {
	field      string
	descending bool
}

// Field returns the sorted column.
func (o Order) Field() string { return o.field }

// Descending reports a DESC sort.
func (o Order) Descending() bool { return o.descending }

func where(c Condition) Option {
	return func(q *Query) { q.conditions = append(q.conditions, c) }
}

// WithCondition filters on field = value.
func WithCondition(field string, value any) Option {
	return where(Condition{op: OpEqual, field: field, value: value})
}

// WithConditionIn filters on field IN values. values must be a slice.
func WithConditionIn(field string, values any) Option {
	return where(Condition{op: OpIn, field: field, value: values})
}

// WithContains filters on a case-insensitive substring of field.
func WithContains(field, text string) Option {
	return where(Condition{op: OpContains, field: field, value: text})
}

// WithWhere adds a SQL fragment with bind arguments.
func WithWhere(clause string, args ...any) Option {
	return where(Condition{op: OpRaw, field: clause, args: args})
}

// WithID filters by primary key.
func WithID(id string) Option { return WithCondition("id", id) }

// WithIDIn filters by a set of primary keys.
func WithIDIn(ids []string) Option { return WithConditionIn("id", ids) }

// WithSlug filters by slug.
func WithSlug(slug string) Option { return WithCondition("slug", slug) }

// WithOrderAsc sorts ascending on field.
func WithOrderAsc(field string) Option {
	return func(q *Query) { q.orders = append(q.orders, Order{field: field}) }
}

// WithOrderDesc sorts descending on field.
func WithOrderDesc(field string) Option {
	return func(q *Query) { q.orders = append(q.orders, Order{field: field, descending: true}) }
}

// WithLimit caps the number of rows.
func WithLimit(n int) Option {
	return func(q *Query) { q.limit = n }
}

// WithPage selects limit rows after skipping offset.
func WithPage(limit, offset int) Option {
	return func(q *Query) {
		q.limit = limit
		q.offset = offset
	}
}
