package expr

// ComparisonOperator identifies a binary comparison between two expressions.
// The operator carries no SQL text; each dialect decides how to spell it.
type ComparisonOperator string

// Supported comparison operators.
const (
	OpEq      ComparisonOperator = "eq"
	OpNeq     ComparisonOperator = "neq"
	OpLt      ComparisonOperator = "lt"
	OpLte     ComparisonOperator = "lte"
	OpGt      ComparisonOperator = "gt"
	OpGte     ComparisonOperator = "gte"
	OpLike    ComparisonOperator = "like"
	OpNotLike ComparisonOperator = "nlike"
)

// LogicalOperator combines boolean expressions.
type LogicalOperator string

// Supported logical combinators.
const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
	LogicalNot LogicalOperator = "not"
)

// AggregateFunc identifies an aggregate function.
type AggregateFunc string

// Supported aggregate functions.
const (
	AggCount AggregateFunc = "count"
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// SetOperator identifies a set operation between whole queries.
type SetOperator string

// Supported set operations.
const (
	SetUnion     SetOperator = "union"
	SetIntersect SetOperator = "intersect"
	SetExcept    SetOperator = "except"
)

// SortDirection specifies the direction for an ORDER BY term.
type SortDirection string

// Supported sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// NullsOrder places NULL values relative to the sorted rows. The zero value
// leaves placement to the database default.
type NullsOrder string

// Supported NULL placements.
const (
	NullsDefault NullsOrder = ""
	NullsFirst   NullsOrder = "first"
	NullsLast    NullsOrder = "last"
)

// OrderTerm is one element of an ORDER BY or window ordering list. Order is
// semantically significant, so callers always supply terms as an ordered
// slice, never a map.
type OrderTerm struct {
	Expr      Node
	Direction SortDirection
	Nulls     NullsOrder
}

// Asc builds an ascending order term.
func Asc(n Node) OrderTerm {
	return OrderTerm{Expr: n, Direction: SortAsc}
}

// Desc builds a descending order term.
func Desc(n Node) OrderTerm {
	return OrderTerm{Expr: n, Direction: SortDesc}
}

// WithNulls returns a copy of the term with explicit NULL placement.
func (t OrderTerm) WithNulls(order NullsOrder) OrderTerm {
	t.Nulls = order
	return t
}
