// Package expr defines the immutable expression nodes that make up the
// structure of a query, together with the Dialect interface that turns them
// into SQL text. The split is the engine's central invariant: expression
// nodes define structure, dialects generate syntax. A node never holds a
// rendered SQL string, and a literal value only ever reaches a statement as
// a bind parameter.
package expr

import (
	"github.com/asaidimu/go-jenga/core/types"
)

// Node is one immutable unit of query structure. Render delegates every
// syntactic decision to the dialect carried by the writer; nodes perform no
// string assembly of their own.
type Node interface {
	Render(w *Writer) error
}

// Renderable is implemented by whole queries so they can appear as
// subqueries or set-operation operands without the expression layer
// depending on the assembler types.
type Renderable interface {
	RenderInto(w *Writer) error
}

// Column references a column, optionally qualified by table and carrying an
// alias for use in a select list.
type Column struct {
	Table string
	Name  string
	Alias string
}

// Col references an unqualified column.
func Col(name string) *Column {
	return &Column{Name: name}
}

// ColOf references a table-qualified column.
func ColOf(table, name string) *Column {
	return &Column{Table: table, Name: name}
}

// As returns a copy of the column carrying an alias. The receiver is not
// modified.
func (c *Column) As(alias string) *Column {
	return &Column{Table: c.Table, Name: c.Name, Alias: alias}
}

// Render implements Node.
func (c *Column) Render(w *Writer) error {
	return w.Dialect().FormatColumn(w, c)
}

// Literal is a caller-supplied value tagged with its logical type. It always
// renders to a placeholder with the value appended to the parameter list;
// this is the engine's sole injection defense and holds unconditionally.
type Literal struct {
	Value any
	Type  types.LogicalType

	inferErr error
}

// Value wraps a native Go value, inferring its logical type. Inference
// failures surface as construction errors at render time.
func Value(v any) *Literal {
	t, err := types.Infer(v)
	return &Literal{Value: v, Type: t, inferErr: err}
}

// TypedValue wraps a value with an explicit logical type.
func TypedValue(v any, t types.LogicalType) *Literal {
	return &Literal{Value: v, Type: t}
}

// Render implements Node.
func (l *Literal) Render(w *Writer) error {
	if l.inferErr != nil {
		return l.inferErr
	}
	return w.Dialect().FormatLiteral(w, l)
}

// Comparison applies a binary comparison operator to two expressions.
type Comparison struct {
	Left  Node
	Op    ComparisonOperator
	Right Node
}

// Render implements Node.
func (c *Comparison) Render(w *Writer) error {
	return w.Dialect().FormatComparison(w, c)
}

// Eq compares two expressions for equality.
func Eq(left, right Node) *Comparison { return &Comparison{Left: left, Op: OpEq, Right: right} }

// Neq compares two expressions for inequality.
func Neq(left, right Node) *Comparison { return &Comparison{Left: left, Op: OpNeq, Right: right} }

// Lt builds a less-than comparison.
func Lt(left, right Node) *Comparison { return &Comparison{Left: left, Op: OpLt, Right: right} }

// Lte builds a less-than-or-equal comparison.
func Lte(left, right Node) *Comparison { return &Comparison{Left: left, Op: OpLte, Right: right} }

// Gt builds a greater-than comparison.
func Gt(left, right Node) *Comparison { return &Comparison{Left: left, Op: OpGt, Right: right} }

// Gte builds a greater-than-or-equal comparison.
func Gte(left, right Node) *Comparison { return &Comparison{Left: left, Op: OpGte, Right: right} }

// Contains matches rows whose column contains the substring.
func Contains(col Node, s string) *Comparison {
	return &Comparison{Left: col, Op: OpLike, Right: TypedValue("%"+escapeLike(s)+"%", types.Text)}
}

// StartsWith matches rows whose column starts with the prefix.
func StartsWith(col Node, s string) *Comparison {
	return &Comparison{Left: col, Op: OpLike, Right: TypedValue(escapeLike(s)+"%", types.Text)}
}

// EndsWith matches rows whose column ends with the suffix.
func EndsWith(col Node, s string) *Comparison {
	return &Comparison{Left: col, Op: OpLike, Right: TypedValue("%"+escapeLike(s), types.Text)}
}

// escapeLike neutralizes LIKE wildcards inside a caller-supplied fragment.
// The value still travels as a bind parameter; this only keeps user text
// from acting as a pattern.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Logical combines child expressions under AND, OR, or NOT. Composition is
// explicit tree structure; per-child parenthesization is the dialect's call.
type Logical struct {
	Op       LogicalOperator
	Operands []Node
}

// Render implements Node.
func (l *Logical) Render(w *Writer) error {
	return w.Dialect().FormatLogical(w, l)
}

// And conjoins expressions.
func And(operands ...Node) *Logical { return &Logical{Op: LogicalAnd, Operands: operands} }

// Or disjoins expressions.
func Or(operands ...Node) *Logical { return &Logical{Op: LogicalOr, Operands: operands} }

// Not negates a single expression.
func Not(operand Node) *Logical { return &Logical{Op: LogicalNot, Operands: []Node{operand}} }

// In tests membership of an expression in a list of values.
type In struct {
	Target Node
	Values []Node
	Negate bool
}

// Render implements Node.
func (n *In) Render(w *Writer) error {
	return w.Dialect().FormatIn(w, n)
}

// InList matches rows whose target is one of the values.
func InList(target Node, values ...Node) *In {
	return &In{Target: target, Values: values}
}

// NotInList matches rows whose target is none of the values.
func NotInList(target Node, values ...Node) *In {
	return &In{Target: target, Values: values, Negate: true}
}

// Between tests whether an expression falls inclusively between two bounds.
type Between struct {
	Target Node
	Low    Node
	High   Node
	Negate bool
}

// Render implements Node.
func (b *Between) Render(w *Writer) error {
	return w.Dialect().FormatBetween(w, b)
}

// InRange matches rows whose target lies between low and high inclusive.
func InRange(target, low, high Node) *Between {
	return &Between{Target: target, Low: low, High: high}
}

// NullCheck tests an expression against NULL.
type NullCheck struct {
	Target Node
	Negate bool
}

// Render implements Node.
func (n *NullCheck) Render(w *Writer) error {
	return w.Dialect().FormatNullCheck(w, n)
}

// IsNull matches rows whose target is NULL.
func IsNull(target Node) *NullCheck { return &NullCheck{Target: target} }

// IsNotNull matches rows whose target is not NULL.
func IsNotNull(target Node) *NullCheck { return &NullCheck{Target: target, Negate: true} }

// Aggregate applies an aggregate function to an argument expression. A nil
// argument renders as the star form, e.g. COUNT(*).
type Aggregate struct {
	Func     AggregateFunc
	Arg      Node
	Distinct bool
	Alias    string
}

// Render implements Node.
func (a *Aggregate) Render(w *Writer) error {
	return w.Dialect().FormatAggregate(w, a)
}

// Count aggregates the count of non-null argument values.
func Count(arg Node) *Aggregate { return &Aggregate{Func: AggCount, Arg: arg} }

// CountAll aggregates the row count, COUNT(*).
func CountAll() *Aggregate { return &Aggregate{Func: AggCount} }

// Sum aggregates the sum of the argument.
func Sum(arg Node) *Aggregate { return &Aggregate{Func: AggSum, Arg: arg} }

// Avg aggregates the mean of the argument.
func Avg(arg Node) *Aggregate { return &Aggregate{Func: AggAvg, Arg: arg} }

// Min aggregates the minimum of the argument.
func Min(arg Node) *Aggregate { return &Aggregate{Func: AggMin, Arg: arg} }

// Max aggregates the maximum of the argument.
func Max(arg Node) *Aggregate { return &Aggregate{Func: AggMax, Arg: arg} }

// As returns a copy of the aggregate carrying a result alias.
func (a *Aggregate) As(alias string) *Aggregate {
	return &Aggregate{Func: a.Func, Arg: a.Arg, Distinct: a.Distinct, Alias: alias}
}

// DistinctAgg returns a copy of the aggregate applying DISTINCT to its
// argument.
func (a *Aggregate) DistinctAgg() *Aggregate {
	return &Aggregate{Func: a.Func, Arg: a.Arg, Distinct: true, Alias: a.Alias}
}

// WindowFunc applies a window function over a partition and ordering.
type WindowFunc struct {
	Func        string
	Args        []Node
	PartitionBy []Node
	OrderBy     []OrderTerm
	Alias       string
}

// Render implements Node.
func (f *WindowFunc) Render(w *Writer) error {
	return w.Dialect().FormatWindowFunc(w, f)
}

// Over builds a window function application. The partition and order lists
// may be empty but their element order is preserved exactly as supplied.
func Over(fn string, args []Node, partitionBy []Node, orderBy []OrderTerm) *WindowFunc {
	return &WindowFunc{Func: fn, Args: args, PartitionBy: partitionBy, OrderBy: orderBy}
}

// As returns a copy of the window function carrying a result alias.
func (f *WindowFunc) As(alias string) *WindowFunc {
	return &WindowFunc{Func: f.Func, Args: f.Args, PartitionBy: f.PartitionBy, OrderBy: f.OrderBy, Alias: alias}
}

// FuncCall applies a scalar SQL function to its arguments.
type FuncCall struct {
	Name  string
	Args  []Node
	Alias string
}

// Render implements Node.
func (f *FuncCall) Render(w *Writer) error {
	return w.Dialect().FormatFuncCall(w, f)
}

// Call builds a scalar function application.
func Call(name string, args ...Node) *FuncCall {
	return &FuncCall{Name: name, Args: args}
}

// WhenThen is one branch of a Case expression.
type WhenThen struct {
	When Node
	Then Node
}

// Case is a conditional expression with ordered WHEN branches and an
// optional ELSE.
type Case struct {
	Whens []WhenThen
	Else  Node
	Alias string
}

// Render implements Node.
func (c *Case) Render(w *Writer) error {
	return w.Dialect().FormatCase(w, c)
}

// CTERef references a common table expression by name. The reference is
// resolved against the names declared in the current rendering; an
// undeclared name is a construction error.
type CTERef struct {
	Name string
}

// RefCTE references a CTE by name.
func RefCTE(name string) *CTERef { return &CTERef{Name: name} }

// Render implements Node.
func (r *CTERef) Render(w *Writer) error {
	return w.Dialect().FormatCTERef(w, r)
}

// Subquery embeds a whole query as an expression.
type Subquery struct {
	Body  Renderable
	Alias string
}

// Sub embeds a query as a subquery expression.
func Sub(body Renderable) *Subquery { return &Subquery{Body: body} }

// Render implements Node.
func (s *Subquery) Render(w *Writer) error {
	return w.Dialect().FormatSubquery(w, s)
}
