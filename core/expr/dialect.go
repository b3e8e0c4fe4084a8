package expr

// Capabilities enumerates the constructs a dialect can render. The query
// assemblers consult these flags to fail fast with a capability error
// instead of emitting SQL the backend would reject.
type Capabilities struct {
	CTE                       bool
	RecursiveCTE              bool
	WindowFunctions           bool
	Returning                 bool
	Savepoints                bool
	RowLocking                bool
	IntersectExcept           bool
	NullsOrdering             bool
	ParenthesizedSetOperands  bool
	RequiresLimitBeforeOffset bool
}

// Dialect renders expression nodes into backend-specific SQL syntax. One
// implementation exists per backend. Implementations are stateless and safe
// to share across concurrent renderings; for a given node, rendering is a
// pure function of the node and the dialect.
//
// Dispatch is static: one Format method per node variant, so adding a
// variant breaks every dialect at compile time rather than at runtime.
type Dialect interface {
	// Name identifies the dialect, e.g. "sqlite".
	Name() string

	// QuoteIdentifier quotes a table or column name. Dynamic identifiers
	// supplied by calling code must pass through here, never through a
	// literal.
	QuoteIdentifier(name string) string

	// Placeholder returns the bind placeholder for the n-th parameter,
	// counting from 1 in final rendered order ("?" or "$1" style).
	Placeholder(n int) string

	// Capabilities reports which constructs this dialect can render.
	Capabilities() Capabilities

	FormatColumn(w *Writer, c *Column) error
	FormatLiteral(w *Writer, l *Literal) error
	FormatComparison(w *Writer, c *Comparison) error
	FormatLogical(w *Writer, l *Logical) error
	FormatIn(w *Writer, n *In) error
	FormatBetween(w *Writer, b *Between) error
	FormatNullCheck(w *Writer, n *NullCheck) error
	FormatAggregate(w *Writer, a *Aggregate) error
	FormatWindowFunc(w *Writer, f *WindowFunc) error
	FormatFuncCall(w *Writer, f *FuncCall) error
	FormatCase(w *Writer, c *Case) error
	FormatCTERef(w *Writer, r *CTERef) error
	FormatSubquery(w *Writer, s *Subquery) error

	// FormatLikeEscape renders the ESCAPE clause that fixes backslash as
	// the pattern escape character for every LIKE comparison. Declaring it
	// explicitly keeps pattern escaping identical across backends; SQLite
	// in particular has no default escape character at all.
	FormatLikeEscape(w *Writer)

	// FormatLimitOffset renders pagination. Values are bound, not inlined.
	// A nil limit with a non-nil offset is rejected on dialects whose
	// syntax requires LIMIT to precede OFFSET.
	FormatLimitOffset(w *Writer, limit, offset *int64) error

	// FormatSetOperator returns the keyword joining set-operation operands.
	FormatSetOperator(op SetOperator, all bool) (string, error)

	// FormatLockingClause renders a row-locking suffix (FOR UPDATE) or
	// fails with a capability error.
	FormatLockingClause(w *Writer) error
}
