package expr

import (
	"strconv"
	"strings"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/types"
)

// ANSI provides the shared ANSI-SQL rendering that the concrete dialects
// embed. Methods reach quoting, placeholders, and capability flags through
// the writer's dialect, so a dialect that embeds ANSI only overrides what it
// spells differently.
type ANSI struct{}

// comparisonSQL maps the closed operator set to ANSI spellings.
var comparisonSQL = map[ComparisonOperator]string{
	OpEq:      "=",
	OpNeq:     "!=",
	OpLt:      "<",
	OpLte:     "<=",
	OpGt:      ">",
	OpGte:     ">=",
	OpLike:    "LIKE",
	OpNotLike: "NOT LIKE",
}

// FormatColumn renders an optionally table-qualified column reference.
func (ANSI) FormatColumn(w *Writer, c *Column) error {
	if c.Name == "" {
		return dberr.New(dberr.KindConstruction, w.Dialect().Name(), "column reference with empty name")
	}
	if c.Table != "" {
		w.WriteIdentifier(c.Table)
		w.WriteString(".")
	}
	if c.Name == "*" {
		w.WriteString("*")
		return nil
	}
	w.WriteIdentifier(c.Name)
	return nil
}

// FormatLiteral binds the literal's value; it never appears in the SQL text.
func (ANSI) FormatLiteral(w *Writer, l *Literal) error {
	return w.Bind(l.Value, l.Type)
}

// FormatComparison renders a binary comparison.
func (ANSI) FormatComparison(w *Writer, c *Comparison) error {
	op, ok := comparisonSQL[c.Op]
	if !ok {
		return dberr.New(dberr.KindConstruction, w.Dialect().Name(), "unsupported comparison operator %q", c.Op).WithClause("WHERE")
	}
	if c.Left == nil || c.Right == nil {
		return dberr.New(dberr.KindConstruction, w.Dialect().Name(), "comparison requires both operands").WithClause("WHERE")
	}
	if err := c.Left.Render(w); err != nil {
		return err
	}
	w.WriteString(" " + op + " ")
	if err := c.Right.Render(w); err != nil {
		return err
	}
	if c.Op == OpLike || c.Op == OpNotLike {
		w.Dialect().FormatLikeEscape(w)
	}
	return nil
}

// FormatLikeEscape declares backslash as the LIKE escape character. The
// clause accompanies every LIKE so the escaping done by the pattern helpers
// means the same thing on every backend.
func (ANSI) FormatLikeEscape(w *Writer) {
	w.WriteString(` ESCAPE '\'`)
}

// FormatLogical renders AND/OR/NOT with per-operand parentheses, so operand
// precedence never depends on caller-supplied ordering.
func (ANSI) FormatLogical(w *Writer, l *Logical) error {
	d := w.Dialect().Name()
	switch l.Op {
	case LogicalNot:
		if len(l.Operands) != 1 {
			return dberr.New(dberr.KindConstruction, d, "NOT takes exactly one operand, got %d", len(l.Operands))
		}
		w.WriteString("NOT (")
		if err := l.Operands[0].Render(w); err != nil {
			return err
		}
		w.WriteString(")")
		return nil
	case LogicalAnd, LogicalOr:
		if len(l.Operands) == 0 {
			return dberr.New(dberr.KindConstruction, d, "%s requires at least one operand", strings.ToUpper(string(l.Op)))
		}
		join := " " + strings.ToUpper(string(l.Op)) + " "
		for i, operand := range l.Operands {
			if i > 0 {
				w.WriteString(join)
			}
			w.WriteString("(")
			if err := operand.Render(w); err != nil {
				return err
			}
			w.WriteString(")")
		}
		return nil
	default:
		return dberr.New(dberr.KindConstruction, d, "unsupported logical operator %q", l.Op)
	}
}

// FormatIn renders list membership. An empty list folds to a constant truth
// value rather than invalid SQL.
func (ANSI) FormatIn(w *Writer, n *In) error {
	if len(n.Values) == 0 {
		if n.Negate {
			w.WriteString("1=1")
		} else {
			w.WriteString("1=0")
		}
		return nil
	}
	if err := n.Target.Render(w); err != nil {
		return err
	}
	if n.Negate {
		w.WriteString(" NOT IN (")
	} else {
		w.WriteString(" IN (")
	}
	for i, v := range n.Values {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := v.Render(w); err != nil {
			return err
		}
	}
	w.WriteString(")")
	return nil
}

// FormatBetween renders an inclusive range test.
func (ANSI) FormatBetween(w *Writer, b *Between) error {
	if err := b.Target.Render(w); err != nil {
		return err
	}
	if b.Negate {
		w.WriteString(" NOT BETWEEN ")
	} else {
		w.WriteString(" BETWEEN ")
	}
	if err := b.Low.Render(w); err != nil {
		return err
	}
	w.WriteString(" AND ")
	return b.High.Render(w)
}

// FormatNullCheck renders IS NULL / IS NOT NULL.
func (ANSI) FormatNullCheck(w *Writer, n *NullCheck) error {
	if err := n.Target.Render(w); err != nil {
		return err
	}
	if n.Negate {
		w.WriteString(" IS NOT NULL")
	} else {
		w.WriteString(" IS NULL")
	}
	return nil
}

// FormatAggregate renders an aggregate application; a nil argument renders
// the star form.
func (ANSI) FormatAggregate(w *Writer, a *Aggregate) error {
	w.WriteString(strings.ToUpper(string(a.Func)) + "(")
	if a.Distinct {
		w.WriteString("DISTINCT ")
	}
	if a.Arg == nil {
		if a.Func != AggCount {
			return dberr.New(dberr.KindConstruction, w.Dialect().Name(), "%s requires an argument", strings.ToUpper(string(a.Func)))
		}
		w.WriteString("*")
	} else if err := a.Arg.Render(w); err != nil {
		return err
	}
	w.WriteString(")")
	if a.Alias != "" {
		w.WriteString(" AS ")
		w.WriteIdentifier(a.Alias)
	}
	return nil
}

// FormatWindowFunc renders a window function, gated on capability.
func (ANSI) FormatWindowFunc(w *Writer, f *WindowFunc) error {
	d := w.Dialect()
	if !d.Capabilities().WindowFunctions {
		return dberr.New(dberr.KindCapability, d.Name(), "window functions are not supported").WithClause("SELECT")
	}
	w.WriteString(strings.ToUpper(f.Func) + "(")
	for i, arg := range f.Args {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := arg.Render(w); err != nil {
			return err
		}
	}
	w.WriteString(") OVER (")
	if len(f.PartitionBy) > 0 {
		w.WriteString("PARTITION BY ")
		for i, p := range f.PartitionBy {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := p.Render(w); err != nil {
				return err
			}
		}
	}
	if len(f.OrderBy) > 0 {
		if len(f.PartitionBy) > 0 {
			w.WriteString(" ")
		}
		w.WriteString("ORDER BY ")
		if err := renderOrderTerms(w, f.OrderBy); err != nil {
			return err
		}
	}
	w.WriteString(")")
	if f.Alias != "" {
		w.WriteString(" AS ")
		w.WriteIdentifier(f.Alias)
	}
	return nil
}

// FormatFuncCall renders a scalar function application.
func (ANSI) FormatFuncCall(w *Writer, f *FuncCall) error {
	w.WriteString(strings.ToUpper(f.Name) + "(")
	for i, arg := range f.Args {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := arg.Render(w); err != nil {
			return err
		}
	}
	w.WriteString(")")
	if f.Alias != "" {
		w.WriteString(" AS ")
		w.WriteIdentifier(f.Alias)
	}
	return nil
}

// FormatCase renders a searched CASE expression.
func (ANSI) FormatCase(w *Writer, c *Case) error {
	if len(c.Whens) == 0 {
		return dberr.New(dberr.KindConstruction, w.Dialect().Name(), "CASE requires at least one WHEN branch")
	}
	w.WriteString("CASE")
	for _, branch := range c.Whens {
		w.WriteString(" WHEN ")
		if err := branch.When.Render(w); err != nil {
			return err
		}
		w.WriteString(" THEN ")
		if err := branch.Then.Render(w); err != nil {
			return err
		}
	}
	if c.Else != nil {
		w.WriteString(" ELSE ")
		if err := c.Else.Render(w); err != nil {
			return err
		}
	}
	w.WriteString(" END")
	if c.Alias != "" {
		w.WriteString(" AS ")
		w.WriteIdentifier(c.Alias)
	}
	return nil
}

// FormatCTERef renders a reference to a declared CTE name. Undeclared names
// fail here, before the statement could reach a backend.
func (ANSI) FormatCTERef(w *Writer, r *CTERef) error {
	if !w.CTEDeclared(r.Name) {
		return dberr.New(dberr.KindConstruction, w.Dialect().Name(), "CTE %q is not defined", r.Name).WithClause("WITH")
	}
	w.WriteIdentifier(r.Name)
	return nil
}

// FormatSubquery renders an embedded query in parentheses.
func (ANSI) FormatSubquery(w *Writer, s *Subquery) error {
	w.WriteString("(")
	if err := s.Body.RenderInto(w); err != nil {
		return err
	}
	w.WriteString(")")
	if s.Alias != "" {
		w.WriteString(" AS ")
		w.WriteIdentifier(s.Alias)
	}
	return nil
}

// FormatLimitOffset binds pagination values as parameters. OFFSET without
// LIMIT is rejected at render time on dialects whose grammar requires LIMIT
// first; this never becomes a runtime SQL error.
func (ANSI) FormatLimitOffset(w *Writer, limit, offset *int64) error {
	d := w.Dialect()
	if limit == nil && offset == nil {
		return nil
	}
	if limit == nil && offset != nil && d.Capabilities().RequiresLimitBeforeOffset {
		return dberr.New(dberr.KindConstruction, d.Name(), "OFFSET requires LIMIT on this dialect").WithClause("LIMIT")
	}
	if limit != nil {
		w.WriteString(" LIMIT ")
		if err := w.Bind(*limit, types.Integer); err != nil {
			return err
		}
	}
	if offset != nil {
		w.WriteString(" OFFSET ")
		if err := w.Bind(*offset, types.Integer); err != nil {
			return err
		}
	}
	return nil
}

// setOperatorSQL maps the closed set-operator set to keywords.
var setOperatorSQL = map[SetOperator]string{
	SetUnion:     "UNION",
	SetIntersect: "INTERSECT",
	SetExcept:    "EXCEPT",
}

// SetOperatorKeyword resolves the joining keyword for a set operation,
// gating INTERSECT/EXCEPT on capability. Concrete dialects wrap this from
// their FormatSetOperator because the writer is not in scope there.
func SetOperatorKeyword(d Dialect, op SetOperator, all bool) (string, error) {
	kw, ok := setOperatorSQL[op]
	if !ok {
		return "", dberr.New(dberr.KindConstruction, d.Name(), "unsupported set operator %q", op)
	}
	if op != SetUnion && !d.Capabilities().IntersectExcept {
		return "", dberr.New(dberr.KindCapability, d.Name(), "%s is not supported", kw)
	}
	if all {
		if op != SetUnion {
			return "", dberr.New(dberr.KindConstruction, d.Name(), "ALL applies only to UNION")
		}
		kw += " ALL"
	}
	return kw, nil
}

// FormatLockingClause renders FOR UPDATE, gated on row-locking capability.
func (ANSI) FormatLockingClause(w *Writer) error {
	d := w.Dialect()
	if !d.Capabilities().RowLocking {
		return dberr.New(dberr.KindCapability, d.Name(), "row locking is not supported").WithClause("FOR UPDATE")
	}
	w.WriteString(" FOR UPDATE")
	return nil
}

// renderOrderTerms renders an ordered list of ORDER BY terms.
func renderOrderTerms(w *Writer, terms []OrderTerm) error {
	for i, t := range terms {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := t.Expr.Render(w); err != nil {
			return err
		}
		if t.Direction == SortDesc {
			w.WriteString(" DESC")
		} else {
			w.WriteString(" ASC")
		}
		if t.Nulls != NullsDefault {
			if !w.Dialect().Capabilities().NullsOrdering {
				return dberr.New(dberr.KindCapability, w.Dialect().Name(),
					"explicit NULLS ordering is not supported").WithClause("ORDER BY")
			}
			if t.Nulls == NullsFirst {
				w.WriteString(" NULLS FIRST")
			} else {
				w.WriteString(" NULLS LAST")
			}
		}
	}
	return nil
}

// RenderOrderTerms exposes order-term rendering to the query assemblers.
func RenderOrderTerms(w *Writer, terms []OrderTerm) error {
	return renderOrderTerms(w, terms)
}

// QuestionPlaceholder is the shared "?" placeholder style.
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder is the shared "$N" numbered placeholder style.
func DollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// QuoteWith quotes an identifier with the given quote rune, doubling any
// embedded quote characters.
func QuoteWith(name, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}
