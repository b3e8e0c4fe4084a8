package query

import (
	"context"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/types"
)

// Operand is a query that can participate in a set operation. ActiveQuery,
// CTEQuery, and SetOperationQuery all qualify; the set is closed within
// this package.
type Operand interface {
	expr.Renderable
	arity() int
	dialectOf() expr.Dialect
	registryOf() *types.Registry
}

// SetOperationQuery combines two or more operand queries under UNION,
// UNION ALL, INTERSECT, or EXCEPT. Column aliases of the first operand name
// the combined result. Operand arity is checked structurally at
// construction when both SELECT lists are explicit; star projections defer
// the check to the database.
type SetOperationQuery struct {
	dialect  expr.Dialect
	registry *types.Registry
	exec     Executor

	op       expr.SetOperator
	all      bool
	operands []Operand
	orderBy  []expr.OrderTerm
	limit    *int64
	offset   *int64
	consumed bool
}

// newSetOperation validates and builds a set operation over the operands.
func newSetOperation(op expr.SetOperator, all bool, operands []Operand) (*SetOperationQuery, error) {
	if len(operands) < 2 {
		return nil, dberr.New(dberr.KindConstruction, "", "%s requires at least two operands", op)
	}
	known := -1
	for _, operand := range operands {
		a := operand.arity()
		if a < 0 {
			continue
		}
		if known < 0 {
			known = a
			continue
		}
		if a != known {
			return nil, dberr.New(dberr.KindConstruction, operands[0].dialectOf().Name(),
				"set operation operands project %d and %d columns", known, a)
		}
	}
	return &SetOperationQuery{
		dialect:  operands[0].dialectOf(),
		registry: operands[0].registryOf(),
		op:       op,
		all:      all,
		operands: operands,
	}, nil
}

// Union combines operands with UNION, discarding duplicate rows.
func Union(operands ...Operand) (*SetOperationQuery, error) {
	return newSetOperation(expr.SetUnion, false, operands)
}

// UnionAll combines operands with UNION ALL, keeping duplicates.
func UnionAll(operands ...Operand) (*SetOperationQuery, error) {
	return newSetOperation(expr.SetUnion, true, operands)
}

// Intersect combines operands with INTERSECT.
func Intersect(operands ...Operand) (*SetOperationQuery, error) {
	return newSetOperation(expr.SetIntersect, false, operands)
}

// Except combines operands with EXCEPT.
func Except(operands ...Operand) (*SetOperationQuery, error) {
	return newSetOperation(expr.SetExcept, false, operands)
}

// Bind attaches the executor used by the executing terminal calls.
func (q *SetOperationQuery) Bind(e Executor) *SetOperationQuery {
	q.exec = e
	return q
}

// OrderBy appends order terms over the combined result. Terms reference the
// first operand's column aliases.
func (q *SetOperationQuery) OrderBy(terms ...expr.OrderTerm) *SetOperationQuery {
	q.orderBy = append(q.orderBy, terms...)
	return q
}

// Limit caps the combined result.
func (q *SetOperationQuery) Limit(n int64) *SetOperationQuery {
	q.limit = &n
	return q
}

// Offset skips combined rows, subject to the dialect's pagination grammar.
func (q *SetOperationQuery) Offset(n int64) *SetOperationQuery {
	q.offset = &n
	return q
}

func (q *SetOperationQuery) dialectOf() expr.Dialect     { return q.dialect }
func (q *SetOperationQuery) registryOf() *types.Registry { return q.registry }

// arity delegates to the first operand with an explicit SELECT list.
func (q *SetOperationQuery) arity() int {
	for _, operand := range q.operands {
		if a := operand.arity(); a >= 0 {
			return a
		}
	}
	return -1
}

// RenderInto renders the operands joined by the dialect's set-operation
// keyword. Operands are parenthesized only when the dialect's
// compound-select grammar accepts it; SQLite's does not.
func (q *SetOperationQuery) RenderInto(w *expr.Writer) error {
	keyword, err := q.dialect.FormatSetOperator(q.op, q.all)
	if err != nil {
		return err
	}
	parens := q.dialect.Capabilities().ParenthesizedSetOperands
	for i, operand := range q.operands {
		if i > 0 {
			w.WriteString(" " + keyword + " ")
		}
		if parens {
			w.WriteString("(")
		}
		if err := operand.RenderInto(w); err != nil {
			return err
		}
		if parens {
			w.WriteString(")")
		}
	}
	if len(q.orderBy) > 0 {
		w.WriteString(" ORDER BY ")
		if err := expr.RenderOrderTerms(w, q.orderBy); err != nil {
			return err
		}
	}
	return q.dialect.FormatLimitOffset(w, q.limit, q.offset)
}

// ToSQL renders the statement without executing it.
func (q *SetOperationQuery) ToSQL() (*Statement, error) {
	w := expr.NewWriter(q.dialect, q.registry)
	if err := q.RenderInto(w); err != nil {
		return nil, err
	}
	return &Statement{
		SQL:     w.SQL(),
		Params:  w.Params(),
		Kind:    StatementSelect,
		Dialect: q.dialect.Name(),
	}, nil
}

// All renders and executes the statement, returning every combined row.
func (q *SetOperationQuery) All(ctx context.Context) ([]Row, error) {
	if q.consumed {
		return nil, dberr.New(dberr.KindConstruction, q.dialect.Name(), "query already consumed by a terminal call")
	}
	if q.exec == nil {
		return nil, dberr.New(dberr.KindConstruction, q.dialect.Name(), "query has no executor bound")
	}
	q.consumed = true
	stmt, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	res, err := q.exec.Execute(ctx, stmt, nil)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}
