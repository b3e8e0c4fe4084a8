package query

import (
	"context"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/types"
)

// JoinType specifies the type of join to be performed.
type JoinType string

// Supported join types.
const (
	JoinInner JoinType = "INNER JOIN"
	JoinLeft  JoinType = "LEFT JOIN"
	JoinRight JoinType = "RIGHT JOIN"
	JoinCross JoinType = "CROSS JOIN"
)

// joinClause is one JOIN in call order.
type joinClause struct {
	kind  JoinType
	table string
	alias string
	on    expr.Node
}

// selectItem is one SELECT-list entry with an optional alias.
type selectItem struct {
	node  expr.Node
	alias string
}

// ActiveQuery is the fluent SELECT assembler. It accumulates an expression
// tree and renders it through the dialect on a terminal call. Clause order
// is preserved exactly as called. ToSQL is pure and repeatable; the
// executing terminals (All, One, Count, Exists) consume the builder, after
// which only pure re-rendering remains legal.
//
// An ActiveQuery is not safe for concurrent use; the dialect and registry
// it references are.
type ActiveQuery struct {
	dialect  expr.Dialect
	registry *types.Registry
	exec     Executor

	table     string
	tableCTE  *expr.CTERef
	alias     string
	selects   []selectItem
	distinct  bool
	joins     []joinClause
	where     expr.Node
	groupBy   []expr.Node
	having    expr.Node
	orderBy   []expr.OrderTerm
	limit     *int64
	offset    *int64
	forUpdate bool
	consumed  bool
}

// New creates a SELECT assembler against a table for the given dialect and
// type registry.
func New(table string, d expr.Dialect, reg *types.Registry) *ActiveQuery {
	return &ActiveQuery{table: table, dialect: d, registry: reg}
}

// NewFromCTE creates a SELECT assembler whose FROM clause references a CTE
// by name. The reference is validated against the declared CTE names of the
// enclosing rendering.
func NewFromCTE(ref *expr.CTERef, d expr.Dialect, reg *types.Registry) *ActiveQuery {
	return &ActiveQuery{tableCTE: ref, dialect: d, registry: reg}
}

// Bind attaches the executor used by the executing terminal calls.
func (q *ActiveQuery) Bind(e Executor) *ActiveQuery {
	q.exec = e
	return q
}

// As aliases the FROM source.
func (q *ActiveQuery) As(alias string) *ActiveQuery {
	q.alias = alias
	return q
}

// Select appends expressions to the SELECT list in call order. An empty
// list renders as star.
func (q *ActiveQuery) Select(nodes ...expr.Node) *ActiveQuery {
	for _, n := range nodes {
		q.selects = append(q.selects, selectItem{node: n})
	}
	return q
}

// SelectAs appends one aliased expression to the SELECT list.
func (q *ActiveQuery) SelectAs(n expr.Node, alias string) *ActiveQuery {
	q.selects = append(q.selects, selectItem{node: n, alias: alias})
	return q
}

// Columns appends plain column references to the SELECT list.
func (q *ActiveQuery) Columns(names ...string) *ActiveQuery {
	for _, name := range names {
		q.selects = append(q.selects, selectItem{node: expr.Col(name)})
	}
	return q
}

// Distinct marks the query as SELECT DISTINCT.
func (q *ActiveQuery) Distinct() *ActiveQuery {
	q.distinct = true
	return q
}

// Where conjoins a condition onto the existing WHERE tree. Successive calls
// compose with AND; a call never replaces earlier conditions.
func (q *ActiveQuery) Where(cond expr.Node) *ActiveQuery {
	if q.where == nil {
		q.where = cond
	} else {
		q.where = expr.And(q.where, cond)
	}
	return q
}

// Join appends a join clause in call order.
func (q *ActiveQuery) Join(kind JoinType, table string, on expr.Node) *ActiveQuery {
	q.joins = append(q.joins, joinClause{kind: kind, table: table, on: on})
	return q
}

// InnerJoin appends an inner join.
func (q *ActiveQuery) InnerJoin(table string, on expr.Node) *ActiveQuery {
	return q.Join(JoinInner, table, on)
}

// LeftJoin appends a left join.
func (q *ActiveQuery) LeftJoin(table string, on expr.Node) *ActiveQuery {
	return q.Join(JoinLeft, table, on)
}

// JoinAs appends a join with a table alias.
func (q *ActiveQuery) JoinAs(kind JoinType, table, alias string, on expr.Node) *ActiveQuery {
	q.joins = append(q.joins, joinClause{kind: kind, table: table, alias: alias, on: on})
	return q
}

// GroupBy appends grouping expressions in call order.
func (q *ActiveQuery) GroupBy(nodes ...expr.Node) *ActiveQuery {
	q.groupBy = append(q.groupBy, nodes...)
	return q
}

// Having conjoins a condition onto the HAVING tree, composing like Where.
func (q *ActiveQuery) Having(cond expr.Node) *ActiveQuery {
	if q.having == nil {
		q.having = cond
	} else {
		q.having = expr.And(q.having, cond)
	}
	return q
}

// OrderBy appends order terms in call order; multi-column order is
// semantically significant and preserved exactly.
func (q *ActiveQuery) OrderBy(terms ...expr.OrderTerm) *ActiveQuery {
	q.orderBy = append(q.orderBy, terms...)
	return q
}

// OrderByAsc appends an ascending order term for a column.
func (q *ActiveQuery) OrderByAsc(column string) *ActiveQuery {
	return q.OrderBy(expr.Asc(expr.Col(column)))
}

// OrderByDesc appends a descending order term for a column.
func (q *ActiveQuery) OrderByDesc(column string) *ActiveQuery {
	return q.OrderBy(expr.Desc(expr.Col(column)))
}

// Limit caps the number of returned rows. The value is bound as a
// parameter, not inlined.
func (q *ActiveQuery) Limit(n int64) *ActiveQuery {
	q.limit = &n
	return q
}

// Offset skips rows. On dialects whose grammar requires LIMIT before
// OFFSET, an offset without a limit is rejected at render time.
func (q *ActiveQuery) Offset(n int64) *ActiveQuery {
	q.offset = &n
	return q
}

// ForUpdate requests row locks on the selected rows. Rendering fails with a
// capability error on dialects without row locking.
func (q *ActiveQuery) ForUpdate() *ActiveQuery {
	q.forUpdate = true
	return q
}

// clone copies the assembler so derived renderings (Count, Exists) leave
// the original untouched.
func (q *ActiveQuery) clone() *ActiveQuery {
	c := *q
	c.selects = append([]selectItem(nil), q.selects...)
	c.joins = append([]joinClause(nil), q.joins...)
	c.groupBy = append([]expr.Node(nil), q.groupBy...)
	c.orderBy = append([]expr.OrderTerm(nil), q.orderBy...)
	return &c
}

// arity returns the SELECT-list width, or -1 when it is star and therefore
// structurally unknown.
func (q *ActiveQuery) arity() int {
	if len(q.selects) == 0 {
		return -1
	}
	return len(q.selects)
}

func (q *ActiveQuery) dialectOf() expr.Dialect     { return q.dialect }
func (q *ActiveQuery) registryOf() *types.Registry { return q.registry }

// RenderInto renders the full SELECT into the writer. It implements
// expr.Renderable so the query can appear as a subquery or set-operation
// operand.
func (q *ActiveQuery) RenderInto(w *expr.Writer) error {
	w.WriteString("SELECT ")
	if q.distinct {
		w.WriteString("DISTINCT ")
	}
	if len(q.selects) == 0 {
		w.WriteString("*")
	} else {
		for i, item := range q.selects {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := item.node.Render(w); err != nil {
				return err
			}
			if item.alias != "" {
				w.WriteString(" AS ")
				w.WriteIdentifier(item.alias)
			}
		}
	}

	w.WriteString(" FROM ")
	if q.tableCTE != nil {
		if err := q.tableCTE.Render(w); err != nil {
			return err
		}
	} else {
		if q.table == "" {
			return dberr.New(dberr.KindConstruction, q.dialect.Name(), "query has no FROM source").WithClause("FROM")
		}
		w.WriteIdentifier(q.table)
	}
	if q.alias != "" {
		w.WriteString(" AS ")
		w.WriteIdentifier(q.alias)
	}

	for _, j := range q.joins {
		w.WriteString(" " + string(j.kind) + " ")
		w.WriteIdentifier(j.table)
		if j.alias != "" {
			w.WriteString(" AS ")
			w.WriteIdentifier(j.alias)
		}
		if j.on != nil {
			w.WriteString(" ON ")
			if err := j.on.Render(w); err != nil {
				return err
			}
		}
	}

	if q.where != nil {
		w.WriteString(" WHERE ")
		if err := q.where.Render(w); err != nil {
			return err
		}
	}

	if len(q.groupBy) > 0 {
		w.WriteString(" GROUP BY ")
		for i, g := range q.groupBy {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := g.Render(w); err != nil {
				return err
			}
		}
	}

	if q.having != nil {
		if len(q.groupBy) == 0 {
			return dberr.New(dberr.KindConstruction, q.dialect.Name(), "HAVING requires GROUP BY").WithClause("HAVING")
		}
		w.WriteString(" HAVING ")
		if err := q.having.Render(w); err != nil {
			return err
		}
	}

	if len(q.orderBy) > 0 {
		w.WriteString(" ORDER BY ")
		if err := expr.RenderOrderTerms(w, q.orderBy); err != nil {
			return err
		}
	}

	if err := q.dialect.FormatLimitOffset(w, q.limit, q.offset); err != nil {
		return err
	}

	if q.forUpdate {
		if err := q.dialect.FormatLockingClause(w); err != nil {
			return err
		}
	}
	return nil
}

// ToSQL renders the query without executing it. Rendering is side-effect
// free: the same unmodified query renders to byte-identical SQL and
// parameters every time, and ToSQL stays legal after an executing terminal
// has consumed the query.
func (q *ActiveQuery) ToSQL() (*Statement, error) {
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

// consume marks the query as used by an executing terminal. A second
// executing terminal is a construction error; ToSQL is unaffected.
func (q *ActiveQuery) consume() error {
	if q.consumed {
		return dberr.New(dberr.KindConstruction, q.dialect.Name(), "query already consumed by a terminal call")
	}
	if q.exec == nil {
		return dberr.New(dberr.KindConstruction, q.dialect.Name(), "query has no executor bound")
	}
	q.consumed = true
	return nil
}

// All renders and executes the query, returning every row.
func (q *ActiveQuery) All(ctx context.Context) ([]Row, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
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

// One renders and executes the query with LIMIT 1, returning the first row
// or nil when there is no match.
func (q *ActiveQuery) One(ctx context.Context) (Row, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	limited := q.clone()
	limited.limit = new(int64)
	*limited.limit = 1
	stmt, err := limited.ToSQL()
	if err != nil {
		return nil, err
	}
	res, err := q.exec.Execute(ctx, stmt, nil)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows[0], nil
}

// Count renders and executes a COUNT over the query's rows. Grouped or
// distinct queries are counted through a subquery so the semantics match
// the rows All would return.
func (q *ActiveQuery) Count(ctx context.Context) (int64, error) {
	if err := q.consume(); err != nil {
		return 0, err
	}
	stmt, err := q.countStatement()
	if err != nil {
		return 0, err
	}
	res, err := q.exec.Execute(ctx, stmt, nil)
	if err != nil {
		return 0, err
	}
	return scalarInt(res, "n")
}

// countStatement compiles the counting form of the query.
func (q *ActiveQuery) countStatement() (*Statement, error) {
	w := expr.NewWriter(q.dialect, q.registry)
	if q.distinct || len(q.groupBy) > 0 {
		inner := q.clone()
		inner.orderBy = nil
		inner.limit = nil
		inner.offset = nil
		w.WriteString("SELECT COUNT(*) AS " + q.dialect.QuoteIdentifier("n") + " FROM (")
		if err := inner.RenderInto(w); err != nil {
			return nil, err
		}
		w.WriteString(") AS " + q.dialect.QuoteIdentifier("counted"))
	} else {
		counted := q.clone()
		counted.selects = []selectItem{{node: expr.CountAll().As("n")}}
		counted.orderBy = nil
		counted.limit = nil
		counted.offset = nil
		if err := counted.RenderInto(w); err != nil {
			return nil, err
		}
	}
	return &Statement{SQL: w.SQL(), Params: w.Params(), Kind: StatementSelect, Dialect: q.dialect.Name()}, nil
}

// Exists renders and executes a cheap existence probe, SELECT 1 with the
// query's conditions under LIMIT 1, never a full count.
func (q *ActiveQuery) Exists(ctx context.Context) (bool, error) {
	if err := q.consume(); err != nil {
		return false, err
	}
	probe := q.clone()
	probe.selects = []selectItem{{node: expr.TypedValue(int64(1), types.Integer), alias: "present"}}
	probe.orderBy = nil
	probe.offset = nil
	probe.limit = new(int64)
	*probe.limit = 1
	stmt, err := probe.ToSQL()
	if err != nil {
		return false, err
	}
	res, err := q.exec.Execute(ctx, stmt, nil)
	if err != nil {
		return false, err
	}
	return len(res.Rows) > 0, nil
}

// scalarInt extracts a single integer column from a one-row result.
func scalarInt(res *QueryResult, column string) (int64, error) {
	if len(res.Rows) == 0 {
		return 0, nil
	}
	switch v := res.Rows[0][column].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, dberr.New(dberr.KindConversion, "", "expected integer in column %q, got %T", column, v)
	}
}
