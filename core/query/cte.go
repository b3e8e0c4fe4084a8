package query

import (
	"context"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/types"
)

// DefaultRecursionBound caps the rows a recursive CTE may materialize when
// the caller does not choose a bound. The database alone cannot be trusted
// to terminate recursion over cyclic application data, so the execution
// layer enforces this cap while fetching.
const DefaultRecursionBound int64 = 10000

// cteDef is one WITH definition in insertion order. Either body is set
// (plain CTE) or anchor and recursive are (recursive CTE).
type cteDef struct {
	name      string
	columns   []string
	body      expr.Renderable
	anchor    expr.Renderable
	recursive expr.Renderable
}

// CTEQuery assembles a WITH / WITH RECURSIVE statement: an ordered set of
// named definitions followed by an outer query. Definition order is
// preserved because a CTE may reference any CTE defined before it; a
// reference to a name not yet defined fails at render time as a
// construction error.
type CTEQuery struct {
	dialect  expr.Dialect
	registry *types.Registry
	exec     Executor

	ctes      []cteDef
	recursive bool
	bound     int64
	outer     *ActiveQuery
	consumed  bool
}

// NewCTE creates a WITH assembler for the given dialect and registry.
func NewCTE(d expr.Dialect, reg *types.Registry) *CTEQuery {
	return &CTEQuery{dialect: d, registry: reg}
}

// Bind attaches the executor used by the executing terminal calls.
func (q *CTEQuery) Bind(e Executor) *CTEQuery {
	q.exec = e
	return q
}

// With appends a plain CTE definition.
func (q *CTEQuery) With(name string, body expr.Renderable) *CTEQuery {
	q.ctes = append(q.ctes, cteDef{name: name, body: body})
	return q
}

// WithColumns appends a plain CTE definition with an explicit column list.
func (q *CTEQuery) WithColumns(name string, columns []string, body expr.Renderable) *CTEQuery {
	q.ctes = append(q.ctes, cteDef{name: name, columns: columns, body: body})
	return q
}

// WithRecursive appends a recursive CTE definition: exactly one anchor
// query and one recursive branch, joined by UNION ALL at render time. The
// recursive branch must reference its own CTE through a CTERef node (see
// NewFromCTE); it never re-embeds the anchor.
func (q *CTEQuery) WithRecursive(name string, columns []string, anchor, recursive expr.Renderable) *CTEQuery {
	q.ctes = append(q.ctes, cteDef{name: name, columns: columns, anchor: anchor, recursive: recursive})
	q.recursive = true
	return q
}

// Bound sets the row cap enforced while materializing a recursive query.
// Unset, recursive queries use DefaultRecursionBound; non-recursive CTE
// queries are uncapped.
func (q *CTEQuery) Bound(rows int64) *CTEQuery {
	q.bound = rows
	return q
}

// Select sets the outer query run against the CTE names.
func (q *CTEQuery) Select(outer *ActiveQuery) *CTEQuery {
	q.outer = outer
	return q
}

func (q *CTEQuery) dialectOf() expr.Dialect     { return q.dialect }
func (q *CTEQuery) registryOf() *types.Registry { return q.registry }

// arity delegates to the outer query's SELECT-list width.
func (q *CTEQuery) arity() int {
	if q.outer == nil {
		return -1
	}
	return q.outer.arity()
}

// maxRows returns the row cap to enforce at execution.
func (q *CTEQuery) maxRows() int64 {
	if !q.recursive {
		return q.bound
	}
	if q.bound > 0 {
		return q.bound
	}
	return DefaultRecursionBound
}

// boundCTE names the recursive definition the row cap protects against.
func (q *CTEQuery) boundCTE() string {
	for _, def := range q.ctes {
		if def.anchor != nil {
			return def.name
		}
	}
	return ""
}

// RenderInto renders the full statement into the writer. Capability flags
// are checked before anything is written.
func (q *CTEQuery) RenderInto(w *expr.Writer) error {
	caps := q.dialect.Capabilities()
	name := q.dialect.Name()
	if len(q.ctes) == 0 {
		return dberr.New(dberr.KindConstruction, name, "WITH requires at least one CTE definition").WithClause("WITH")
	}
	if q.outer == nil {
		return dberr.New(dberr.KindConstruction, name, "WITH requires an outer query").WithClause("WITH")
	}
	if !caps.CTE {
		return dberr.New(dberr.KindCapability, name, "common table expressions are not supported").WithClause("WITH")
	}
	if q.recursive && !caps.RecursiveCTE {
		return dberr.New(dberr.KindCapability, name, "recursive common table expressions are not supported").WithClause("WITH")
	}

	if q.recursive {
		w.WriteString("WITH RECURSIVE ")
	} else {
		w.WriteString("WITH ")
	}

	for i, def := range q.ctes {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteIdentifier(def.name)
		if len(def.columns) > 0 {
			w.WriteString("(")
			for j, col := range def.columns {
				if j > 0 {
					w.WriteString(", ")
				}
				w.WriteIdentifier(col)
			}
			w.WriteString(")")
		}
		w.WriteString(" AS (")
		if def.body != nil {
			if err := def.body.RenderInto(w); err != nil {
				return err
			}
		} else {
			// The recursive branch may reference its own name; declare it
			// before rendering either branch.
			w.DeclareCTE(def.name)
			if err := def.anchor.RenderInto(w); err != nil {
				return err
			}
			w.WriteString(" UNION ALL ")
			if err := def.recursive.RenderInto(w); err != nil {
				return err
			}
		}
		w.WriteString(")")
		// Later definitions and the outer query may reference this name.
		w.DeclareCTE(def.name)
	}

	w.WriteString(" ")
	return q.outer.RenderInto(w)
}

// ToSQL renders the statement without executing it.
func (q *CTEQuery) ToSQL() (*Statement, error) {
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

// consume marks the query as used by an executing terminal.
func (q *CTEQuery) consume() error {
	if q.consumed {
		return dberr.New(dberr.KindConstruction, q.dialect.Name(), "query already consumed by a terminal call")
	}
	if q.exec == nil {
		return dberr.New(dberr.KindConstruction, q.dialect.Name(), "query has no executor bound")
	}
	q.consumed = true
	return nil
}

// All renders and executes the statement, enforcing the recursion bound
// while rows materialize.
func (q *CTEQuery) All(ctx context.Context) ([]Row, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	stmt, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	res, err := q.exec.Execute(ctx, stmt, &Options{MaxRows: q.maxRows(), BoundCTE: q.boundCTE()})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// One renders and executes the statement, returning the first row or nil.
func (q *CTEQuery) One(ctx context.Context) (Row, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	stmt, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	res, err := q.exec.Execute(ctx, stmt, &Options{MaxRows: q.maxRows(), BoundCTE: q.boundCTE()})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows[0], nil
}
