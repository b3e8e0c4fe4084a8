package query

import (
	"context"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/types"
)

// InsertQuery assembles an INSERT, optionally multi-row and optionally
// RETURNING. Returning is gated on the dialect's capability flag at render
// time, before any I/O.
type InsertQuery struct {
	dialect  expr.Dialect
	registry *types.Registry
	exec     Executor

	table     string
	columns   []string
	rows      [][]expr.Node
	returning []string
	err       error
	consumed  bool
}

// NewInsert creates an INSERT assembler against a table.
func NewInsert(table string, d expr.Dialect, reg *types.Registry) *InsertQuery {
	return &InsertQuery{table: table, dialect: d, registry: reg}
}

// Bind attaches the executor used by Exec.
func (q *InsertQuery) Bind(e Executor) *InsertQuery {
	q.exec = e
	return q
}

// Columns sets the inserted column list.
func (q *InsertQuery) Columns(names ...string) *InsertQuery {
	q.columns = names
	return q
}

// Values appends one row of values, inferring logical types. Row width must
// match the column list at render time.
func (q *InsertQuery) Values(values ...any) *InsertQuery {
	row := make([]expr.Node, len(values))
	for i, v := range values {
		row[i] = expr.Value(v)
	}
	q.rows = append(q.rows, row)
	return q
}

// ValueNodes appends one row of pre-built expression nodes, for typed
// literals or expressions.
func (q *InsertQuery) ValueNodes(values ...expr.Node) *InsertQuery {
	q.rows = append(q.rows, values)
	return q
}

// Returning requests the named columns back from the insert.
func (q *InsertQuery) Returning(columns ...string) *InsertQuery {
	q.returning = columns
	return q
}

// ToSQL renders the statement without executing it.
func (q *InsertQuery) ToSQL() (*Statement, error) {
	name := q.dialect.Name()
	if q.err != nil {
		return nil, q.err
	}
	if len(q.columns) == 0 {
		return nil, dberr.New(dberr.KindConstruction, name, "INSERT requires a column list").WithClause("INSERT")
	}
	if len(q.rows) == 0 {
		return nil, dberr.New(dberr.KindConstruction, name, "INSERT requires at least one row").WithClause("VALUES")
	}
	if len(q.returning) > 0 && !q.dialect.Capabilities().Returning {
		return nil, dberr.New(dberr.KindCapability, name, "RETURNING is not supported").WithClause("RETURNING")
	}

	w := expr.NewWriter(q.dialect, q.registry)
	w.WriteString("INSERT INTO ")
	w.WriteIdentifier(q.table)
	w.WriteString(" (")
	for i, col := range q.columns {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteIdentifier(col)
	}
	w.WriteString(") VALUES ")
	for i, row := range q.rows {
		if len(row) != len(q.columns) {
			return nil, dberr.New(dberr.KindConstruction, name,
				"row %d has %d values for %d columns", i, len(row), len(q.columns)).WithClause("VALUES")
		}
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString("(")
		for j, v := range row {
			if j > 0 {
				w.WriteString(", ")
			}
			if err := v.Render(w); err != nil {
				return nil, err
			}
		}
		w.WriteString(")")
	}
	if err := renderReturning(w, q.returning); err != nil {
		return nil, err
	}

	return &Statement{
		SQL:       w.SQL(),
		Params:    w.Params(),
		Kind:      StatementDML,
		Returning: len(q.returning) > 0,
		Dialect:   name,
	}, nil
}

// Exec renders and executes the insert.
func (q *InsertQuery) Exec(ctx context.Context) (*QueryResult, error) {
	if err := consumeDML(&q.consumed, q.exec, q.dialect.Name()); err != nil {
		return nil, err
	}
	stmt, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return q.exec.Execute(ctx, stmt, nil)
}

// setClause is one SET assignment in call order.
type setClause struct {
	column string
	value  expr.Node
}

// UpdateQuery assembles an UPDATE with SET assignments and a composing
// WHERE tree. For safety an update without a WHERE clause is rejected
// unless explicitly marked unsafe.
type UpdateQuery struct {
	dialect  expr.Dialect
	registry *types.Registry
	exec     Executor

	table     string
	sets      []setClause
	where     expr.Node
	returning []string
	err       error
	unsafe    bool
	consumed  bool
}

// NewUpdate creates an UPDATE assembler against a table.
func NewUpdate(table string, d expr.Dialect, reg *types.Registry) *UpdateQuery {
	return &UpdateQuery{table: table, dialect: d, registry: reg}
}

// Bind attaches the executor used by Exec.
func (q *UpdateQuery) Bind(e Executor) *UpdateQuery {
	q.exec = e
	return q
}

// Set assigns a value to a column, inferring its logical type.
func (q *UpdateQuery) Set(column string, value any) *UpdateQuery {
	q.sets = append(q.sets, setClause{column: column, value: expr.Value(value)})
	return q
}

// SetNode assigns an expression to a column.
func (q *UpdateQuery) SetNode(column string, value expr.Node) *UpdateQuery {
	q.sets = append(q.sets, setClause{column: column, value: value})
	return q
}

// Where conjoins a condition onto the WHERE tree.
func (q *UpdateQuery) Where(cond expr.Node) *UpdateQuery {
	if q.where == nil {
		q.where = cond
	} else {
		q.where = expr.And(q.where, cond)
	}
	return q
}

// Returning requests the named columns back from the update.
func (q *UpdateQuery) Returning(columns ...string) *UpdateQuery {
	q.returning = columns
	return q
}

// Unsafe permits an update without a WHERE clause.
func (q *UpdateQuery) Unsafe() *UpdateQuery {
	q.unsafe = true
	return q
}

// ToSQL renders the statement without executing it.
func (q *UpdateQuery) ToSQL() (*Statement, error) {
	name := q.dialect.Name()
	if q.err != nil {
		return nil, q.err
	}
	if len(q.sets) == 0 {
		return nil, dberr.New(dberr.KindConstruction, name, "UPDATE requires at least one assignment").WithClause("SET")
	}
	if q.where == nil && !q.unsafe {
		return nil, dberr.New(dberr.KindConstruction, name, "UPDATE without WHERE requires Unsafe()").WithClause("WHERE")
	}
	if len(q.returning) > 0 && !q.dialect.Capabilities().Returning {
		return nil, dberr.New(dberr.KindCapability, name, "RETURNING is not supported").WithClause("RETURNING")
	}

	w := expr.NewWriter(q.dialect, q.registry)
	w.WriteString("UPDATE ")
	w.WriteIdentifier(q.table)
	w.WriteString(" SET ")
	for i, s := range q.sets {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteIdentifier(s.column)
		w.WriteString(" = ")
		if err := s.value.Render(w); err != nil {
			return nil, err
		}
	}
	if q.where != nil {
		w.WriteString(" WHERE ")
		if err := q.where.Render(w); err != nil {
			return nil, err
		}
	}
	if err := renderReturning(w, q.returning); err != nil {
		return nil, err
	}

	return &Statement{
		SQL:       w.SQL(),
		Params:    w.Params(),
		Kind:      StatementDML,
		Returning: len(q.returning) > 0,
		Dialect:   name,
	}, nil
}

// Exec renders and executes the update.
func (q *UpdateQuery) Exec(ctx context.Context) (*QueryResult, error) {
	if err := consumeDML(&q.consumed, q.exec, q.dialect.Name()); err != nil {
		return nil, err
	}
	stmt, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return q.exec.Execute(ctx, stmt, nil)
}

// DeleteQuery assembles a DELETE. Like UpdateQuery, a delete without a
// WHERE clause is rejected unless explicitly marked unsafe.
type DeleteQuery struct {
	dialect  expr.Dialect
	registry *types.Registry
	exec     Executor

	table     string
	where     expr.Node
	returning []string
	unsafe    bool
	consumed  bool
}

// NewDelete creates a DELETE assembler against a table.
func NewDelete(table string, d expr.Dialect, reg *types.Registry) *DeleteQuery {
	return &DeleteQuery{table: table, dialect: d, registry: reg}
}

// Bind attaches the executor used by Exec.
func (q *DeleteQuery) Bind(e Executor) *DeleteQuery {
	q.exec = e
	return q
}

// Where conjoins a condition onto the WHERE tree.
func (q *DeleteQuery) Where(cond expr.Node) *DeleteQuery {
	if q.where == nil {
		q.where = cond
	} else {
		q.where = expr.And(q.where, cond)
	}
	return q
}

// Returning requests the named columns back from the delete.
func (q *DeleteQuery) Returning(columns ...string) *DeleteQuery {
	q.returning = columns
	return q
}

// Unsafe permits a delete without a WHERE clause.
func (q *DeleteQuery) Unsafe() *DeleteQuery {
	q.unsafe = true
	return q
}

// ToSQL renders the statement without executing it.
func (q *DeleteQuery) ToSQL() (*Statement, error) {
	name := q.dialect.Name()
	if q.where == nil && !q.unsafe {
		return nil, dberr.New(dberr.KindConstruction, name, "DELETE without WHERE requires Unsafe()").WithClause("WHERE")
	}
	if len(q.returning) > 0 && !q.dialect.Capabilities().Returning {
		return nil, dberr.New(dberr.KindCapability, name, "RETURNING is not supported").WithClause("RETURNING")
	}

	w := expr.NewWriter(q.dialect, q.registry)
	w.WriteString("DELETE FROM ")
	w.WriteIdentifier(q.table)
	if q.where != nil {
		w.WriteString(" WHERE ")
		if err := q.where.Render(w); err != nil {
			return nil, err
		}
	}
	if err := renderReturning(w, q.returning); err != nil {
		return nil, err
	}

	return &Statement{
		SQL:       w.SQL(),
		Params:    w.Params(),
		Kind:      StatementDML,
		Returning: len(q.returning) > 0,
		Dialect:   name,
	}, nil
}

// Exec renders and executes the delete.
func (q *DeleteQuery) Exec(ctx context.Context) (*QueryResult, error) {
	if err := consumeDML(&q.consumed, q.exec, q.dialect.Name()); err != nil {
		return nil, err
	}
	stmt, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return q.exec.Execute(ctx, stmt, nil)
}

// renderReturning appends a RETURNING clause. Capability is checked by the
// callers before rendering begins.
func renderReturning(w *expr.Writer, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	w.WriteString(" RETURNING ")
	for i, col := range columns {
		if i > 0 {
			w.WriteString(", ")
		}
		if col == "*" {
			w.WriteString("*")
			continue
		}
		w.WriteIdentifier(col)
	}
	return nil
}

// consumeDML enforces single-use executing terminals for the DML builders.
func consumeDML(consumed *bool, e Executor, dialect string) error {
	if *consumed {
		return dberr.New(dberr.KindConstruction, dialect, "query already consumed by a terminal call")
	}
	if e == nil {
		return dberr.New(dberr.KindConstruction, dialect, "query has no executor bound")
	}
	*consumed = true
	return nil
}
