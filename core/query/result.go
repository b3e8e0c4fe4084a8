package query

import (
	"context"
	"time"

	"github.com/asaidimu/go-jenga/core/types"
)

// Row is one materialized result row keyed by column name.
type Row map[string]any

// QueryResult is the outcome of executing one statement. Rows is populated
// only for statements classified as row-returning; DML without RETURNING
// reports affected rows and, where the backend provides one, the last
// insert id.
type QueryResult struct {
	Rows         []Row
	AffectedRows int64
	LastInsertID *int64
	Duration     time.Duration
}

// Options is the execution-options bag handed to the executor alongside a
// compiled statement.
type Options struct {
	// MaxRows caps the number of materialized rows; exceeding it aborts the
	// fetch with a constraint error. Recursive CTE queries use this as
	// their cycle bound. Zero means no cap.
	MaxRows int64

	// BoundCTE names the recursive CTE the MaxRows cap guards, so the
	// error raised on overflow can point at the runaway definition.
	BoundCTE string

	// ColumnTypes maps result column names to logical types for decoding
	// through the type-mapping registry. Columns not listed are returned in
	// the driver's normalized representation. The model layer supplies this
	// mapping; the engine never derives it.
	ColumnTypes map[string]types.LogicalType

	// TransactionalDDL must be set to run a DDL statement while a
	// transaction is open; DDL never joins an open transaction implicitly.
	TransactionalDDL bool
}

// Executor runs compiled statements. The execution session in core/exec is
// the canonical implementation; the indirection keeps the assemblers free
// of any dependency on connection handling.
type Executor interface {
	Execute(ctx context.Context, stmt *Statement, opts *Options) (*QueryResult, error)
}
