// Package postgres provides the PostgreSQL dialect, type registry, and
// backend for executing compiled statements over jackc/pgx.
package postgres

import (
	"github.com/asaidimu/go-jenga/core/expr"
)

// Dialect renders SQL in PostgreSQL syntax: double-quote quoting and
// numbered "$1" placeholders. PostgreSQL accepts every construct the
// assemblers can emit, including OFFSET without LIMIT.
type Dialect struct {
	expr.ANSI
}

var _ expr.Dialect = (*Dialect)(nil)

// NewDialect returns the PostgreSQL dialect.
func NewDialect() *Dialect { return &Dialect{} }

func (*Dialect) Name() string { return "postgres" }

func (*Dialect) QuoteIdentifier(name string) string {
	return expr.QuoteWith(name, `"`)
}

func (*Dialect) Placeholder(n int) string { return expr.DollarPlaceholder(n) }

func (*Dialect) Capabilities() expr.Capabilities {
	return expr.Capabilities{
		CTE:                       true,
		RecursiveCTE:              true,
		WindowFunctions:           true,
		Returning:                 true,
		Savepoints:                true,
		RowLocking:                true,
		IntersectExcept:           true,
		NullsOrdering:             true,
		ParenthesizedSetOperands:  true,
		RequiresLimitBeforeOffset: false,
	}
}

func (d *Dialect) FormatSetOperator(op expr.SetOperator, all bool) (string, error) {
	return expr.SetOperatorKeyword(d, op, all)
}
