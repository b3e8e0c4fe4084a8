// Package sqlite provides the SQLite dialect, type registry, and backend
// for executing compiled statements over mattn/go-sqlite3.
package sqlite

import (
	"github.com/asaidimu/go-jenga/core/expr"
)

// Dialect renders SQL in SQLite syntax. SQLite follows the shared
// rendering for everything but identifier quoting and its lack of row
// locking.
type Dialect struct {
	expr.ANSI
}

var _ expr.Dialect = (*Dialect)(nil)

// NewDialect returns the SQLite dialect. Implementations are stateless, so
// the value may be shared freely.
func NewDialect() *Dialect { return &Dialect{} }

func (*Dialect) Name() string { return "sqlite" }

func (*Dialect) QuoteIdentifier(name string) string {
	return expr.QuoteWith(name, `"`)
}

func (*Dialect) Placeholder(n int) string { return expr.QuestionPlaceholder(n) }

func (*Dialect) Capabilities() expr.Capabilities {
	return expr.Capabilities{
		CTE:                       true,
		RecursiveCTE:              true,
		WindowFunctions:           true,
		Returning:                 true,
		Savepoints:                true,
		RowLocking:                false,
		IntersectExcept:           true,
		NullsOrdering:             true,
		ParenthesizedSetOperands:  false,
		RequiresLimitBeforeOffset: true,
	}
}

func (d *Dialect) FormatSetOperator(op expr.SetOperator, all bool) (string, error) {
	return expr.SetOperatorKeyword(d, op, all)
}
