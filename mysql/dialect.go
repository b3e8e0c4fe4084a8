// Package mysql provides the MySQL dialect, type registry, and backend for
// executing compiled statements over go-sql-driver/mysql.
package mysql

import (
	"github.com/asaidimu/go-jenga/core/expr"
)

// Dialect renders SQL in MySQL syntax: backtick quoting, positional "?"
// placeholders, no RETURNING, and no INTERSECT or EXCEPT.
type Dialect struct {
	expr.ANSI
}

var _ expr.Dialect = (*Dialect)(nil)

// NewDialect returns the MySQL dialect.
func NewDialect() *Dialect { return &Dialect{} }

func (*Dialect) Name() string { return "mysql" }

func (*Dialect) QuoteIdentifier(name string) string {
	return expr.QuoteWith(name, "`")
}

func (*Dialect) Placeholder(n int) string { return expr.QuestionPlaceholder(n) }

func (*Dialect) Capabilities() expr.Capabilities {
	return expr.Capabilities{
		CTE:                       true,
		RecursiveCTE:              true,
		WindowFunctions:           true,
		Returning:                 false,
		Savepoints:                true,
		RowLocking:                true,
		IntersectExcept:           false,
		NullsOrdering:             false,
		ParenthesizedSetOperands:  true,
		RequiresLimitBeforeOffset: true,
	}
}

func (d *Dialect) FormatSetOperator(op expr.SetOperator, all bool) (string, error) {
	return expr.SetOperatorKeyword(d, op, all)
}

// FormatLikeEscape writes the escape declaration with the backslash
// doubled, since MySQL string literals treat a lone backslash as their own
// escape character.
func (*Dialect) FormatLikeEscape(w *expr.Writer) {
	w.WriteString(` ESCAPE '\\'`)
}
