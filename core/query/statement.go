// Package query provides the fluent assemblers that compose expression
// trees into complete statements: ActiveQuery for SELECT, CTEQuery for
// WITH / WITH RECURSIVE, SetOperationQuery for UNION/INTERSECT/EXCEPT, and
// the DML builders. Assemblers build structure only; all SQL syntax comes
// from the dialect at render time, and rendering is pure and idempotent.
package query

import (
	"strings"
)

// StatementKind classifies a compiled statement. Classification happens
// before dispatch because row-returning and auto-commit behavior differ by
// kind at the execution layer.
type StatementKind int

// The statement classifications.
const (
	StatementSelect StatementKind = iota
	StatementDML
	StatementDDL
)

// String returns the classification's name.
func (k StatementKind) String() string {
	switch k {
	case StatementSelect:
		return "select"
	case StatementDML:
		return "dml"
	case StatementDDL:
		return "ddl"
	default:
		return "unknown"
	}
}

// Statement is one compiled statement: dialect-native SQL text containing
// only placeholders and quoted identifiers, plus the bind values in
// left-to-right placeholder order, each already converted through the type
// mapping layer. A Statement is immutable once produced.
type Statement struct {
	SQL       string
	Params    []any
	Kind      StatementKind
	Returning bool
	Dialect   string
}

// RowReturning reports whether executing the statement yields rows.
func (s *Statement) RowReturning() bool {
	return s.Kind == StatementSelect || (s.Kind == StatementDML && s.Returning)
}

// Classify determines the kind of a raw SQL string by its leading keyword.
// The assemblers classify structurally; this exists for the raw-SQL escape
// hatch (DDL, pragmas) at the execution layer.
func Classify(sql string) (StatementKind, bool) {
	trimmed := strings.TrimSpace(sql)
	if i := strings.IndexAny(trimmed, " \t\r\n("); i > 0 {
		trimmed = trimmed[:i]
	}
	returning := containsWord(sql, "RETURNING")
	switch strings.ToUpper(trimmed) {
	case "SELECT", "WITH", "VALUES", "EXPLAIN", "PRAGMA", "SHOW":
		return StatementSelect, false
	case "INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE":
		return StatementDML, returning
	default:
		return StatementDDL, false
	}
}

// containsWord reports whether sql contains the keyword as a whole word,
// case-insensitively.
func containsWord(sql, word string) bool {
	upper := strings.ToUpper(sql)
	for i := 0; ; {
		j := strings.Index(upper[i:], word)
		if j < 0 {
			return false
		}
		j += i
		before := j == 0 || !isWordByte(upper[j-1])
		end := j + len(word)
		after := end == len(upper) || !isWordByte(upper[end])
		if before && after {
			return true
		}
		i = end
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
