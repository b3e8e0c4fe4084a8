package expr

import (
	"strings"

	"github.com/asaidimu/go-jenga/core/types"
)

// Writer accumulates the SQL text and bind parameters of one rendering. The
// expression layer never chooses placeholder text itself; Bind asks the
// dialect for the next placeholder and appends the encoded value, counting
// parameters left-to-right in final rendered order.
//
// A Writer is single-use and not safe for concurrent access. The dialect and
// registry it references are both read-only and shareable.
type Writer struct {
	dialect  Dialect
	registry *types.Registry
	sql      strings.Builder
	params   []any
	ctes     map[string]struct{}
}

// NewWriter creates a rendering buffer for one statement.
func NewWriter(d Dialect, reg *types.Registry) *Writer {
	return &Writer{
		dialect:  d,
		registry: reg,
	}
}

// Dialect returns the dialect this rendering targets.
func (w *Writer) Dialect() Dialect {
	return w.dialect
}

// WriteString appends raw SQL syntax. Only dialect code and the query
// assemblers call this; caller-supplied values never reach it.
func (w *Writer) WriteString(s string) {
	w.sql.WriteString(s)
}

// WriteIdentifier appends an identifier quoted by the dialect. Dynamic table
// and column names must pass through here, never through a literal.
func (w *Writer) WriteIdentifier(name string) {
	w.sql.WriteString(w.dialect.QuoteIdentifier(name))
}

// Bind encodes a value through the type-mapping registry, appends it to the
// parameter list, and writes the dialect's placeholder for its position.
// This is the only path by which a value enters a statement.
func (w *Writer) Bind(v any, t types.LogicalType) error {
	encoded, err := w.registry.ToDatabase(v, t)
	if err != nil {
		return err
	}
	w.params = append(w.params, encoded)
	w.sql.WriteString(w.dialect.Placeholder(len(w.params)))
	return nil
}

// DeclareCTE marks a CTE name as defined for the remainder of this
// rendering. CTE references against undeclared names fail as construction
// errors at render time.
func (w *Writer) DeclareCTE(name string) {
	if w.ctes == nil {
		w.ctes = make(map[string]struct{})
	}
	w.ctes[name] = struct{}{}
}

// CTEDeclared reports whether a CTE name is defined in this rendering.
func (w *Writer) CTEDeclared(name string) bool {
	_, ok := w.ctes[name]
	return ok
}

// SQL returns the accumulated SQL text.
func (w *Writer) SQL() string {
	return w.sql.String()
}

// Params returns the accumulated bind parameters in placeholder order.
func (w *Writer) Params() []any {
	return w.params
}
