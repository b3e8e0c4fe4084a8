// Package types implements the bidirectional mapping between the engine's
// backend-neutral logical types and each backend's native column types and
// value representations. Every literal bound into a statement passes through
// a registry on the way in, and every fetched column value can pass through
// it on the way out.
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/asaidimu/go-jenga/core/dberr"
)

// LogicalType is a backend-neutral type tag. Each dialect's registry maps
// every logical type to a native column type and a value codec.
type LogicalType int

// The supported logical types.
const (
	Integer LogicalType = iota
	Float
	Decimal
	Text
	Blob
	Boolean
	Date
	Time
	Timestamp
	UUID
	JSON
)

// String returns the canonical name of the logical type.
func (t LogicalType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Decimal:
		return "decimal"
	case Text:
		return "text"
	case Blob:
		return "blob"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	case UUID:
		return "uuid"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

// Infer deduces the logical type of a native Go value. It is used when a
// literal is supplied without an explicit type tag, e.g. by the fluent query
// builders. Maps and slices other than []byte infer as JSON.
func Infer(v any) (LogicalType, error) {
	switch v.(type) {
	case nil:
		return Text, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer, nil
	case float32, float64:
		return Float, nil
	case decimal.Decimal:
		return Decimal, nil
	case string:
		return Text, nil
	case []byte:
		return Blob, nil
	case bool:
		return Boolean, nil
	case time.Time:
		return Timestamp, nil
	case uuid.UUID:
		return UUID, nil
	case map[string]any, []any:
		return JSON, nil
	default:
		return Text, dberr.New(dberr.KindConstruction, "", "cannot infer a logical type for value of type %T", v)
	}
}
