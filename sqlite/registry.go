package sqlite

import (
	"time"

	"github.com/asaidimu/go-jenga/core/types"
)

// NewRegistry builds the SQLite type registry. SQLite has no native
// boolean, decimal, UUID, JSON or timestamp storage, so those map onto
// INTEGER 0/1 and canonical TEXT encodings that round-trip exactly.
func NewRegistry() *types.Registry {
	r := types.NewRegistry("sqlite")
	r.Register(types.Integer, types.IntegerCodec("INTEGER"))
	r.Register(types.Float, types.FloatCodec("REAL"))
	r.Register(types.Decimal, types.DecimalTextCodec("TEXT"))
	r.Register(types.Text, types.TextCodec("TEXT"))
	r.Register(types.Blob, types.BlobCodec("BLOB"))
	r.Register(types.Boolean, types.BooleanIntegerCodec("INTEGER"))
	r.Register(types.Date, types.TimestampTextCodec("TEXT", "2006-01-02"))
	r.Register(types.Time, types.TimestampTextCodec("TEXT", "15:04:05.999999999"))
	r.Register(types.Timestamp, types.TimestampTextCodec("TEXT", time.RFC3339Nano, time.RFC3339))
	r.Register(types.UUID, types.UUIDTextCodec("TEXT"))
	r.Register(types.JSON, types.JSONTextCodec("TEXT"))
	return r
}
