package postgres

import (
	"time"

	"github.com/asaidimu/go-jenga/core/types"
)

// NewRegistry builds the PostgreSQL type registry. PostgreSQL has native
// storage for almost everything: booleans stay booleans, timestamps ride
// on TIMESTAMPTZ, UUIDs on the uuid type, and JSON on JSONB. Decimals
// still travel as strings so precision never leaks through a float.
func NewRegistry() *types.Registry {
	r := types.NewRegistry("postgres")
	r.Register(types.Integer, types.IntegerCodec("BIGINT"))
	r.Register(types.Float, types.FloatCodec("DOUBLE PRECISION"))
	r.Register(types.Decimal, types.DecimalTextCodec("NUMERIC"))
	r.Register(types.Text, types.TextCodec("TEXT"))
	r.Register(types.Blob, types.BlobCodec("BYTEA"))
	r.Register(types.Boolean, types.BooleanNativeCodec("BOOLEAN"))
	r.Register(types.Date, types.TimestampTextCodec("DATE", "2006-01-02"))
	r.Register(types.Time, types.TimestampTextCodec("TIME", "15:04:05.999999"))
	r.Register(types.Timestamp, types.TimestampNativeCodec("TIMESTAMPTZ", time.RFC3339Nano))
	r.Register(types.UUID, types.UUIDTextCodec("UUID"))
	r.Register(types.JSON, types.JSONTextCodec("JSONB"))
	return r
}
