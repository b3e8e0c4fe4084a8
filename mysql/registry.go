package mysql

import (
	"github.com/asaidimu/go-jenga/core/types"
)

// datetimeLayout is MySQL's DATETIME literal form at microsecond precision.
const datetimeLayout = "2006-01-02 15:04:05.999999"

// NewRegistry builds the MySQL type registry. Booleans ride on TINYINT(1)
// as 0/1, decimals on DECIMAL(65,30) bound as strings so no float ever
// touches the wire, and UUIDs on CHAR(36) in canonical lowercase.
func NewRegistry() *types.Registry {
	r := types.NewRegistry("mysql")
	r.Register(types.Integer, types.IntegerCodec("BIGINT"))
	r.Register(types.Float, types.FloatCodec("DOUBLE"))
	r.Register(types.Decimal, types.DecimalTextCodec("DECIMAL(65,30)"))
	r.Register(types.Text, types.TextCodec("TEXT"))
	r.Register(types.Blob, types.BlobCodec("BLOB"))
	r.Register(types.Boolean, types.BooleanIntegerCodec("TINYINT(1)"))
	r.Register(types.Date, types.TimestampTextCodec("DATE", "2006-01-02"))
	r.Register(types.Time, types.TimestampTextCodec("TIME(6)", "15:04:05.999999"))
	r.Register(types.Timestamp, types.TimestampTextCodec("DATETIME(6)", datetimeLayout))
	r.Register(types.UUID, types.UUIDTextCodec("CHAR(36)"))
	r.Register(types.JSON, types.JSONTextCodec("JSON"))
	return r
}
