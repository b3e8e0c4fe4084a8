package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// This file provides the codec building blocks shared by the backend
// registries. Each backend assembles its registry from these, choosing the
// native column type and, where a backend lacks a native representation,
// the deterministic text or integer encoding.

// IntegerCodec stores whole numbers as 64-bit integers.
func IntegerCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) { return cast.ToInt64E(v) },
		Decode: func(v any) (any, error) { return cast.ToInt64E(v) },
	}
}

// FloatCodec stores floating-point numbers as float64.
func FloatCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) { return cast.ToFloat64E(v) },
		Decode: func(v any) (any, error) { return cast.ToFloat64E(v) },
	}
}

// DecimalTextCodec stores exact decimals as their canonical string form.
// Values never pass through float64, so no precision is lost.
func DecimalTextCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) {
			switch d := v.(type) {
			case decimal.Decimal:
				return d.String(), nil
			case string:
				parsed, err := decimal.NewFromString(d)
				if err != nil {
					return nil, err
				}
				return parsed.String(), nil
			case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
				n, err := cast.ToInt64E(v)
				if err != nil {
					return nil, err
				}
				return decimal.NewFromInt(n).String(), nil
			default:
				return nil, fmt.Errorf("expected decimal.Decimal or string, got %T", v)
			}
		},
		Decode: func(v any) (any, error) {
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, err
			}
			return decimal.NewFromString(s)
		},
	}
}

// TextCodec stores strings verbatim.
func TextCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) { return cast.ToStringE(v) },
		Decode: func(v any) (any, error) { return cast.ToStringE(v) },
	}
}

// BlobCodec stores raw bytes verbatim.
func BlobCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) {
			switch b := v.(type) {
			case []byte:
				return b, nil
			case string:
				return []byte(b), nil
			default:
				return nil, fmt.Errorf("expected []byte, got %T", v)
			}
		},
		Decode: func(v any) (any, error) {
			switch b := v.(type) {
			case []byte:
				return b, nil
			case string:
				return []byte(b), nil
			default:
				return nil, fmt.Errorf("expected []byte, got %T", v)
			}
		},
	}
}

// BooleanIntegerCodec stores booleans as INTEGER 0/1 for backends without a
// native boolean type. Decoding maps any non-zero integer back to true, so
// the round trip always yields a native bool, never a bare 0 or 1.
func BooleanIntegerCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return nil, err
			}
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		},
		Decode: func(v any) (any, error) { return cast.ToBoolE(v) },
	}
}

// BooleanNativeCodec stores booleans as the backend's native boolean type.
func BooleanNativeCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) { return cast.ToBoolE(v) },
		Decode: func(v any) (any, error) { return cast.ToBoolE(v) },
	}
}

// timeFromAny accepts the shapes drivers hand back for temporal columns.
func timeFromAny(v any, layouts ...string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string, []byte:
		s, _ := cast.ToStringE(v)
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
	default:
		return time.Time{}, fmt.Errorf("expected time.Time or string, got %T", v)
	}
}

// TimestampTextCodec stores timestamps as UTC-normalized text in the given
// layout. Storage is always UTC; local zones are converted on the way in.
func TimestampTextCodec(column, layout string, extra ...string) Codec {
	layouts := append([]string{layout}, extra...)
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) {
			t, err := timeFromAny(v, layouts...)
			if err != nil {
				return nil, err
			}
			return t.Format(layout), nil
		},
		Decode: func(v any) (any, error) { return timeFromAny(v, layouts...) },
	}
}

// TimestampNativeCodec stores timestamps through the driver's native
// temporal type, still UTC-normalized on the way in.
func TimestampNativeCodec(column string, layouts ...string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) { return timeFromAny(v, layouts...) },
		Decode: func(v any) (any, error) { return timeFromAny(v, layouts...) },
	}
}

// UUIDTextCodec stores UUIDs as lowercase hex text.
func UUIDTextCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) {
			switch u := v.(type) {
			case uuid.UUID:
				return strings.ToLower(u.String()), nil
			case string:
				parsed, err := uuid.Parse(u)
				if err != nil {
					return nil, err
				}
				return strings.ToLower(parsed.String()), nil
			case []byte:
				parsed, err := uuid.ParseBytes(u)
				if err != nil {
					return nil, err
				}
				return strings.ToLower(parsed.String()), nil
			default:
				return nil, fmt.Errorf("expected uuid.UUID or string, got %T", v)
			}
		},
		Decode: func(v any) (any, error) {
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, err
			}
			return uuid.Parse(s)
		},
	}
}

// JSONTextCodec stores structured values as serialized JSON text.
func JSONTextCodec(column string) Codec {
	return Codec{
		Column: column,
		Encode: func(v any) (any, error) {
			switch j := v.(type) {
			case string:
				if !json.Valid([]byte(j)) {
					return nil, fmt.Errorf("string is not valid JSON")
				}
				return j, nil
			case []byte:
				if !json.Valid(j) {
					return nil, fmt.Errorf("bytes are not valid JSON")
				}
				return string(j), nil
			default:
				encoded, err := json.Marshal(v)
				if err != nil {
					return nil, err
				}
				return string(encoded), nil
			}
		},
		Decode: func(v any) (any, error) {
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, err
			}
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil, err
			}
			return decoded, nil
		},
	}
}
