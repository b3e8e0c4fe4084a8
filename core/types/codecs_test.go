package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip encodes a value and decodes the result, returning both.
func roundTrip(t *testing.T, c Codec, v any) (encoded, decoded any) {
	t.Helper()
	encoded, err := c.Encode(v)
	require.NoError(t, err)
	decoded, err = c.Decode(encoded)
	require.NoError(t, err)
	return encoded, decoded
}

func TestIntegerCodecRoundTrip(t *testing.T) {
	c := IntegerCodec("INTEGER")
	for _, v := range []any{0, -1, int64(1 << 40), int32(7)} {
		encoded, decoded := roundTrip(t, c, v)
		assert.IsType(t, int64(0), encoded)
		assert.Equal(t, encoded, decoded)
	}
}

func TestBooleanIntegerCodec(t *testing.T) {
	c := BooleanIntegerCodec("INTEGER")

	encoded, err := c.Encode(true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), encoded)

	encoded, err = c.Encode(false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), encoded)

	// The round trip yields a native bool, never a bare integer.
	decoded, err := c.Decode(int64(1))
	require.NoError(t, err)
	assert.Equal(t, true, decoded)

	decoded, err = c.Decode(int64(0))
	require.NoError(t, err)
	assert.Equal(t, false, decoded)
}

func TestDecimalTextCodecKeepsPrecision(t *testing.T) {
	c := DecimalTextCodec("TEXT")
	tests := []string{"0", "-12.50", "0.1", "99999999999999999999.999999999999"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			d := decimal.RequireFromString(s)
			encoded, err := c.Encode(d)
			require.NoError(t, err)
			// Encoded form is text, never a float.
			assert.IsType(t, "", encoded)

			decoded, err := c.Decode(encoded)
			require.NoError(t, err)
			assert.True(t, d.Equal(decoded.(decimal.Decimal)), "%s round-tripped to %s", d, decoded)
		})
	}
}

func TestDecimalTextCodecRejectsFloats(t *testing.T) {
	c := DecimalTextCodec("TEXT")
	_, err := c.Encode(0.1)
	require.Error(t, err)
}

func TestTextCodecRoundTrip(t *testing.T) {
	c := TextCodec("TEXT")
	for _, s := range []string{"", "hello", "with 'quotes' and \"more\""} {
		encoded, decoded := roundTrip(t, c, s)
		assert.Equal(t, s, encoded)
		assert.Equal(t, s, decoded)
	}
}

func TestTimestampTextCodecNormalizesToUTC(t *testing.T) {
	c := TimestampTextCodec("TEXT", time.RFC3339Nano, time.RFC3339)

	zone := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2024, 6, 1, 15, 30, 0, 0, zone)

	encoded, err := c.Encode(local)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T12:30:00Z", encoded)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.True(t, local.Equal(decoded.(time.Time)))
	assert.Equal(t, time.UTC, decoded.(time.Time).Location())
}

func TestTimestampTextCodecEpoch(t *testing.T) {
	c := TimestampTextCodec("TEXT", time.RFC3339Nano, time.RFC3339)
	epoch := time.Unix(0, 0).UTC()
	encoded, decoded := roundTrip(t, c, epoch)
	assert.Equal(t, "1970-01-01T00:00:00Z", encoded)
	assert.True(t, epoch.Equal(decoded.(time.Time)))
}

func TestUUIDTextCodec(t *testing.T) {
	c := UUIDTextCodec("TEXT")
	u := uuid.MustParse("6B29FC40-CA47-1067-B31D-00DD010662DA")

	encoded, err := c.Encode(u)
	require.NoError(t, err)
	// Canonical form is lowercase regardless of input case.
	assert.Equal(t, "6b29fc40-ca47-1067-b31d-00dd010662da", encoded)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestUUIDTextCodecRejectsGarbage(t *testing.T) {
	c := UUIDTextCodec("TEXT")
	_, err := c.Encode("not-a-uuid")
	require.Error(t, err)
}

func TestJSONTextCodec(t *testing.T) {
	c := JSONTextCodec("TEXT")

	encoded, decoded := roundTrip(t, c, map[string]any{"a": float64(1)})
	assert.Equal(t, `{"a":1}`, encoded)
	assert.Equal(t, map[string]any{"a": float64(1)}, decoded)

	// Empty object round-trips to an empty map, not nil.
	encoded, decoded = roundTrip(t, c, map[string]any{})
	assert.Equal(t, `{}`, encoded)
	assert.Equal(t, map[string]any{}, decoded)
}

func TestJSONTextCodecValidatesStrings(t *testing.T) {
	c := JSONTextCodec("TEXT")

	encoded, err := c.Encode(`{"ok":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, encoded)

	_, err = c.Encode(`{not json`)
	require.Error(t, err)
}

func TestBlobCodecRoundTrip(t *testing.T) {
	c := BlobCodec("BLOB")
	b := []byte{0x00, 0xff, 0x10}
	encoded, decoded := roundTrip(t, c, b)
	assert.Equal(t, b, encoded)
	assert.Equal(t, b, decoded)
}
