package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-jenga/core/dberr"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected LogicalType
	}{
		{"int", 42, Integer},
		{"int64", int64(42), Integer},
		{"uint", uint(7), Integer},
		{"float64", 3.14, Float},
		{"decimal", decimal.RequireFromString("9.99"), Decimal},
		{"string", "hello", Text},
		{"empty string", "", Text},
		{"bytes", []byte{0x01}, Blob},
		{"bool", true, Boolean},
		{"time", time.Now(), Timestamp},
		{"uuid", uuid.New(), UUID},
		{"map", map[string]any{"k": "v"}, JSON},
		{"slice", []any{1, 2}, JSON},
		{"nil", nil, Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Infer(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInferUnknownType(t *testing.T) {
	type opaque struct{}
	_, err := Infer(opaque{})
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))
}

func TestRegistryMissingMapping(t *testing.T) {
	r := NewRegistry("test")
	_, err := r.ToDatabase("x", UUID)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))

	_, err = r.ColumnType(UUID)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))
}

func TestRegistryNilPassesThrough(t *testing.T) {
	r := NewRegistry("test")
	r.Register(Text, TextCodec("TEXT"))

	out, err := r.ToDatabase(nil, Text)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = r.FromDatabase(nil, Text)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRegistryEncodeFailureIsConversion(t *testing.T) {
	r := NewRegistry("test")
	r.Register(UUID, UUIDTextCodec("TEXT"))

	_, err := r.ToDatabase("not-a-uuid", UUID)
	require.Error(t, err)
	assert.True(t, dberr.IsConversion(err))
}

func TestRegistryColumnType(t *testing.T) {
	r := NewRegistry("test")
	r.Register(Boolean, BooleanIntegerCodec("INTEGER"))

	col, err := r.ColumnType(Boolean)
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", col)
}
