package types

import (
	"github.com/asaidimu/go-jenga/core/dberr"
)

// Codec converts values of one logical type between their native application
// representation and the representation the backend stores. Both directions
// must be deterministic and round-trippable: a backend with no native
// representation for a type defines an encoding (boolean as 0/1, UUID as
// lowercase hex text) instead of losing precision.
type Codec struct {
	// Column is the native column type used in DDL for this logical type.
	Column string

	// Encode converts a native application value into the value handed to
	// the driver as a bind parameter.
	Encode func(v any) (any, error)

	// Decode converts a value read from the driver back into the native
	// application representation.
	Decode func(v any) (any, error)
}

// Registry is the complete type-mapping table for one dialect. It is built
// explicitly at startup, passed by reference to whatever needs it, and
// treated as read-only afterwards; there is no process-wide registry.
type Registry struct {
	dialect string
	codecs  map[LogicalType]Codec
}

// NewRegistry creates an empty registry for the named dialect.
func NewRegistry(dialect string) *Registry {
	return &Registry{
		dialect: dialect,
		codecs:  make(map[LogicalType]Codec),
	}
}

// Dialect returns the name of the dialect this registry serves.
func (r *Registry) Dialect() string {
	return r.dialect
}

// Register installs the codec for a logical type. Registering the same type
// twice replaces the earlier entry; registries are expected to be fully
// built before first use and never mutated afterwards.
func (r *Registry) Register(t LogicalType, c Codec) {
	r.codecs[t] = c
}

// codec looks up the codec for a logical type. A missing mapping is a
// construction error, not an execution error.
func (r *Registry) codec(t LogicalType) (Codec, error) {
	c, ok := r.codecs[t]
	if !ok {
		return Codec{}, dberr.New(dberr.KindConstruction, r.dialect, "no type mapping registered for logical type %s", t)
	}
	return c, nil
}

// ColumnType returns the native column type for a logical type.
func (r *Registry) ColumnType(t LogicalType) (string, error) {
	c, err := r.codec(t)
	if err != nil {
		return "", err
	}
	return c.Column, nil
}

// ToDatabase converts a native value into the backend's storage
// representation for the given logical type. Nil passes through unchanged.
func (r *Registry) ToDatabase(v any, t LogicalType) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, err := r.codec(t)
	if err != nil {
		return nil, err
	}
	out, err := c.Encode(v)
	if err != nil {
		return nil, dberr.Wrap(err, dberr.KindConversion, r.dialect, "cannot encode %T as %s", v, t)
	}
	return out, nil
}

// FromDatabase converts a value read from the backend into its native
// application representation for the given logical type. Nil passes through
// unchanged. A value that cannot be decoded is a conversion error and is
// never guessed at.
func (r *Registry) FromDatabase(v any, t LogicalType) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, err := r.codec(t)
	if err != nil {
		return nil, err
	}
	out, err := c.Decode(v)
	if err != nil {
		return nil, dberr.Wrap(err, dberr.KindConversion, r.dialect, "cannot decode %T as %s", v, t)
	}
	return out, nil
}
