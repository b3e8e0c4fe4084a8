package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/query"
	"github.com/asaidimu/go-jenga/core/types"
)

func TestDialectNumbersPlaceholders(t *testing.T) {
	d, reg := NewDialect(), NewRegistry()
	stmt, err := query.New("users", d, reg).
		Columns("id", "name").
		Where(expr.And(
			expr.Gt(expr.Col("age"), expr.Value(18)),
			expr.Eq(expr.Col("status"), expr.Value("active")),
		)).
		OrderByDesc("created_at").
		Limit(10).
		Offset(20).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "name" FROM "users" WHERE ("age" > $1) AND ("status" = $2) ORDER BY "created_at" DESC LIMIT $3 OFFSET $4`,
		stmt.SQL)
	assert.Equal(t, []any{int64(18), "active", int64(10), int64(20)}, stmt.Params)
}

func TestDialectOffsetWithoutLimitAllowed(t *testing.T) {
	d, reg := NewDialect(), NewRegistry()
	stmt, err := query.New("users", d, reg).Offset(5).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" OFFSET $1`, stmt.SQL)
	assert.Equal(t, []any{int64(5)}, stmt.Params)
}

func TestDialectReturningSupported(t *testing.T) {
	d, reg := NewDialect(), NewRegistry()
	stmt, err := query.NewInsert("users", d, reg).
		Columns("name").
		Values("ada").
		Returning("id").
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`, stmt.SQL)
	assert.True(t, stmt.RowReturning())
}

func TestDialectIntersectExcept(t *testing.T) {
	d, reg := NewDialect(), NewRegistry()
	q, err := query.Except(
		query.New("a", d, reg).Columns("x"),
		query.New("b", d, reg).Columns("x"),
	)
	require.NoError(t, err)
	stmt, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `(SELECT "x" FROM "a") EXCEPT (SELECT "x" FROM "b")`, stmt.SQL)
}

func TestRegistryNativeTypes(t *testing.T) {
	reg := NewRegistry()

	// Native boolean stays a bool through encoding.
	v, err := reg.ToDatabase(true, types.Boolean)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	// Native timestamps stay time.Time, normalized to UTC.
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2024, 6, 1, 14, 0, 0, 0, zone)
	v, err = reg.ToDatabase(local, types.Timestamp)
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, ts.Location())
	assert.True(t, local.Equal(ts))

	col, err := reg.ColumnType(types.JSON)
	require.NoError(t, err)
	assert.Equal(t, "JSONB", col)

	col, err = reg.ColumnType(types.UUID)
	require.NoError(t, err)
	assert.Equal(t, "UUID", col)
}
