package expr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/types"
)

// testDialect is a minimal ANSI dialect with configurable capabilities.
type testDialect struct {
	ANSI
	caps Capabilities
}

func (d *testDialect) Name() string                       { return "test" }
func (d *testDialect) QuoteIdentifier(name string) string { return QuoteWith(name, `"`) }
func (d *testDialect) Placeholder(n int) string           { return QuestionPlaceholder(n) }
func (d *testDialect) Capabilities() Capabilities         { return d.caps }
func (d *testDialect) FormatSetOperator(op SetOperator, all bool) (string, error) {
	return SetOperatorKeyword(d, op, all)
}

func allCaps() Capabilities {
	return Capabilities{
		CTE:                       true,
		RecursiveCTE:              true,
		WindowFunctions:           true,
		Returning:                 true,
		Savepoints:                true,
		RowLocking:                true,
		IntersectExcept:           true,
		NullsOrdering:             true,
		ParenthesizedSetOperands:  true,
		RequiresLimitBeforeOffset: true,
	}
}

func testRegistry() *types.Registry {
	r := types.NewRegistry("test")
	r.Register(types.Integer, types.IntegerCodec("INTEGER"))
	r.Register(types.Float, types.FloatCodec("REAL"))
	r.Register(types.Decimal, types.DecimalTextCodec("TEXT"))
	r.Register(types.Text, types.TextCodec("TEXT"))
	r.Register(types.Boolean, types.BooleanIntegerCodec("INTEGER"))
	return r
}

func render(t *testing.T, n Node) (string, []any) {
	t.Helper()
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	require.NoError(t, n.Render(w))
	return w.SQL(), w.Params()
}

func TestRenderComparison(t *testing.T) {
	tests := []struct {
		name   string
		node   Node
		sql    string
		params []any
	}{
		{
			name:   "eq",
			node:   Eq(Col("age"), Value(18)),
			sql:    `"age" = ?`,
			params: []any{int64(18)},
		},
		{
			name:   "gt with qualified column",
			node:   Gt(ColOf("users", "age"), Value(18)),
			sql:    `"users"."age" > ?`,
			params: []any{int64(18)},
		},
		{
			name:   "neq",
			node:   Neq(Col("status"), Value("active")),
			sql:    `"status" != ?`,
			params: []any{"active"},
		},
		{
			name:   "lte and gte",
			node:   And(Gte(Col("n"), Value(1)), Lte(Col("n"), Value(9))),
			sql:    `("n" >= ?) AND ("n" <= ?)`,
			params: []any{int64(1), int64(9)},
		},
		{
			name:   "column to column",
			node:   Eq(ColOf("a", "id"), ColOf("b", "a_id")),
			sql:    `"a"."id" = "b"."a_id"`,
			params: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params := render(t, tt.node)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestRenderLogicalComposition(t *testing.T) {
	n := And(
		Gt(Col("age"), Value(18)),
		Or(
			Eq(Col("status"), Value("active")),
			Eq(Col("status"), Value("pending")),
		),
	)
	sql, params := render(t, n)
	assert.Equal(t, `("age" > ?) AND (("status" = ?) OR ("status" = ?))`, sql)
	assert.Equal(t, []any{int64(18), "active", "pending"}, params)
}

func TestRenderNot(t *testing.T) {
	sql, params := render(t, Not(Eq(Col("deleted"), Value(true))))
	assert.Equal(t, `NOT ("deleted" = ?)`, sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestLiteralAlwaysBinds(t *testing.T) {
	// A hostile value must never appear in the SQL text.
	hostile := "'; DROP TABLE users; --"
	sql, params := render(t, Eq(Col("name"), Value(hostile)))
	assert.Equal(t, `"name" = ?`, sql)
	assert.Equal(t, []any{hostile}, params)
	assert.NotContains(t, sql, "DROP")
}

func TestQuoteIdentifierDoublesQuotes(t *testing.T) {
	d := &testDialect{caps: allCaps()}
	assert.Equal(t, `"order"`, d.QuoteIdentifier("order"))
	assert.Equal(t, `"na""me"`, d.QuoteIdentifier(`na"me`))
}

func TestRenderLikeEscaping(t *testing.T) {
	tests := []struct {
		name  string
		node  Node
		sql   string
		param string
	}{
		{"contains", Contains(Col("name"), "mid"), `"name" LIKE ? ESCAPE '\'`, "%mid%"},
		{"starts with", StartsWith(Col("name"), "pre"), `"name" LIKE ? ESCAPE '\'`, "pre%"},
		{"ends with", EndsWith(Col("name"), "suf"), `"name" LIKE ? ESCAPE '\'`, "%suf"},
		{"wildcards escaped", Contains(Col("name"), "50%_off"), `"name" LIKE ? ESCAPE '\'`, `%50\%\_off%`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params := render(t, tt.node)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, []any{tt.param}, params)
		})
	}
}

func TestRenderIn(t *testing.T) {
	sql, params := render(t, InList(Col("id"), Value(1), Value(2), Value(3)))
	assert.Equal(t, `"id" IN (?, ?, ?)`, sql)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, params)

	sql, params = render(t, NotInList(Col("id"), Value(1)))
	assert.Equal(t, `"id" NOT IN (?)`, sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestRenderInEmptyListFolds(t *testing.T) {
	sql, params := render(t, InList(Col("id")))
	assert.Equal(t, "1=0", sql)
	assert.Empty(t, params)

	sql, params = render(t, NotInList(Col("id")))
	assert.Equal(t, "1=1", sql)
	assert.Empty(t, params)
}

func TestRenderBetween(t *testing.T) {
	sql, params := render(t, InRange(Col("price"), Value(10), Value(20)))
	assert.Equal(t, `"price" BETWEEN ? AND ?`, sql)
	assert.Equal(t, []any{int64(10), int64(20)}, params)
}

func TestRenderNullCheck(t *testing.T) {
	sql, _ := render(t, IsNull(Col("deleted_at")))
	assert.Equal(t, `"deleted_at" IS NULL`, sql)

	sql, _ = render(t, IsNotNull(Col("deleted_at")))
	assert.Equal(t, `"deleted_at" IS NOT NULL`, sql)
}

func TestRenderAggregate(t *testing.T) {
	tests := []struct {
		name string
		node Node
		sql  string
	}{
		{"count star", CountAll(), `COUNT(*)`},
		{"count column", Count(Col("id")), `COUNT("id")`},
		{"count distinct", Count(Col("city")).DistinctAgg(), `COUNT(DISTINCT "city")`},
		{"sum with alias", Sum(Col("total")).As("sum_total"), `SUM("total") AS "sum_total"`},
		{"avg", Avg(Col("score")), `AVG("score")`},
		{"min", Min(Col("ts")), `MIN("ts")`},
		{"max", Max(Col("ts")), `MAX("ts")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params := render(t, tt.node)
			assert.Equal(t, tt.sql, sql)
			assert.Empty(t, params)
		})
	}
}

func TestAggregateStarRequiresCount(t *testing.T) {
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	err := (&Aggregate{Func: AggSum}).Render(w)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))
}

func TestRenderWindowFunc(t *testing.T) {
	n := Over("row_number", nil, []Node{Col("dept")}, []OrderTerm{Desc(Col("salary"))}).As("rank")
	sql, params := render(t, n)
	assert.Equal(t, `ROW_NUMBER() OVER (PARTITION BY "dept" ORDER BY "salary" DESC) AS "rank"`, sql)
	assert.Empty(t, params)
}

func TestWindowFuncCapabilityGated(t *testing.T) {
	caps := allCaps()
	caps.WindowFunctions = false
	w := NewWriter(&testDialect{caps: caps}, testRegistry())
	err := Over("row_number", nil, nil, nil).Render(w)
	require.Error(t, err)
	assert.True(t, dberr.IsCapability(err))
}

func TestRenderFuncCall(t *testing.T) {
	sql, params := render(t, Call("coalesce", Col("nick"), Value("anon")))
	assert.Equal(t, `COALESCE("nick", ?)`, sql)
	assert.Equal(t, []any{"anon"}, params)
}

func TestRenderCase(t *testing.T) {
	n := &Case{
		Whens: []WhenThen{
			{When: Gt(Col("score"), Value(90)), Then: Value("high")},
			{When: Gt(Col("score"), Value(50)), Then: Value("mid")},
		},
		Else: Value("low"),
	}
	sql, params := render(t, n)
	assert.Equal(t, `CASE WHEN "score" > ? THEN ? WHEN "score" > ? THEN ? ELSE ? END`, sql)
	assert.Equal(t, []any{int64(90), "high", int64(50), "mid", "low"}, params)
}

func TestRenderCaseWithoutBranches(t *testing.T) {
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	err := (&Case{}).Render(w)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))
}

func TestCTERefUndeclaredFails(t *testing.T) {
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	err := RefCTE("ghost").Render(w)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestCTERefDeclaredRenders(t *testing.T) {
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	w.DeclareCTE("tree")
	require.NoError(t, RefCTE("tree").Render(w))
	assert.Equal(t, `"tree"`, w.SQL())
}

func TestFormatLimitOffsetBindsValues(t *testing.T) {
	d := &testDialect{caps: allCaps()}
	w := NewWriter(d, testRegistry())
	limit, offset := int64(10), int64(20)
	require.NoError(t, d.FormatLimitOffset(w, &limit, &offset))
	assert.Equal(t, " LIMIT ? OFFSET ?", w.SQL())
	assert.Equal(t, []any{int64(10), int64(20)}, w.Params())
}

func TestFormatOffsetWithoutLimit(t *testing.T) {
	offset := int64(20)

	strict := &testDialect{caps: allCaps()}
	w := NewWriter(strict, testRegistry())
	err := strict.FormatLimitOffset(w, nil, &offset)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))

	caps := allCaps()
	caps.RequiresLimitBeforeOffset = false
	lenient := &testDialect{caps: caps}
	w = NewWriter(lenient, testRegistry())
	require.NoError(t, lenient.FormatLimitOffset(w, nil, &offset))
	assert.Equal(t, " OFFSET ?", w.SQL())
}

func TestSetOperatorKeyword(t *testing.T) {
	d := &testDialect{caps: allCaps()}

	kw, err := SetOperatorKeyword(d, SetUnion, false)
	require.NoError(t, err)
	assert.Equal(t, "UNION", kw)

	kw, err = SetOperatorKeyword(d, SetUnion, true)
	require.NoError(t, err)
	assert.Equal(t, "UNION ALL", kw)

	kw, err = SetOperatorKeyword(d, SetIntersect, false)
	require.NoError(t, err)
	assert.Equal(t, "INTERSECT", kw)

	_, err = SetOperatorKeyword(d, SetIntersect, true)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))

	caps := allCaps()
	caps.IntersectExcept = false
	_, err = SetOperatorKeyword(&testDialect{caps: caps}, SetExcept, false)
	require.Error(t, err)
	assert.True(t, dberr.IsCapability(err))
}

func TestLockingClauseCapabilityGated(t *testing.T) {
	caps := allCaps()
	caps.RowLocking = false
	d := &testDialect{caps: caps}
	w := NewWriter(d, testRegistry())
	err := d.FormatLockingClause(w)
	require.Error(t, err)
	assert.True(t, dberr.IsCapability(err))
}

func TestOrderTermsNullsPlacement(t *testing.T) {
	terms := []OrderTerm{
		Asc(Col("name")).WithNulls(NullsLast),
		Desc(Col("age")).WithNulls(NullsFirst),
		Asc(Col("id")),
	}
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	require.NoError(t, RenderOrderTerms(w, terms))
	assert.Equal(t, `"name" ASC NULLS LAST, "age" DESC NULLS FIRST, "id" ASC`, w.SQL())
}

func TestOrderTermsNullsCapabilityGated(t *testing.T) {
	caps := allCaps()
	caps.NullsOrdering = false
	w := NewWriter(&testDialect{caps: caps}, testRegistry())
	err := RenderOrderTerms(w, []OrderTerm{Asc(Col("name")).WithNulls(NullsLast)})
	require.Error(t, err)
	assert.True(t, dberr.IsCapability(err))

	// Terms without explicit placement stay renderable.
	w = NewWriter(&testDialect{caps: caps}, testRegistry())
	require.NoError(t, RenderOrderTerms(w, []OrderTerm{Asc(Col("name"))}))
}

func TestParamsFollowPlaceholderOrder(t *testing.T) {
	n := And(
		Gt(Col("a"), Value(1)),
		InList(Col("b"), Value("x"), Value("y")),
		InRange(Col("c"), Value(decimal.RequireFromString("1.50")), Value(decimal.RequireFromString("2.50"))),
	)
	sql, params := render(t, n)
	assert.Equal(t, `("a" > ?) AND ("b" IN (?, ?)) AND ("c" BETWEEN ? AND ?)`, sql)
	assert.Equal(t, []any{int64(1), "x", "y", "1.5", "2.5"}, params)
}

func TestRenderIsRepeatable(t *testing.T) {
	n := And(Gt(Col("age"), Value(18)), Eq(Col("status"), Value("active")))
	sql1, params1 := render(t, n)
	sql2, params2 := render(t, n)
	assert.Equal(t, sql1, sql2)
	assert.Equal(t, params1, params2)
}

func TestValueInferenceFailureSurfacesAtRender(t *testing.T) {
	type opaque struct{ x int }
	w := NewWriter(&testDialect{caps: allCaps()}, testRegistry())
	err := Value(opaque{x: 1}).Render(w)
	require.Error(t, err)
	assert.True(t, dberr.IsConstruction(err))
}
