package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		kind      StatementKind
		returning bool
	}{
		{"select", "SELECT * FROM t", StatementSelect, false},
		{"lowercase select", "select 1", StatementSelect, false},
		{"with", "WITH x AS (SELECT 1) SELECT * FROM x", StatementSelect, false},
		{"pragma", "PRAGMA foreign_keys = ON", StatementSelect, false},
		{"insert", "INSERT INTO t (a) VALUES (?)", StatementDML, false},
		{"insert returning", "INSERT INTO t (a) VALUES (?) RETURNING id", StatementDML, true},
		{"update", "UPDATE t SET a = ?", StatementDML, false},
		{"delete returning", "DELETE FROM t WHERE id = ? RETURNING id", StatementDML, true},
		{"create table", "CREATE TABLE t (id INTEGER)", StatementDDL, false},
		{"drop", "DROP TABLE t", StatementDDL, false},
		{"alter", "ALTER TABLE t ADD COLUMN b TEXT", StatementDDL, false},
		{"leading whitespace", "  \n\tSELECT 1", StatementSelect, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, returning := Classify(tt.sql)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.returning, returning)
		})
	}
}

func TestClassifyReturningIsWordBounded(t *testing.T) {
	// A column merely named like the keyword must not flip the flag.
	kind, returning := Classify("UPDATE t SET returning_id = ?")
	assert.Equal(t, StatementDML, kind)
	assert.False(t, returning)
}

func TestRowReturning(t *testing.T) {
	assert.True(t, (&Statement{Kind: StatementSelect}).RowReturning())
	assert.False(t, (&Statement{Kind: StatementDML}).RowReturning())
	assert.True(t, (&Statement{Kind: StatementDML, Returning: true}).RowReturning())
	assert.False(t, (&Statement{Kind: StatementDDL}).RowReturning())
}

func TestStatementKindString(t *testing.T) {
	assert.Equal(t, "select", StatementSelect.String())
	assert.Equal(t, "dml", StatementDML.String())
	assert.Equal(t, "ddl", StatementDDL.String())
}
