package query

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/expr"
)

// recordFields flattens a struct or map into a field map keyed by column
// name. Structs go through their JSON tags so column names match the wire
// names the application already maintains. Nested objects and arrays stay
// as maps and slices, which bind as JSON parameters.
func recordFields(record any, dialect string) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, dberr.New(dberr.KindConstruction, dialect, "record cannot be nil")
	}
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, dberr.New(dberr.KindConstruction, dialect, "record cannot be a nil pointer")
		}
		val = val.Elem()
	}
	switch val.Kind() {
	case reflect.Struct, reflect.Map:
	default:
		return nil, dberr.New(dberr.KindConstruction, dialect, "record must be a struct or a map, got %s", val.Kind())
	}

	raw, err := json.Marshal(val.Interface())
	if err != nil {
		return nil, dberr.Wrap(err, dberr.KindConversion, dialect, "record could not be serialized")
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, dberr.Wrap(err, dberr.KindConversion, dialect, "record did not flatten to named fields")
	}
	return fields, nil
}

func sortedFieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record derives a row from a struct's JSON-tagged fields or from a map.
// The first Record call fixes the column list in sorted field order;
// subsequent records must carry every column already fixed. Mixing Record
// with an explicit Columns call is allowed as long as the record covers the
// named columns.
func (q *InsertQuery) Record(record any) *InsertQuery {
	name := q.dialect.Name()
	fields, err := recordFields(record, name)
	if err != nil {
		q.err = err
		return q
	}
	if len(q.columns) == 0 {
		q.columns = sortedFieldNames(fields)
	}
	row := make([]expr.Node, len(q.columns))
	for i, col := range q.columns {
		v, ok := fields[col]
		if !ok {
			q.err = dberr.New(dberr.KindConstruction, name, "record is missing column %q", col).WithClause("VALUES")
			return q
		}
		row[i] = expr.Value(v)
	}
	q.rows = append(q.rows, row)
	return q
}

// SetRecord assigns every field of a struct or map, in sorted field order.
func (q *UpdateQuery) SetRecord(record any) *UpdateQuery {
	fields, err := recordFields(record, q.dialect.Name())
	if err != nil {
		q.err = err
		return q
	}
	for _, col := range sortedFieldNames(fields) {
		q.sets = append(q.sets, setClause{column: col, value: expr.Value(fields[col])})
	}
	return q
}
