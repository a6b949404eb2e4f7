package models

import (
	"fmt"
	"time"
)

// ColumnType identifies the value domain of a column. Values in a Record
// must be nil, string, int64 or time.Time according to the column type.
type ColumnType string

const (
	// ColumnTypeUTF8 indicates a nullable string column
	ColumnTypeUTF8 ColumnType = "UTF8"
	// ColumnTypeInt64 indicates a nullable 64bit integer column
	ColumnTypeInt64 ColumnType = "INT64"
	// ColumnTypeTimestamp indicates a nullable timestamp column. Carried as
	// time.Time in memory and TIMESTAMP_MILLIS (UTC) on disk.
	ColumnTypeTimestamp ColumnType = "TIMESTAMP"
)

// Column is one field of a tabular schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered column set. Order is preserved end to end: transform
// output, parquet file and relational table all use the same column order.
type Schema []Column

// Names returns column names in schema order.
func (x Schema) Names() []string {
	names := make([]string, len(x))
	for i, col := range x {
		names[i] = col.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (x Schema) Index(name string) int {
	for i, col := range x {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Record holds one row of values aligned with a Schema.
type Record []interface{}

// Table is the uniform tabular representation moved between pipeline
// components: transformer output, columnar artifact content and the
// materialized result of a warehouse extract.
type Table struct {
	Schema  Schema
	Records []Record
}

// NewTable creates an empty table with the given schema.
func NewTable(schema Schema) *Table {
	return &Table{Schema: schema}
}

// Append adds one record. The record length must match the schema.
func (x *Table) Append(rec Record) error {
	if len(rec) != len(x.Schema) {
		return fmt.Errorf("record has %d values, schema has %d columns", len(rec), len(x.Schema))
	}
	x.Records = append(x.Records, rec)
	return nil
}

// Rows returns records as plain value slices for bulk interfaces.
func (x *Table) Rows() [][]interface{} {
	rows := make([][]interface{}, len(x.Records))
	for i, rec := range x.Records {
		rows[i] = rec
	}
	return rows
}

// CoerceValue normalizes a parsed value to the column's value domain.
// Unconvertible values become nil rather than failing the record.
func CoerceValue(t ColumnType, v interface{}) interface{} {
	if v == nil {
		return nil
	}

	switch t {
	case ColumnTypeUTF8:
		switch s := v.(type) {
		case string:
			return s
		default:
			return fmt.Sprintf("%v", v)
		}

	case ColumnTypeInt64:
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case float64:
			return int64(n)
		default:
			return nil
		}

	case ColumnTypeTimestamp:
		switch ts := v.(type) {
		case time.Time:
			return ts.UTC()
		default:
			return nil
		}
	}

	return nil
}
