// Package bankdata defines the shared data model for the FDIC chat pipeline:
// typed result rows, schema metadata, and the store contract the query
// executor fulfills.
package bankdata

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the closed set of cell value variants.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindDate
)

// Value is one cell of a result row. Exactly one of the payload fields is
// meaningful, selected by Kind. Decimal database values are carried as
// KindFloat, matching how results are serialized to callers.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Date  time.Time
}

func Null() Value                { return Value{Kind: KindNull} }
func IntValue(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func TextValue(v string) Value   { return Value{Kind: KindText, Text: v} }
func DateValue(v time.Time) Value {
	return Value{Kind: KindDate, Date: v}
}

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Numeric returns the value as a float64 when it is numeric, or when it is
// text that parses as a number. Numeric strings arrive from NUMERIC columns
// scanned through database/sql.
func (v Value) Numeric() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the value for display without any unit or magnitude
// formatting. Formatting policy lives in the respond package.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindDate:
		return v.Date.Format("2006-01-02")
	default:
		return v.Text
	}
}

// MarshalJSON serializes the underlying variant, so rows round-trip to API
// clients as plain JSON scalars.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindDate:
		return json.Marshal(v.Date.Format("2006-01-02"))
	default:
		return json.Marshal(v.Text)
	}
}

// Row is an ordered column-name/value pairing. Rows are immutable once
// fetched; transformations produce new rows.
type Row struct {
	Columns []string
	Values  []Value
}

// Get returns the value for a column by name.
func (r Row) Get(column string) (Value, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return Value{}, false
}

// With returns a copy of the row with an extra column appended.
func (r Row) With(column string, value Value) Row {
	columns := make([]string, 0, len(r.Columns)+1)
	columns = append(columns, r.Columns...)
	values := make([]Value, 0, len(r.Values)+1)
	values = append(values, r.Values...)
	return Row{Columns: append(columns, column), Values: append(values, value)}
}

// MarshalJSON renders the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, name := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

// ColumnInfo describes one column of a working-schema table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableInfo describes one table of the working schema.
type TableInfo struct {
	Name     string       `json:"name"`
	RowCount int64        `json:"row_count"`
	Columns  []ColumnInfo `json:"columns"`
}

// SchemaInfo is the metadata snapshot the schema context builder renders.
type SchemaInfo struct {
	Tables []TableInfo `json:"tables"`
}

// Store is the database collaborator: read-only query execution with the
// configured statement timeout and row cap, plus schema metadata.
type Store interface {
	RunReadOnlyQuery(ctx context.Context, sql string) ([]Row, error)
	SchemaInfo(ctx context.Context) (SchemaInfo, error)
	HealthCheck(ctx context.Context) error
}
