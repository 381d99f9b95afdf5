// Package schema has the dataset model, shared types and constants for all parts of driftwatch.
package schema

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind discriminates the cell types a Dataset can hold.
type ValueKind int

// All cell kinds supported.
const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindDate
)

// Value is a single typed cell in a Dataset.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	date time.Time
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Kind returns the value's kind tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric content. Text values that parse as numbers are
// accepted so that values read from flat files behave like native numbers.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		f, err := strconv.ParseFloat(v.str, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Time returns the date content. Text values in YYYY-MM-DD or RFC3339 form
// are accepted so that values read from flat files behave like native dates.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.date, true
	case KindText:
		if t, err := time.Parse(DateFormat, v.str); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, v.str); err == nil {
			return t, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// String renders the value for display and flat-file output.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.str
	case KindDate:
		return v.date.Format(DateFormat)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return true
	}
}

// Dataset is an ordered sequence of rows over a fixed, ordered set of unique
// column names. Datasets are value types: every transformer consumes one and
// produces a new one, so callers never see cross-stage aliasing.
type Dataset struct {
	columns []string
	byName  map[string]int
	rows    [][]Value
}

// NewDataset creates an empty dataset with the given column names.
// Column names must be non-empty and unique.
func NewDataset(columns ...string) (Dataset, error) {
	byName := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return Dataset{}, &ValidationError{Component: "dataset", Reason: "column names must be non-empty"}
		}
		if _, dup := byName[c]; dup {
			return Dataset{}, &ValidationError{
				Component: "dataset",
				Reason:    fmt.Sprintf("duplicate column name %q", c),
			}
		}
		byName[c] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Dataset{columns: cols, byName: byName}, nil
}

// MustDataset is NewDataset that panics on invalid columns. Test helper.
func MustDataset(columns ...string) Dataset {
	ds, err := NewDataset(columns...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Columns returns a copy of the column names in order.
func (d Dataset) Columns() []string {
	cols := make([]string, len(d.columns))
	copy(cols, d.columns)
	return cols
}

// NumColumns returns the number of columns.
func (d Dataset) NumColumns() int { return len(d.columns) }

// NumRows returns the number of rows.
func (d Dataset) NumRows() int { return len(d.rows) }

// IsEmpty reports whether the dataset has no rows.
func (d Dataset) IsEmpty() bool { return len(d.rows) == 0 }

// HasColumn reports whether the named column exists.
func (d Dataset) HasColumn(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// ColumnIndex returns the position of the named column, or -1.
func (d Dataset) ColumnIndex(name string) int {
	if i, ok := d.byName[name]; ok {
		return i
	}
	return -1
}

// AppendRow appends one row. The number of values must match the column count.
func (d *Dataset) AppendRow(values ...Value) error {
	if len(values) != len(d.columns) {
		return &ValidationError{
			Component: "dataset",
			Reason:    fmt.Sprintf("row has %d values, dataset has %d columns", len(values), len(d.columns)),
		}
	}
	row := make([]Value, len(values))
	copy(row, values)
	d.rows = append(d.rows, row)
	return nil
}

// Row returns a copy of the i-th row in column order.
func (d Dataset) Row(i int) []Value {
	row := make([]Value, len(d.rows[i]))
	copy(row, d.rows[i])
	return row
}

// Cell returns the value at (row, column name).
func (d Dataset) Cell(row int, column string) (Value, bool) {
	i, ok := d.byName[column]
	if !ok || row < 0 || row >= len(d.rows) {
		return Value{}, false
	}
	return d.rows[row][i], true
}

// Column returns all values of the named column in row order.
func (d Dataset) Column(name string) ([]Value, error) {
	i, ok := d.byName[name]
	if !ok {
		return nil, &ValidationError{
			Component: "dataset",
			Reason:    fmt.Sprintf("column %q not found", name),
			Missing:   []string{name},
			Available: d.Columns(),
		}
	}
	out := make([]Value, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Clone returns a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	out, _ := NewDataset(d.columns...)
	out.rows = make([][]Value, len(d.rows))
	for i, row := range d.rows {
		cp := make([]Value, len(row))
		copy(cp, row)
		out.rows[i] = cp
	}
	return out
}

// RequireColumns verifies that all named columns exist, returning a
// ValidationError that enumerates the missing and available names otherwise.
// component identifies the caller in the error message.
func (d Dataset) RequireColumns(component string, names ...string) error {
	var missing []string
	for _, n := range names {
		if !d.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Component: component,
			Reason:    "required columns not found",
			Missing:   missing,
			Available: d.Columns(),
		}
	}
	return nil
}

// RequireRows verifies that the dataset is non-empty. component identifies
// the caller in the error message.
func (d Dataset) RequireRows(component string) error {
	if d.IsEmpty() {
		return &ValidationError{Component: component, Reason: "dataset has no rows"}
	}
	return nil
}

// Records converts the dataset into one map per row, keyed by column name.
// Numbers stay numeric, nulls become nil, everything else takes its display
// form. The maps marshal cleanly to JSON.
func (d Dataset) Records() []map[string]any {
	out := make([]map[string]any, 0, len(d.rows))
	for _, row := range d.rows {
		obj := make(map[string]any, len(d.columns))
		for i, col := range d.columns {
			switch row[i].Kind() {
			case KindNumber:
				f, _ := row[i].Float()
				obj[col] = f
			case KindNull:
				obj[col] = nil
			default:
				obj[col] = row[i].String()
			}
		}
		out = append(out, obj)
	}
	return out
}
