package core

import (
	"fmt"

	"github.com/driftwatch/driftwatch/schema"
)

// FormatFunc maps one cell value to another for a configured column.
type FormatFunc func(schema.Value) (schema.Value, error)

// ColumnFormatter applies a per-column value-mapping function. Columns
// configured but absent from the dataset are skipped, so one formatter can
// serve datasets of varying shape (e.g. before and after dimension
// splitting).
type ColumnFormatter struct {
	formatters map[string]FormatFunc
}

var _ schema.Transformer = (*ColumnFormatter)(nil)

// NewColumnFormatter creates a formatter from column name to FormatFunc.
func NewColumnFormatter(formatters map[string]FormatFunc) (*ColumnFormatter, error) {
	if len(formatters) == 0 {
		return nil, &schema.ConfigurationError{Component: "column-formatter", Field: "formatters", Reason: "at least one column is required"}
	}
	return &ColumnFormatter{formatters: formatters}, nil
}

// NewPercentageFormatter creates a formatter rendering the named numeric
// columns as percentages with the given number of decimal places. When
// multiplyBy100 is set, values are scaled from fractions to percent first.
func NewPercentageFormatter(columns []string, decimalPlaces int, multiplyBy100 bool) (*ColumnFormatter, error) {
	if decimalPlaces < 0 {
		return nil, &schema.ConfigurationError{
			Component: "column-formatter",
			Field:     "decimal-places",
			Reason:    fmt.Sprintf("must be non-negative, got %d", decimalPlaces),
		}
	}
	fn := Percentage(decimalPlaces, multiplyBy100)
	formatters := make(map[string]FormatFunc, len(columns))
	for _, col := range columns {
		formatters[col] = fn
	}
	return NewColumnFormatter(formatters)
}

// Percentage returns a FormatFunc that renders a numeric value with the
// given number of decimal places followed by a percent sign.
func Percentage(decimalPlaces int, multiplyBy100 bool) FormatFunc {
	return func(v schema.Value) (schema.Value, error) {
		n, ok := v.Float()
		if !ok {
			return schema.Value{}, &schema.ValidationError{
				Component: "column-formatter",
				Reason:    fmt.Sprintf("value %q is not numeric", v.String()),
			}
		}
		if multiplyBy100 {
			n *= 100
		}
		return schema.Text(fmt.Sprintf("%.*f%%", decimalPlaces, n)), nil
	}
}

// Name implements schema.Transformer.
func (f *ColumnFormatter) Name() string { return "column-formatter" }

// Apply implements schema.Transformer.
func (f *ColumnFormatter) Apply(ds schema.Dataset) (schema.Dataset, error) {
	out, _ := schema.NewDataset(ds.Columns()...)
	cols := ds.Columns()
	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		for i, col := range cols {
			fn, ok := f.formatters[col]
			if !ok {
				continue
			}
			v, err := fn(row[i])
			if err != nil {
				return schema.Dataset{}, fmt.Errorf("column %q row %d: %w", col, r, err)
			}
			row[i] = v
		}
		if err := out.AppendRow(row...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}

// ColumnSelector keeps or drops a named set of columns. Include mode keeps
// exactly the named columns in the dataset's existing relative order and
// treats an absent name as a configuration error; exclude mode drops the
// named columns and silently ignores absent ones.
type ColumnSelector struct {
	names   []string
	include bool
}

var _ schema.Transformer = (*ColumnSelector)(nil)

// NewIncludeColumns keeps exactly the named columns.
func NewIncludeColumns(names ...string) (*ColumnSelector, error) {
	return newColumnSelector(names, true)
}

// NewExcludeColumns drops the named columns.
func NewExcludeColumns(names ...string) (*ColumnSelector, error) {
	return newColumnSelector(names, false)
}

func newColumnSelector(names []string, include bool) (*ColumnSelector, error) {
	if len(names) == 0 {
		return nil, &schema.ConfigurationError{Component: "column-selector", Field: "columns", Reason: "at least one column is required"}
	}
	return &ColumnSelector{names: append([]string{}, names...), include: include}, nil
}

// Name implements schema.Transformer.
func (s *ColumnSelector) Name() string { return "column-selector" }

// Apply implements schema.Transformer.
func (s *ColumnSelector) Apply(ds schema.Dataset) (schema.Dataset, error) {
	selected := make(map[string]bool, len(s.names))
	for _, n := range s.names {
		selected[n] = true
	}

	if s.include {
		if err := ds.RequireColumns(s.Name(), s.names...); err != nil {
			return schema.Dataset{}, err
		}
	}

	var keep []string
	var keepIdx []int
	for i, col := range ds.Columns() {
		if selected[col] == s.include {
			keep = append(keep, col)
			keepIdx = append(keepIdx, i)
		}
	}
	out, err := schema.NewDataset(keep...)
	if err != nil {
		return schema.Dataset{}, err
	}
	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		vals := make([]schema.Value, len(keepIdx))
		for i, idx := range keepIdx {
			vals[i] = row[idx]
		}
		if err := out.AppendRow(vals...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}
