package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/driftwatch/driftwatch/schema"
)

// DateRangeFilter keeps rows whose date column falls in [start, end], both
// bounds inclusive, either bound optional (zero time means unbounded).
type DateRangeFilter struct {
	column string
	start  time.Time
	end    time.Time
}

var _ schema.Transformer = (*DateRangeFilter)(nil)

// NewDateRangeFilter creates a date range filter on the named column.
// At least one bound must be set.
func NewDateRangeFilter(column string, start, end time.Time) (*DateRangeFilter, error) {
	if column == "" {
		return nil, &schema.ConfigurationError{Component: "date-range-filter", Field: "column", Reason: "date column is required"}
	}
	if start.IsZero() && end.IsZero() {
		return nil, &schema.ConfigurationError{Component: "date-range-filter", Field: "start/end", Reason: "at least one bound must be set"}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, &schema.ConfigurationError{
			Component: "date-range-filter",
			Field:     "start/end",
			Reason:    fmt.Sprintf("start %s is after end %s", start.Format(schema.DateFormat), end.Format(schema.DateFormat)),
		}
	}
	return &DateRangeFilter{column: column, start: start, end: end}, nil
}

// Name implements schema.Transformer.
func (f *DateRangeFilter) Name() string { return "date-range-filter" }

// Apply implements schema.Transformer.
func (f *DateRangeFilter) Apply(ds schema.Dataset) (schema.Dataset, error) {
	if ds.IsEmpty() {
		return ds.Clone(), nil
	}
	if err := ds.RequireColumns(f.Name(), f.column); err != nil {
		return schema.Dataset{}, err
	}
	out, _ := schema.NewDataset(ds.Columns()...)
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, f.column)
		t, ok := v.Time()
		if !ok {
			return schema.Dataset{}, &schema.ValidationError{
				Component: f.Name(),
				Reason:    fmt.Sprintf("value %q in column %q is not a date", v.String(), f.column),
			}
		}
		if !f.start.IsZero() && t.Before(f.start) {
			continue
		}
		if !f.end.IsZero() && t.After(f.end) {
			continue
		}
		if err := out.AppendRow(ds.Row(r)...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}

// ValueFilter keeps or drops rows by categorical membership on a column, or
// keeps rows within a numeric [min, max] range. Exactly one mode is active
// per instance; the constructors make mixing unrepresentable.
type ValueFilter struct {
	column  string
	include map[string]bool // categorical include set
	exclude map[string]bool // categorical exclude set
	min     *float64
	max     *float64
}

var _ schema.Transformer = (*ValueFilter)(nil)

// NewIncludeFilter keeps rows whose column value is in the given set.
func NewIncludeFilter(column string, values ...string) (*ValueFilter, error) {
	return newCategoricalFilter(column, values, true)
}

// NewExcludeFilter drops rows whose column value is in the given set.
func NewExcludeFilter(column string, values ...string) (*ValueFilter, error) {
	return newCategoricalFilter(column, values, false)
}

func newCategoricalFilter(column string, values []string, include bool) (*ValueFilter, error) {
	if column == "" {
		return nil, &schema.ConfigurationError{Component: "value-filter", Field: "column", Reason: "column is required"}
	}
	if len(values) == 0 {
		return nil, &schema.ConfigurationError{Component: "value-filter", Field: "values", Reason: "at least one value is required"}
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	f := &ValueFilter{column: column}
	if include {
		f.include = set
	} else {
		f.exclude = set
	}
	return f, nil
}

// NewRangeFilter keeps rows whose numeric column value lies within
// [min, max]. Either bound may be nil for unbounded.
func NewRangeFilter(column string, min, max *float64) (*ValueFilter, error) {
	if column == "" {
		return nil, &schema.ConfigurationError{Component: "value-filter", Field: "column", Reason: "column is required"}
	}
	if min == nil && max == nil {
		return nil, &schema.ConfigurationError{Component: "value-filter", Field: "min/max", Reason: "at least one bound must be set"}
	}
	if min != nil && max != nil && *min > *max {
		return nil, &schema.ConfigurationError{
			Component: "value-filter",
			Field:     "min/max",
			Reason:    fmt.Sprintf("min %v is greater than max %v", *min, *max),
		}
	}
	return &ValueFilter{column: column, min: min, max: max}, nil
}

// Name implements schema.Transformer.
func (f *ValueFilter) Name() string { return "value-filter" }

// Apply implements schema.Transformer.
func (f *ValueFilter) Apply(ds schema.Dataset) (schema.Dataset, error) {
	if ds.IsEmpty() {
		return ds.Clone(), nil
	}
	if err := ds.RequireColumns(f.Name(), f.column); err != nil {
		return schema.Dataset{}, err
	}
	out, _ := schema.NewDataset(ds.Columns()...)
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, f.column)
		keep, err := f.keeps(v)
		if err != nil {
			return schema.Dataset{}, err
		}
		if !keep {
			continue
		}
		if err := out.AppendRow(ds.Row(r)...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}

func (f *ValueFilter) keeps(v schema.Value) (bool, error) {
	switch {
	case f.include != nil:
		return f.include[v.String()], nil
	case f.exclude != nil:
		return !f.exclude[v.String()], nil
	default:
		n, ok := v.Float()
		if !ok {
			return false, &schema.ValidationError{
				Component: f.Name(),
				Reason:    fmt.Sprintf("value %q in column %q is not numeric", v.String(), f.column),
			}
		}
		if f.min != nil && n < *f.min {
			return false, nil
		}
		if f.max != nil && n > *f.max {
			return false, nil
		}
		return true, nil
	}
}

// Float64 returns a pointer to f. Convenience for range filter bounds.
func Float64(f float64) *float64 { return &f }

// CumulativeThresholdFilter keeps the minimal prefix of rows, sorted
// descending by a numeric column, whose running sum reaches the configured
// fraction of the column's total. The boundary row that first reaches the
// threshold is retained. Output rows appear in descending order of the
// target column; ties preserve the original relative order.
//
// Degenerate case: a total sum <= 0 offers no meaningful ranking, so all
// rows are retained unchanged.
type CumulativeThresholdFilter struct {
	column    string
	threshold float64
}

var _ schema.Transformer = (*CumulativeThresholdFilter)(nil)

// NewCumulativeThresholdFilter creates a cumulative threshold filter on the
// named numeric column. threshold must be in (0, 1].
func NewCumulativeThresholdFilter(column string, threshold float64) (*CumulativeThresholdFilter, error) {
	if column == "" {
		return nil, &schema.ConfigurationError{Component: "cumulative-threshold-filter", Field: "column", Reason: "column is required"}
	}
	if threshold <= 0 || threshold > 1 {
		return nil, &schema.ConfigurationError{
			Component: "cumulative-threshold-filter",
			Field:     "threshold",
			Reason:    fmt.Sprintf("threshold must be in (0, 1], got %v", threshold),
		}
	}
	return &CumulativeThresholdFilter{column: column, threshold: threshold}, nil
}

// Name implements schema.Transformer.
func (f *CumulativeThresholdFilter) Name() string { return "cumulative-threshold-filter" }

// Apply implements schema.Transformer.
func (f *CumulativeThresholdFilter) Apply(ds schema.Dataset) (schema.Dataset, error) {
	if ds.IsEmpty() {
		return ds.Clone(), nil
	}
	if err := ds.RequireColumns(f.Name(), f.column); err != nil {
		return schema.Dataset{}, err
	}

	values := make([]float64, ds.NumRows())
	total := 0.0
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, f.column)
		n, ok := v.Float()
		if !ok {
			return schema.Dataset{}, &schema.ValidationError{
				Component: f.Name(),
				Reason:    fmt.Sprintf("value %q in column %q is not numeric", v.String(), f.column),
			}
		}
		values[r] = n
		total += n
	}
	if total <= 0 {
		return ds.Clone(), nil
	}

	order := make([]int, ds.NumRows())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	target := f.threshold * total
	out, _ := schema.NewDataset(ds.Columns()...)
	running := 0.0
	for _, r := range order {
		if err := out.AppendRow(ds.Row(r)...); err != nil {
			return schema.Dataset{}, err
		}
		running += values[r]
		if running >= target {
			break
		}
	}
	return out, nil
}
