package core

import (
	"fmt"
	"strings"

	"github.com/driftwatch/driftwatch/schema"
)

// Pivot reshapes long rows (one row per index x dimension-combination x
// value) into wide rows (one row per index, one column per distinct
// dimension-combination). New column names are the normalized dimension
// tokens joined with the metric delimiter.
//
// Duplicate (index, dimension-combination) pairs are rejected: an ambiguous
// collapse would silently discard data.
type Pivot struct {
	index   []string
	columns []string
	values  string
}

var _ schema.Transformer = (*Pivot)(nil)

// NewPivot creates a pivot over the given index column(s), dimension
// column(s) and values column.
func NewPivot(index []string, columns []string, values string) (*Pivot, error) {
	if len(index) == 0 {
		return nil, &schema.ConfigurationError{Component: "pivot", Field: "index", Reason: "at least one index column is required"}
	}
	if len(columns) == 0 {
		return nil, &schema.ConfigurationError{Component: "pivot", Field: "columns", Reason: "at least one dimension column is required"}
	}
	if values == "" {
		return nil, &schema.ConfigurationError{Component: "pivot", Field: "values", Reason: "values column is required"}
	}
	return &Pivot{index: index, columns: columns, values: values}, nil
}

// Name implements schema.Transformer.
func (p *Pivot) Name() string { return "pivot" }

// Columns returns the dimension column names, in order. The detector uses
// this to validate dimension splitting against the pivot configuration.
func (p *Pivot) Columns() []string {
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}

// Apply implements schema.Transformer. Output rows appear in first-seen
// index order and metric columns in first-seen order, so the reshape is
// deterministic for a given input.
func (p *Pivot) Apply(ds schema.Dataset) (schema.Dataset, error) {
	if err := ds.RequireRows("pivot"); err != nil {
		return schema.Dataset{}, err
	}
	required := append(append([]string{}, p.index...), p.columns...)
	required = append(required, p.values)
	if err := ds.RequireColumns("pivot", required...); err != nil {
		return schema.Dataset{}, err
	}

	type cellKey struct {
		index  string
		metric string
	}

	var indexKeys []string
	indexRows := make(map[string][]schema.Value) // index key -> index column values
	var metrics []string
	metricSeen := make(map[string]bool)
	cells := make(map[cellKey]schema.Value)

	for r := 0; r < ds.NumRows(); r++ {
		idxParts := make([]string, len(p.index))
		idxValues := make([]schema.Value, len(p.index))
		for i, col := range p.index {
			v, _ := ds.Cell(r, col)
			idxParts[i] = v.String()
			idxValues[i] = v
		}
		indexKey := strings.Join(idxParts, schema.MetricDelimiter)

		dimParts := make([]string, len(p.columns))
		for i, col := range p.columns {
			v, _ := ds.Cell(r, col)
			dimParts[i] = NormalizeToken(v.String())
		}
		metric := strings.Join(dimParts, schema.MetricDelimiter)

		if _, seen := indexRows[indexKey]; !seen {
			indexKeys = append(indexKeys, indexKey)
			indexRows[indexKey] = idxValues
		}
		if !metricSeen[metric] {
			metricSeen[metric] = true
			metrics = append(metrics, metric)
		}

		key := cellKey{index: indexKey, metric: metric}
		if _, dup := cells[key]; dup {
			return schema.Dataset{}, &schema.ValidationError{
				Component: "pivot",
				Reason:    fmt.Sprintf("duplicate cell for index %q and combination %q", indexKey, metric),
			}
		}
		v, _ := ds.Cell(r, p.values)
		cells[key] = v
	}

	outCols := append(append([]string{}, p.index...), metrics...)
	out, err := schema.NewDataset(outCols...)
	if err != nil {
		return schema.Dataset{}, err
	}
	for _, indexKey := range indexKeys {
		row := append([]schema.Value{}, indexRows[indexKey]...)
		for _, metric := range metrics {
			if v, ok := cells[cellKey{index: indexKey, metric: metric}]; ok {
				row = append(row, v)
			} else {
				row = append(row, schema.Null())
			}
		}
		if err := out.AppendRow(row...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}
