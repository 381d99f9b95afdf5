package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/driftwatch/driftwatch/schema"
)

// DetectorConfig holds the comparison parameters for a detection run.
type DetectorConfig struct {
	// DateColumn is the alignment key shared by forecast and actual
	// datasets. Defaults to "date".
	DateColumn string

	// LowerIdx and UpperIdx select the interval bounds inside the quantile
	// vector. Defaults are 1 (q10) and 9 (q90); both must be valid indices
	// with LowerIdx < UpperIdx.
	LowerIdx int
	UpperIdx int

	// DimensionNames, when set, splits each composite metric key into that
	// many ordered dimension columns in the output.
	DimensionNames []string

	// DimensionMappings renders raw metric tokens through display labels,
	// keyed by dimension name. Tokens without a mapping entry pass through,
	// title-cased when TitleCaseDimensions is set.
	DimensionMappings map[string]DimensionMapping

	// TitleCaseDimensions title-cases unmapped dimension tokens.
	TitleCaseDimensions bool
}

// Detector compares model-produced quantile forecasts against observed
// actual values and classifies each (date, metric) cell. The before stage
// runs on the actual dataset (typically a pivot into the forecast's wide
// shape); the after stage runs on the anomaly output.
type Detector struct {
	cfg    DetectorConfig
	stages schema.Stages
}

// NewDetector validates the configuration and creates a detector.
func NewDetector(cfg DetectorConfig, stages schema.Stages) (*Detector, error) {
	if cfg.DateColumn == "" {
		cfg.DateColumn = schema.ColDate
	}
	if cfg.LowerIdx == 0 && cfg.UpperIdx == 0 {
		cfg.LowerIdx = schema.DefaultLowerIdx
		cfg.UpperIdx = schema.DefaultUpperIdx
	}
	if cfg.LowerIdx < 0 || cfg.UpperIdx > schema.QuantileCount-1 || cfg.LowerIdx >= cfg.UpperIdx {
		return nil, &schema.ConfigurationError{
			Component: "detector",
			Field:     "quantile indices",
			Reason: fmt.Sprintf("want 0 <= lower < upper <= %d, got lower=%d upper=%d",
				schema.QuantileCount-1, cfg.LowerIdx, cfg.UpperIdx),
		}
	}
	return &Detector{cfg: cfg, stages: stages}, nil
}

// Stages returns the detector's stage lists.
func (d *Detector) Stages() schema.Stages { return d.stages }

// Detect aligns the forecast and actual datasets on the date column, decodes
// every forecast cell, classifies it against the observed value and returns
// one anomaly row per (date, metric) cell.
func (d *Detector) Detect(forecast, actual schema.Dataset) (schema.Dataset, error) {
	if err := forecast.RequireRows("detector: forecast"); err != nil {
		return schema.Dataset{}, err
	}
	if err := actual.RequireRows("detector: actual"); err != nil {
		return schema.Dataset{}, err
	}

	actual, err := d.stages.Run(schema.StageBefore, actual)
	if err != nil {
		return schema.Dataset{}, err
	}

	if err := forecast.RequireColumns("detector: forecast", d.cfg.DateColumn); err != nil {
		return schema.Dataset{}, err
	}
	if err := actual.RequireColumns("detector: actual", d.cfg.DateColumn); err != nil {
		return schema.Dataset{}, err
	}

	actualByDate, err := indexByDate(actual, d.cfg.DateColumn)
	if err != nil {
		return schema.Dataset{}, err
	}

	var metrics []string
	for _, col := range forecast.Columns() {
		if col != d.cfg.DateColumn {
			metrics = append(metrics, col)
		}
	}
	for _, metric := range metrics {
		if !actual.HasColumn(metric) {
			return schema.Dataset{}, &schema.AlignmentError{
				Metric: metric,
				Reason: "forecast metric absent from actual dataset",
			}
		}
	}

	out, err := schema.NewDataset(schema.AnomalyColumns...)
	if err != nil {
		return schema.Dataset{}, err
	}
	for r := 0; r < forecast.NumRows(); r++ {
		dateCell, _ := forecast.Cell(r, d.cfg.DateColumn)
		dateKey := dateKeyOf(dateCell)
		actualRow, ok := actualByDate[dateKey]
		if !ok {
			return schema.Dataset{}, &schema.AlignmentError{
				Date:   dateKey,
				Reason: "no actual row for forecast date",
			}
		}
		for _, metric := range metrics {
			cell, _ := forecast.Cell(r, metric)
			vec, err := DecodeQuantiles(cell.String())
			if err != nil {
				var dec *schema.DecodingError
				if errors.As(err, &dec) {
					dec.Date = dateKey
					dec.Metric = metric
				}
				return schema.Dataset{}, err
			}

			actualCell, _ := actual.Cell(actualRow, metric)
			actualVal := 0.0
			if !actualCell.IsNull() {
				n, ok := actualCell.Float()
				if !ok {
					return schema.Dataset{}, &schema.ValidationError{
						Component: "detector",
						Reason: fmt.Sprintf("actual value %q at date=%s metric=%s is not numeric",
							actualCell.String(), dateKey, metric),
					}
				}
				actualVal = n
			}

			status, devAbs, dev := Classify(vec, actualVal, d.cfg.LowerIdx, d.cfg.UpperIdx)
			err = out.AppendRow(
				dateCell,
				schema.Text(metric),
				schema.Number(actualVal),
				schema.Number(vec.Point()),
				schema.Number(vec[d.cfg.LowerIdx]),
				schema.Number(vec[d.cfg.UpperIdx]),
				schema.Text(string(status)),
				schema.Number(devAbs),
				schema.Number(dev),
			)
			if err != nil {
				return schema.Dataset{}, err
			}
		}
	}

	if len(d.cfg.DimensionNames) > 0 {
		out, err = d.splitDimensions(out)
		if err != nil {
			return schema.Dataset{}, err
		}
	}

	return d.stages.Run(schema.StageAfter, out)
}

// Classify compares an actual value against the configured interval of a
// quantile vector. It returns the status, the absolute deviation from the
// violated bound, and the deviation as a signed fraction of that bound.
//
// A vector whose point estimate and both bounds are all zero carries no
// forecast at all and classifies as NO_FORECAST. A genuine zero bound on an
// out-of-range value cannot serve as a divisor; the fraction falls back to
// the magnitude of the actual value instead of producing an infinity.
// Boundary values are in range: actual == lower and actual == upper both
// classify as IN_RANGE.
func Classify(vec QuantileVector, actual float64, lowerIdx, upperIdx int) (schema.Status, float64, float64) {
	lower, upper := vec[lowerIdx], vec[upperIdx]

	if vec.Point() == 0 && lower == 0 && upper == 0 {
		return schema.StatusNoForecast, 0, 0
	}
	switch {
	case actual < lower:
		devAbs := lower - actual
		dev := math.Abs(actual)
		if lower != 0 {
			dev = devAbs / lower
		}
		return schema.StatusBelowLower, devAbs, dev
	case actual > upper:
		devAbs := actual - upper
		dev := math.Abs(actual)
		if upper != 0 {
			dev = devAbs / upper
		}
		return schema.StatusAboveUpper, devAbs, dev
	default:
		return schema.StatusInRange, 0, 0
	}
}

// splitDimensions replaces the metric column with one column per configured
// dimension name, rendering each raw token through its dimension's mapping.
func (d *Detector) splitDimensions(ds schema.Dataset) (schema.Dataset, error) {
	var outCols []string
	for _, col := range ds.Columns() {
		if col == schema.ColMetric {
			outCols = append(outCols, d.cfg.DimensionNames...)
		} else {
			outCols = append(outCols, col)
		}
	}
	out, err := schema.NewDataset(outCols...)
	if err != nil {
		return schema.Dataset{}, err
	}

	metricIdx := ds.ColumnIndex(schema.ColMetric)
	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		parts, err := SplitMetricKey(row[metricIdx].String(), len(d.cfg.DimensionNames))
		if err != nil {
			return schema.Dataset{}, err
		}
		var vals []schema.Value
		for i, v := range row {
			if i != metricIdx {
				vals = append(vals, v)
				continue
			}
			for j, part := range parts {
				mapping := d.cfg.DimensionMappings[d.cfg.DimensionNames[j]]
				vals = append(vals, schema.Text(mapping.Label(part, d.cfg.TitleCaseDimensions)))
			}
		}
		if err := out.AppendRow(vals...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}

// indexByDate maps the canonical date key of each row to its row number.
// Duplicate dates make the alignment ambiguous and are rejected.
func indexByDate(ds schema.Dataset, dateColumn string) (map[string]int, error) {
	index := make(map[string]int, ds.NumRows())
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, dateColumn)
		key := dateKeyOf(v)
		if _, dup := index[key]; dup {
			return nil, &schema.ValidationError{
				Component: "detector",
				Reason:    fmt.Sprintf("duplicate date %q in actual dataset", key),
			}
		}
		index[key] = r
	}
	return index, nil
}

// dateKeyOf renders a value as a canonical alignment key: dates in
// YYYY-MM-DD form, everything else via its display form.
func dateKeyOf(v schema.Value) string {
	if t, ok := v.Time(); ok {
		return t.Format(schema.DateFormat)
	}
	return v.String()
}
