// Package forecast has the built-in quantile forecaster. It satisfies the
// forecaster boundary so the full pipeline runs end to end without an
// external model: each forecast cell carries the empirical quantiles of the
// metric's history, encoded in the codec's wire format. It fits nothing.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/driftwatch/driftwatch/core"
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
)

// SeasonalQuantile forecasts each metric from the empirical distribution of
// its history. With a season length of n, only observations sharing the
// future date's phase (every n-th row, counted backwards) contribute, which
// captures e.g. weekday patterns at n=7. A season length of zero uses the
// whole history.
type SeasonalQuantile struct {
	DateColumn   string
	SeasonLength int
	Stages       schema.Stages
}

var _ contract.Forecaster = (*SeasonalQuantile)(nil)

// quantileLevels are the nine levels following the point estimate in a
// quantile vector.
var quantileLevels = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Forecast implements contract.Forecaster. History must be in wide shape:
// one date column plus one numeric column per metric, rows in ascending
// date order.
func (f *SeasonalQuantile) Forecast(ctx context.Context, history schema.Dataset, horizon int) (schema.Dataset, error) {
	if horizon <= 0 {
		return schema.Dataset{}, &schema.ConfigurationError{
			Component: "seasonal-quantile",
			Field:     "horizon",
			Reason:    fmt.Sprintf("must be positive, got %d", horizon),
		}
	}
	if f.SeasonLength < 0 {
		return schema.Dataset{}, &schema.ConfigurationError{
			Component: "seasonal-quantile",
			Field:     "season-length",
			Reason:    fmt.Sprintf("must be non-negative, got %d", f.SeasonLength),
		}
	}

	history, err := f.Stages.Run(schema.StageBefore, history)
	if err != nil {
		return schema.Dataset{}, err
	}

	dateColumn := f.DateColumn
	if dateColumn == "" {
		dateColumn = schema.ColDate
	}
	if err := history.RequireRows("seasonal-quantile"); err != nil {
		return schema.Dataset{}, err
	}
	if err := history.RequireColumns("seasonal-quantile", dateColumn); err != nil {
		return schema.Dataset{}, err
	}

	dates, cadence, err := historyDates(history, dateColumn)
	if err != nil {
		return schema.Dataset{}, err
	}

	var metrics []string
	for _, col := range history.Columns() {
		if col != dateColumn {
			metrics = append(metrics, col)
		}
	}
	series := make(map[string][]float64, len(metrics))
	for _, metric := range metrics {
		values, err := metricSeries(history, metric)
		if err != nil {
			return schema.Dataset{}, err
		}
		series[metric] = values
	}

	out, err := schema.NewDataset(append([]string{dateColumn}, metrics...)...)
	if err != nil {
		return schema.Dataset{}, err
	}
	last := dates[len(dates)-1]
	n := history.NumRows()
	for h := 1; h <= horizon; h++ {
		select {
		case <-ctx.Done():
			return schema.Dataset{}, ctx.Err()
		default:
		}

		row := []schema.Value{schema.Date(last.Add(time.Duration(h) * cadence))}
		for _, metric := range metrics {
			sample := f.phaseSample(series[metric], n+h-1)
			vec := quantileVector(sample)
			row = append(row, schema.Text(core.EncodeQuantiles(vec)))
		}
		if err := out.AppendRow(row...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return f.Stages.Run(schema.StageAfter, out)
}

// phaseSample selects the history values sharing the target position's
// seasonal phase. A zero season length returns the full series.
func (f *SeasonalQuantile) phaseSample(values []float64, target int) []float64 {
	if f.SeasonLength == 0 {
		return values
	}
	var sample []float64
	for j, v := range values {
		if (target-j)%f.SeasonLength == 0 {
			sample = append(sample, v)
		}
	}
	if len(sample) == 0 {
		return values
	}
	return sample
}

// quantileVector builds [point, q10..q90] from a sample. The point estimate
// is the sample mean. An empty sample yields the all-zero vector, which the
// detector classifies as NO_FORECAST.
func quantileVector(sample []float64) core.QuantileVector {
	var vec core.QuantileVector
	if len(sample) == 0 {
		return vec
	}
	sorted := append([]float64{}, sample...)
	sort.Float64s(sorted)
	vec[0] = stat.Mean(sorted, nil)
	for i, level := range quantileLevels {
		vec[i+1] = stat.Quantile(level, stat.Empirical, sorted, nil)
	}
	return vec
}

// historyDates parses the date column and derives the sampling cadence from
// the last two rows, defaulting to daily for single-row histories.
func historyDates(ds schema.Dataset, dateColumn string) ([]time.Time, time.Duration, error) {
	dates := make([]time.Time, ds.NumRows())
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, dateColumn)
		t, ok := v.Time()
		if !ok {
			return nil, 0, &schema.ValidationError{
				Component: "seasonal-quantile",
				Reason:    fmt.Sprintf("value %q in column %q is not a date", v.String(), dateColumn),
			}
		}
		dates[r] = t
	}
	cadence := 24 * time.Hour
	if len(dates) >= 2 {
		if d := dates[len(dates)-1].Sub(dates[len(dates)-2]); d > 0 {
			cadence = d
		}
	}
	return dates, cadence, nil
}

// metricSeries extracts a metric's numeric history. Nulls count as zero so
// gaps in sparse metrics do not shift the seasonal phase.
func metricSeries(ds schema.Dataset, metric string) ([]float64, error) {
	values := make([]float64, ds.NumRows())
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, metric)
		if v.IsNull() {
			continue
		}
		n, ok := v.Float()
		if !ok {
			return nil, &schema.ValidationError{
				Component: "seasonal-quantile",
				Reason:    fmt.Sprintf("value %q in column %q is not numeric", v.String(), metric),
			}
		}
		values[r] = n
	}
	return values, nil
}
