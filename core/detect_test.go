package core

import (
	"testing"

	"github.com/driftwatch/driftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const encodedCentered = "100|90|92|95|97|100|102|105|107|110"

// TestClassify covers the status taxonomy: every value maps to exactly one
// status and boundary values are in range.
func TestClassify(t *testing.T) {
	vec, err := DecodeQuantiles(encodedCentered)
	require.NoError(t, err)

	tests := []struct {
		name       string
		actual     float64
		wantStatus schema.Status
		wantDevAbs float64
		wantDev    float64
	}{
		{name: "inside interval", actual: 95, wantStatus: schema.StatusInRange},
		{name: "on lower bound", actual: 90, wantStatus: schema.StatusInRange},
		{name: "on upper bound", actual: 110, wantStatus: schema.StatusInRange},
		{name: "below lower", actual: 80, wantStatus: schema.StatusBelowLower, wantDevAbs: 10, wantDev: 10.0 / 90.0},
		{name: "above upper", actual: 121, wantStatus: schema.StatusAboveUpper, wantDevAbs: 11, wantDev: 11.0 / 110.0},
		{name: "far below", actual: -10, wantStatus: schema.StatusBelowLower, wantDevAbs: 100, wantDev: 100.0 / 90.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, devAbs, dev := Classify(vec, tt.actual, 1, 9)
			assert.Equal(t, tt.wantStatus, status)
			assert.InDelta(t, tt.wantDevAbs, devAbs, 1e-12)
			assert.InDelta(t, tt.wantDev, dev, 1e-12)
		})
	}
}

func TestClassifyNoForecast(t *testing.T) {
	// All-zero point and bounds mean the model produced nothing.
	status, devAbs, dev := Classify(QuantileVector{}, 42, 1, 9)
	assert.Equal(t, schema.StatusNoForecast, status)
	assert.Zero(t, devAbs)
	assert.Zero(t, dev)

	// A vector with a nonzero point but zero bounds is a real forecast.
	vec := QuantileVector{5}
	status, _, _ = Classify(vec, 0, 1, 9)
	assert.Equal(t, schema.StatusInRange, status)
}

func TestClassifyZeroBoundFallback(t *testing.T) {
	// Lower bound is zero; the fraction falls back to |actual| rather than
	// dividing by zero.
	vec := QuantileVector{5, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	status, devAbs, dev := Classify(vec, -3, 1, 9)
	assert.Equal(t, schema.StatusBelowLower, status)
	assert.Equal(t, 3.0, devAbs)
	assert.Equal(t, 3.0, dev)
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name    string
		lower   int
		upper   int
		wantErr bool
	}{
		{name: "defaults", lower: 0, upper: 0, wantErr: false},
		{name: "custom interval", lower: 2, upper: 8, wantErr: false},
		{name: "lower equals upper", lower: 5, upper: 5, wantErr: true},
		{name: "inverted", lower: 8, upper: 2, wantErr: true},
		{name: "upper out of range", lower: 1, upper: 10, wantErr: true},
		{name: "lower negative", lower: -1, upper: 9, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDetector(DetectorConfig{LowerIdx: tt.lower, UpperIdx: tt.upper}, schema.Stages{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func forecastFixture(t *testing.T) schema.Dataset {
	t.Helper()
	ds := schema.MustDataset("date", "sessions", "orders")
	require.NoError(t, ds.AppendRow(
		schema.Text("2024-01-01"),
		schema.Text(encodedCentered),
		schema.Text("50|45|46|47|48|50|52|53|54|55"),
	))
	require.NoError(t, ds.AppendRow(
		schema.Text("2024-01-02"),
		schema.Text(encodedCentered),
		schema.Text("0|0|0|0|0|0|0|0|0|0"),
	))
	return ds
}

func actualFixture(t *testing.T) schema.Dataset {
	t.Helper()
	ds := schema.MustDataset("date", "sessions", "orders")
	require.NoError(t, ds.AppendRow(schema.Text("2024-01-01"), schema.Number(95), schema.Number(60)))
	require.NoError(t, ds.AppendRow(schema.Text("2024-01-02"), schema.Number(80), schema.Null()))
	return ds
}

func TestDetect(t *testing.T) {
	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	out, err := d.Detect(forecastFixture(t), actualFixture(t))
	require.NoError(t, err)

	assert.Equal(t, schema.AnomalyColumns, out.Columns())
	// One output row per (date, metric) cell.
	require.Equal(t, 4, out.NumRows())

	status := func(r int) string {
		v, _ := out.Cell(r, schema.ColStatus)
		return v.String()
	}

	// date 1: sessions 95 in [90, 110], orders 60 above 55.
	assert.Equal(t, "IN_RANGE", status(0))
	assert.Equal(t, "ABOVE_UPPER", status(1))
	// date 2: sessions 80 below 90, orders all-zero vector.
	assert.Equal(t, "BELOW_LOWER", status(2))
	assert.Equal(t, "NO_FORECAST", status(3))

	dev, _ := out.Cell(2, schema.ColDeviation)
	n, _ := dev.Float()
	assert.InDelta(t, 10.0/90.0, n, 1e-12)

	// Null actual counts as zero.
	v, _ := out.Cell(3, schema.ColActual)
	assert.True(t, v.Equal(schema.Number(0)))
}

func TestDetectRejectsDuplicateActualDates(t *testing.T) {
	actual := actualFixture(t)
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Number(1), schema.Number(2)))

	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(forecastFixture(t), actual)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "duplicate date")
}

func TestDetectRejectsMissingMetric(t *testing.T) {
	actual := schema.MustDataset("date", "sessions")
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Number(95)))
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-02"), schema.Number(80)))

	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(forecastFixture(t), actual)
	var aerr *schema.AlignmentError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "orders", aerr.Metric)
}

func TestDetectRejectsMissingActualDate(t *testing.T) {
	actual := schema.MustDataset("date", "sessions", "orders")
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Number(95), schema.Number(60)))

	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(forecastFixture(t), actual)
	var aerr *schema.AlignmentError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "2024-01-02", aerr.Date)
}

func TestDetectEnrichesDecodingErrors(t *testing.T) {
	forecast := schema.MustDataset("date", "sessions")
	require.NoError(t, forecast.AppendRow(schema.Text("2024-01-01"), schema.Text("broken")))
	actual := schema.MustDataset("date", "sessions")
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Number(1)))

	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(forecast, actual)
	var derr *schema.DecodingError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "2024-01-01", derr.Date)
	assert.Equal(t, "sessions", derr.Metric)
}

func TestDetectRejectsNonNumericActual(t *testing.T) {
	actual := schema.MustDataset("date", "sessions", "orders")
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Text("many"), schema.Number(60)))
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-02"), schema.Number(80), schema.Number(50)))

	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(forecastFixture(t), actual)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDetectSplitsDimensions(t *testing.T) {
	forecast := schema.MustDataset("date", "united-states_mobile")
	require.NoError(t, forecast.AppendRow(schema.Text("2024-01-01"), schema.Text(encodedCentered)))
	actual := schema.MustDataset("date", "united-states_mobile")
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Number(95)))

	d, err := NewDetector(DetectorConfig{
		DimensionNames: []string{"Country", "Device"},
		DimensionMappings: map[string]DimensionMapping{
			"Country": {"united-states": "United States"},
		},
		TitleCaseDimensions: true,
	}, schema.Stages{})
	require.NoError(t, err)

	out, err := d.Detect(forecast, actual)
	require.NoError(t, err)

	// The metric column is replaced in place by the dimension columns.
	assert.Equal(t, []string{
		schema.ColDate, "Country", "Device", schema.ColActual, schema.ColForecast,
		schema.ColLower, schema.ColUpper, schema.ColStatus,
		schema.ColDeviationAbs, schema.ColDeviation,
	}, out.Columns())

	country, _ := out.Cell(0, "Country")
	assert.Equal(t, "United States", country.String())
	device, _ := out.Cell(0, "Device")
	assert.Equal(t, "Mobile", device.String())
}

func TestDetectDimensionCountMismatch(t *testing.T) {
	forecast := schema.MustDataset("date", "sessions")
	require.NoError(t, forecast.AppendRow(schema.Text("2024-01-01"), schema.Text(encodedCentered)))
	actual := schema.MustDataset("date", "sessions")
	require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Number(95)))

	d, err := NewDetector(DetectorConfig{DimensionNames: []string{"Country", "Device"}}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(forecast, actual)
	var aerr *schema.AlignmentError
	require.ErrorAs(t, err, &aerr)
}

// TestDetectWithStages runs the full composition: pivot long actuals before
// detection, then filter the anomaly output to the dominant metrics.
func TestDetectWithStages(t *testing.T) {
	forecast := schema.MustDataset("date", "a", "b", "c", "d")
	require.NoError(t, forecast.AppendRow(
		schema.Text("2024-01-01"),
		schema.Text("40|39|39|39|39|40|41|41|41|41"),
		schema.Text("30|29|29|29|29|30|31|31|31|31"),
		schema.Text("20|19|19|19|19|20|21|21|21|21"),
		schema.Text("10|9|9|9|9|10|11|11|11|11"),
	))

	actual := schema.MustDataset("date", "metric", "value")
	for metric, value := range map[string]float64{"a": 40, "b": 35, "c": 20, "d": 10} {
		require.NoError(t, actual.AppendRow(schema.Text("2024-01-01"), schema.Text(metric), schema.Number(value)))
	}

	pivot, err := NewPivot([]string{"date"}, []string{"metric"}, "value")
	require.NoError(t, err)
	threshold, err := NewCumulativeThresholdFilter(schema.ColForecast, 0.7)
	require.NoError(t, err)

	d, err := NewDetector(DetectorConfig{}, schema.Stages{
		Before: []schema.Transformer{pivot},
		After:  []schema.Transformer{threshold},
	})
	require.NoError(t, err)

	out, err := d.Detect(forecast, actual)
	require.NoError(t, err)

	// Forecast volumes 40+30 cover 70% of 100, so only those two metrics
	// survive, ordered by descending forecast.
	require.Equal(t, 2, out.NumRows())
	m0, _ := out.Cell(0, schema.ColMetric)
	m1, _ := out.Cell(1, schema.ColMetric)
	assert.Equal(t, "a", m0.String())
	assert.Equal(t, "b", m1.String())

	s1, _ := out.Cell(1, schema.ColStatus)
	assert.Equal(t, "ABOVE_UPPER", s1.String())
}

func TestDetectEmptyInputs(t *testing.T) {
	d, err := NewDetector(DetectorConfig{}, schema.Stages{})
	require.NoError(t, err)

	_, err = d.Detect(schema.MustDataset("date"), actualFixture(t))
	assert.Error(t, err)

	_, err = d.Detect(forecastFixture(t), schema.MustDataset("date"))
	assert.Error(t, err)
}
