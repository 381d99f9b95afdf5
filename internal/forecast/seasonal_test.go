package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/driftwatch/driftwatch/core"
	"github.com/driftwatch/driftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyHistory(t *testing.T, values ...float64) schema.Dataset {
	t.Helper()
	ds := schema.MustDataset("date", "sessions")
	for i, v := range values {
		d := time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, ds.AppendRow(schema.Date(d), schema.Number(v)))
	}
	return ds
}

func decodeCell(t *testing.T, ds schema.Dataset, row int, col string) core.QuantileVector {
	t.Helper()
	v, ok := ds.Cell(row, col)
	require.True(t, ok)
	vec, err := core.DecodeQuantiles(v.String())
	require.NoError(t, err)
	return vec
}

func TestForecastConstantSeries(t *testing.T) {
	f := &SeasonalQuantile{}
	out, err := f.Forecast(context.Background(), dailyHistory(t, 5, 5, 5, 5, 5), 3)
	require.NoError(t, err)

	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, []string{"date", "sessions"}, out.Columns())

	// A constant history forecasts the constant at every quantile.
	vec := decodeCell(t, out, 0, "sessions")
	for i := 0; i < schema.QuantileCount; i++ {
		assert.Equal(t, 5.0, vec[i])
	}
}

func TestForecastContinuesDateCadence(t *testing.T) {
	f := &SeasonalQuantile{}
	out, err := f.Forecast(context.Background(), dailyHistory(t, 1, 2, 3), 2)
	require.NoError(t, err)

	v, _ := out.Cell(0, "date")
	d, ok := v.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), d)

	v, _ = out.Cell(1, "date")
	d, _ = v.Time()
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), d)
}

func TestForecastSeasonalPhase(t *testing.T) {
	// Alternating series with season length 2: each future step draws only
	// from the matching phase.
	f := &SeasonalQuantile{SeasonLength: 2}
	out, err := f.Forecast(context.Background(), dailyHistory(t, 1, 100, 1, 100, 1, 100), 2)
	require.NoError(t, err)

	low := decodeCell(t, out, 0, "sessions")
	high := decodeCell(t, out, 1, "sessions")
	assert.Equal(t, 1.0, low.Point())
	assert.Equal(t, 100.0, high.Point())
	assert.Equal(t, 1.0, low[9])
	assert.Equal(t, 100.0, high[1])
}

func TestForecastNullsCountAsZero(t *testing.T) {
	ds := schema.MustDataset("date", "sessions")
	require.NoError(t, ds.AppendRow(schema.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), schema.Null()))
	require.NoError(t, ds.AppendRow(schema.Date(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), schema.Number(10)))

	f := &SeasonalQuantile{}
	out, err := f.Forecast(context.Background(), ds, 1)
	require.NoError(t, err)

	vec := decodeCell(t, out, 0, "sessions")
	assert.Equal(t, 5.0, vec.Point())
}

func TestForecastValidation(t *testing.T) {
	f := &SeasonalQuantile{}

	_, err := f.Forecast(context.Background(), dailyHistory(t, 1), 0)
	assert.Error(t, err, "horizon must be positive")

	_, err = f.Forecast(context.Background(), schema.MustDataset("date", "sessions"), 1)
	assert.Error(t, err, "empty history rejected")

	bad := schema.MustDataset("date", "sessions")
	require.NoError(t, bad.AppendRow(schema.Text("not a date"), schema.Number(1)))
	_, err = f.Forecast(context.Background(), bad, 1)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)

	bad = schema.MustDataset("date", "sessions")
	require.NoError(t, bad.AppendRow(schema.Text("2024-01-01"), schema.Text("many")))
	_, err = f.Forecast(context.Background(), bad, 1)
	require.ErrorAs(t, err, &verr)

	f = &SeasonalQuantile{SeasonLength: -1}
	_, err = f.Forecast(context.Background(), dailyHistory(t, 1), 1)
	assert.Error(t, err)
}

func TestForecastHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &SeasonalQuantile{}
	_, err := f.Forecast(ctx, dailyHistory(t, 1, 2, 3), 5)
	assert.ErrorIs(t, err, context.Canceled)
}
