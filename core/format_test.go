package core

import (
	"testing"

	"github.com/driftwatch/driftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageFormatter(t *testing.T) {
	ds := schema.MustDataset("metric", "deviation")
	require.NoError(t, ds.AppendRow(schema.Text("sessions"), schema.Number(0.1234)))

	f, err := NewPercentageFormatter([]string{"deviation"}, 1, true)
	require.NoError(t, err)

	out, err := f.Apply(ds)
	require.NoError(t, err)

	v, _ := out.Cell(0, "deviation")
	assert.Equal(t, "12.3%", v.String())

	// Untouched columns keep their values.
	v, _ = out.Cell(0, "metric")
	assert.Equal(t, "sessions", v.String())
}

func TestPercentageFormatterNoMultiply(t *testing.T) {
	ds := schema.MustDataset("deviation")
	require.NoError(t, ds.AppendRow(schema.Number(12.345)))

	f, err := NewPercentageFormatter([]string{"deviation"}, 0, false)
	require.NoError(t, err)

	out, err := f.Apply(ds)
	require.NoError(t, err)

	v, _ := out.Cell(0, "deviation")
	assert.Equal(t, "12%", v.String())
}

func TestColumnFormatterSkipsAbsentColumns(t *testing.T) {
	ds := schema.MustDataset("metric")
	require.NoError(t, ds.AppendRow(schema.Text("sessions")))

	f, err := NewPercentageFormatter([]string{"deviation"}, 1, true)
	require.NoError(t, err)

	out, err := f.Apply(ds)
	require.NoError(t, err)
	v, _ := out.Cell(0, "metric")
	assert.Equal(t, "sessions", v.String())
}

func TestColumnFormatterRejectsNonNumeric(t *testing.T) {
	ds := schema.MustDataset("deviation")
	require.NoError(t, ds.AppendRow(schema.Text("lots")))

	f, err := NewPercentageFormatter([]string{"deviation"}, 1, true)
	require.NoError(t, err)

	_, err = f.Apply(ds)
	assert.Error(t, err)
}

func selectorRows(t *testing.T) schema.Dataset {
	t.Helper()
	ds := schema.MustDataset("date", "metric", "status", "deviation")
	require.NoError(t, ds.AppendRow(
		schema.Text("2024-01-01"), schema.Text("sessions"), schema.Text("IN_RANGE"), schema.Number(0),
	))
	return ds
}

func TestIncludeColumns(t *testing.T) {
	s, err := NewIncludeColumns("metric", "status")
	require.NoError(t, err)

	out, err := s.Apply(selectorRows(t))
	require.NoError(t, err)

	// Dataset order wins over the order the names were given in.
	assert.Equal(t, []string{"metric", "status"}, out.Columns())
	assert.Equal(t, 1, out.NumRows())
}

func TestIncludeColumnsMissingIsError(t *testing.T) {
	s, err := NewIncludeColumns("metric", "missing")
	require.NoError(t, err)

	_, err = s.Apply(selectorRows(t))
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "missing")
}

func TestExcludeColumns(t *testing.T) {
	s, err := NewExcludeColumns("deviation", "missing")
	require.NoError(t, err)

	// Absent names are silently ignored in exclude mode.
	out, err := s.Apply(selectorRows(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "metric", "status"}, out.Columns())
}

func TestColumnSelectorValidation(t *testing.T) {
	_, err := NewIncludeColumns()
	assert.Error(t, err)
}
