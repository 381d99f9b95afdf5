package outwriter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftwatch/driftwatch/schema"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultRows(t *testing.T) schema.Dataset {
	t.Helper()
	ds := schema.MustDataset("date", "metric", "actual", "status")
	require.NoError(t, ds.AppendRow(
		schema.Text("2024-01-01"), schema.Text("sessions"), schema.Number(95.456), schema.Text("IN_RANGE"),
	))
	require.NoError(t, ds.AppendRow(
		schema.Text("2024-01-02"), schema.Text("sessions"), schema.Number(80), schema.Text("BELOW_LOWER"),
	))
	return ds
}

func TestRenderCellPrecision(t *testing.T) {
	w := &OutWriter{Precision: 2}

	assert.Equal(t, "95.46", w.renderCell(schema.Number(95.456)))
	assert.Equal(t, "sessions", w.renderCell(schema.Text("sessions")))
	assert.Equal(t, "", w.renderCell(schema.Null()))

	w.Precision = 0
	assert.Equal(t, "95", w.renderCell(schema.Number(95.456)))
}

func TestColorStatus(t *testing.T) {
	// Force escape codes so the assertion works off a terminal.
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	assert.Contains(t, colorStatus("BELOW_LOWER"), "BELOW_LOWER")
	assert.NotEqual(t, "BELOW_LOWER", colorStatus("BELOW_LOWER"))
	assert.NotEqual(t, "IN_RANGE", colorStatus("IN_RANGE"))
	assert.NotEqual(t, "NO_FORECAST", colorStatus("NO_FORECAST"))
	assert.Equal(t, "weird", colorStatus("weird"))
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &OutWriter{Mode: schema.CSVOut, File: path, Precision: 2}

	require.NoError(t, w.Write(context.Background(), resultRows(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "date,metric,actual,status")
	assert.Contains(t, string(data), "BELOW_LOWER")
}

func TestWriteTableFile(t *testing.T) {
	// Force escape codes so leaking them into the file would be caught.
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	path := filepath.Join(t.TempDir(), "out.txt")
	w := &OutWriter{Mode: schema.TextOut, File: path, Precision: 2, UseColors: true, Width: 120}

	require.NoError(t, w.Write(context.Background(), resultRows(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "STATUS")
	assert.Contains(t, string(data), "BELOW_LOWER")
	assert.NotContains(t, string(data), "\x1b[", "no escape codes in a file")
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := &OutWriter{Mode: schema.JSONOut, File: path, Precision: 2}

	require.NoError(t, w.Write(context.Background(), resultRows(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "IN_RANGE", records[0]["status"])
	assert.Equal(t, 95.456, records[0]["actual"])
}

func TestWriteAppliesStages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	filter := &dropStatusColumn{}
	w := &OutWriter{
		Mode:   schema.CSVOut,
		File:   path,
		Stages: schema.Stages{Before: []schema.Transformer{filter}},
	}

	require.NoError(t, w.Write(context.Background(), resultRows(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "status")
}

// dropStatusColumn removes the status column.
type dropStatusColumn struct{}

func (f *dropStatusColumn) Name() string { return "drop-status" }

func (f *dropStatusColumn) Apply(ds schema.Dataset) (schema.Dataset, error) {
	var keep []string
	for _, col := range ds.Columns() {
		if col != "status" {
			keep = append(keep, col)
		}
	}
	out, err := schema.NewDataset(keep...)
	if err != nil {
		return schema.Dataset{}, err
	}
	for r := 0; r < ds.NumRows(); r++ {
		var vals []schema.Value
		for _, col := range keep {
			v, _ := ds.Cell(r, col)
			vals = append(vals, v)
		}
		if err := out.AppendRow(vals...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return out, nil
}

func TestTerminalWidth(t *testing.T) {
	w := &OutWriter{Width: 200}
	assert.Equal(t, 200, w.terminalWidth())

	// Without an override and off a terminal, the fallback applies.
	w = &OutWriter{}
	assert.Positive(t, w.terminalWidth())
}
