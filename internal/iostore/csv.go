package iostore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
)

// CSVReader loads a dataset from a comma-separated file. The first record is
// the header. Field values are typed by shape: dates in YYYY-MM-DD form,
// then numbers, then text; empty fields become null.
type CSVReader struct {
	Path   string
	Stages schema.Stages
}

var _ contract.Reader = (*CSVReader)(nil)

// Load implements contract.Reader.
func (r *CSVReader) Load(_ context.Context) (schema.Dataset, error) {
	file, err := os.Open(r.Path)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("open %s: %w", r.Path, err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("read %s: %w", r.Path, err)
	}
	if len(records) == 0 {
		return schema.Dataset{}, &schema.ValidationError{
			Component: "csv-reader",
			Reason:    fmt.Sprintf("%s has no header row", r.Path),
		}
	}

	ds, err := schema.NewDataset(records[0]...)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("header of %s: %w", r.Path, err)
	}
	for _, record := range records[1:] {
		values := make([]schema.Value, len(record))
		for i, field := range record {
			values[i] = parseField(field)
		}
		if err := ds.AppendRow(values...); err != nil {
			return schema.Dataset{}, err
		}
	}
	return r.Stages.Run(schema.StageAfter, ds)
}

// parseField types a raw CSV field. Quantile-encoded cells contain the
// delimiter and never parse as a number, so they stay text.
func parseField(field string) schema.Value {
	if field == "" {
		return schema.Null()
	}
	if t, err := time.Parse(schema.DateFormat, field); err == nil {
		return schema.Date(t)
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return schema.Number(f)
	}
	return schema.Text(field)
}

// CSVWriter persists a dataset to a comma-separated file with a header row.
type CSVWriter struct {
	Path   string
	Stages schema.Stages
}

var _ contract.Writer = (*CSVWriter)(nil)

// Write implements contract.Writer.
func (w *CSVWriter) Write(_ context.Context, ds schema.Dataset) error {
	ds, err := w.Stages.Run(schema.StageBefore, ds)
	if err != nil {
		return err
	}

	file, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.Path, err)
	}
	defer func() { _ = file.Close() }()

	cw := csv.NewWriter(file)
	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
