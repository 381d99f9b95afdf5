// Package parquet exports anomaly detection results to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
	"github.com/parquet-go/parquet-go"
)

// AnomalyRow is the flat Parquet representation of one detector output row.
type AnomalyRow struct {
	// Date is the observation date in YYYY-MM-DD form
	Date string `parquet:"date,snappy"`

	// Metric is the composite metric key, reassembled from dimension
	// columns when the detector split them
	Metric string `parquet:"metric,snappy"`

	// Dimensions holds the split dimension values, empty without splitting
	Dimensions map[string]string `parquet:"dimensions"`

	// Actual is the observed value
	Actual float64 `parquet:"actual,snappy"`

	// Forecast is the point estimate
	Forecast float64 `parquet:"forecast,snappy"`

	// Lower and Upper are the configured interval bounds
	Lower float64 `parquet:"lower,snappy"`
	Upper float64 `parquet:"upper,snappy"`

	// Status is the classification outcome
	Status string `parquet:"status,snappy"`

	// DeviationAbs is the absolute deviation from the violated bound
	DeviationAbs float64 `parquet:"deviation_abs,snappy"`

	// Deviation is the deviation in display form: a fraction, or a
	// percentage string when a formatter ran in the after stage
	Deviation string `parquet:"deviation,snappy"`
}

// RowsFromDataset converts detector output into Parquet rows. Dimension
// columns are any columns that are not part of the canonical anomaly shape.
func RowsFromDataset(ds schema.Dataset) ([]AnomalyRow, error) {
	canonical := make(map[string]bool, len(schema.AnomalyColumns))
	for _, c := range schema.AnomalyColumns {
		canonical[c] = true
	}

	required := []string{
		schema.ColDate, schema.ColActual, schema.ColForecast,
		schema.ColLower, schema.ColUpper, schema.ColStatus,
		schema.ColDeviationAbs, schema.ColDeviation,
	}
	if err := ds.RequireColumns("parquet-writer", required...); err != nil {
		return nil, err
	}

	var dimCols []string
	for _, col := range ds.Columns() {
		if !canonical[col] {
			dimCols = append(dimCols, col)
		}
	}

	rows := make([]AnomalyRow, 0, ds.NumRows())
	for r := 0; r < ds.NumRows(); r++ {
		row := AnomalyRow{
			Date:         cellString(ds, r, schema.ColDate),
			Metric:       cellString(ds, r, schema.ColMetric),
			Actual:       cellFloat(ds, r, schema.ColActual),
			Forecast:     cellFloat(ds, r, schema.ColForecast),
			Lower:        cellFloat(ds, r, schema.ColLower),
			Upper:        cellFloat(ds, r, schema.ColUpper),
			Status:       cellString(ds, r, schema.ColStatus),
			DeviationAbs: cellFloat(ds, r, schema.ColDeviationAbs),
			Deviation:    cellString(ds, r, schema.ColDeviation),
		}
		if len(dimCols) > 0 {
			row.Dimensions = make(map[string]string, len(dimCols))
			for _, col := range dimCols {
				row.Dimensions[col] = cellString(ds, r, col)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(ds schema.Dataset, r int, col string) string {
	v, _ := ds.Cell(r, col)
	return v.String()
}

func cellFloat(ds schema.Dataset, r int, col string) float64 {
	v, _ := ds.Cell(r, col)
	f, _ := v.Float()
	return f
}

// WriteAnomalies writes anomaly rows to a Parquet file. The schema is
// derived from the AnomalyRow struct tags.
func WriteAnomalies(rows []AnomalyRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[AnomalyRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes row groups and the footer; its error is the real
	// write outcome.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// Writer is the Parquet sink for detector output.
type Writer struct {
	Path   string
	Stages schema.Stages
}

var _ contract.Writer = (*Writer)(nil)

// Write implements contract.Writer.
func (w *Writer) Write(_ context.Context, ds schema.Dataset) error {
	ds, err := w.Stages.Run(schema.StageBefore, ds)
	if err != nil {
		return err
	}
	rows, err := RowsFromDataset(ds)
	if err != nil {
		return err
	}
	return WriteAnomalies(rows, w.Path)
}
