package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/driftwatch/driftwatch/schema"
)

// writeTable renders the dataset as a formatted table. Status colors apply
// only on stdout; a file gets plain text.
func (w *OutWriter) writeTable(file *os.File, ds schema.Dataset) error {
	table := tablewriter.NewWriter(file)
	useColors := w.UseColors && file == os.Stdout

	headers := make([]string, 0, ds.NumColumns())
	for _, col := range ds.Columns() {
		headers = append(headers, strings.ToUpper(col))
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
		cfg.MaxWidth = w.terminalWidth()
	})

	statusIdx := ds.ColumnIndex(schema.ColStatus)
	var data [][]string
	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		rendered := make([]string, len(row))
		for i, v := range row {
			rendered[i] = w.renderCell(v)
			if i == statusIdx && useColors {
				rendered[i] = colorStatus(rendered[i])
			}
		}
		data = append(data, rendered)
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("populate table: %w", err)
	}
	return table.Render()
}

// renderCell formats one value for display, rounding numbers to the
// configured precision.
func (w *OutWriter) renderCell(v schema.Value) string {
	if v.Kind() == schema.KindNumber {
		f, _ := v.Float()
		return fmt.Sprintf("%.*f", w.Precision, f)
	}
	return v.String()
}

// colorStatus colors a status label: anomalies red, in-range green,
// missing forecasts yellow.
func colorStatus(status string) string {
	switch schema.Status(status) {
	case schema.StatusBelowLower, schema.StatusAboveUpper:
		return color.New(color.FgRed).Sprint(status)
	case schema.StatusInRange:
		return color.New(color.FgGreen).Sprint(status)
	case schema.StatusNoForecast:
		return color.New(color.FgYellow).Sprint(status)
	default:
		return status
	}
}

// writeCSV exports the dataset as CSV with a header row.
func writeCSV(file *os.File, ds schema.Dataset) error {
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

// writeJSON exports the dataset as an array of objects, numbers kept
// numeric and everything else in display form.
func (w *OutWriter) writeJSON(file *os.File, ds schema.Dataset) error {
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(ds.Records())
}
