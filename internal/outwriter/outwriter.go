// Package outwriter has the console and file sinks for detection results.
package outwriter

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
)

// OutWriter renders a dataset as a human-readable table or exports it as
// CSV/JSON. It is the default sink when no database table or Parquet path
// is configured.
type OutWriter struct {
	Mode      schema.OutputMode
	File      string // empty means stdout
	Precision int
	UseColors bool
	Width     int // terminal width override (0 = auto-detect)
	Stages    schema.Stages
}

var _ contract.Writer = (*OutWriter)(nil)

// Write implements contract.Writer.
func (w *OutWriter) Write(_ context.Context, ds schema.Dataset) error {
	ds, err := w.Stages.Run(schema.StageBefore, ds)
	if err != nil {
		return err
	}

	switch w.Mode {
	case schema.CSVOut:
		return w.toFile(ds, writeCSV)
	case schema.JSONOut:
		return w.toFile(ds, w.writeJSON)
	default:
		return w.toFile(ds, w.writeTable)
	}
}

// toFile runs a writer function against the configured output file, or
// stdout when none is set.
func (w *OutWriter) toFile(ds schema.Dataset, fn func(*os.File, schema.Dataset) error) error {
	file := os.Stdout
	if w.File != "" {
		var err error
		file, err = os.Create(w.File)
		if err != nil {
			return fmt.Errorf("create %s: %w", w.File, err)
		}
		defer func() { _ = file.Close() }()
	}
	if err := fn(file, ds); err != nil {
		return err
	}
	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", w.Mode, w.File)
	}
	return nil
}

// terminalWidth returns the override width, the detected terminal width, or
// a generous default when stdout is not a terminal.
func (w *OutWriter) terminalWidth() int {
	if w.Width > 0 {
		return w.Width
	}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}
