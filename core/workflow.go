package core

import (
	"context"
	"fmt"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
)

// Workflow ties readers, the detector and a writer into one detection run:
// load forecast and actual data, detect anomalies, write results. Each
// collaborator owns its own stage lists; the workflow adds none of its own.
type Workflow struct {
	ForecastReader contract.Reader
	ActualReader   contract.Reader
	Detector       *Detector
	Writer         contract.Writer
}

// Run executes the complete detection workflow and returns the anomaly
// dataset that was written.
func (w *Workflow) Run(ctx context.Context) (schema.Dataset, error) {
	result, err := w.RunWithoutOutput(ctx)
	if err != nil {
		return schema.Dataset{}, err
	}
	if w.Writer == nil {
		return schema.Dataset{}, &schema.ConfigurationError{
			Component: "workflow",
			Field:     "writer",
			Reason:    "no writer configured",
		}
	}
	if err := w.Writer.Write(ctx, result); err != nil {
		return schema.Dataset{}, fmt.Errorf("write results: %w", err)
	}
	return result, nil
}

// RunWithoutOutput executes the detection without writing results. Useful
// for inspecting results before committing them to a sink.
func (w *Workflow) RunWithoutOutput(ctx context.Context) (schema.Dataset, error) {
	if w.ForecastReader == nil || w.ActualReader == nil || w.Detector == nil {
		return schema.Dataset{}, &schema.ConfigurationError{
			Component: "workflow",
			Reason:    "forecast reader, actual reader and detector are all required",
		}
	}

	forecast, err := w.ForecastReader.Load(ctx)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("load forecast: %w", err)
	}
	if err := forecast.RequireRows("workflow: forecast reader"); err != nil {
		return schema.Dataset{}, err
	}

	actual, err := w.ActualReader.Load(ctx)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("load actual: %w", err)
	}
	if err := actual.RequireRows("workflow: actual reader"); err != nil {
		return schema.Dataset{}, err
	}

	return w.Detector.Detect(forecast, actual)
}

// ForecastWorkflow ties a history reader, a forecaster and a writer into one
// forecasting run producing quantile-encoded future rows.
type ForecastWorkflow struct {
	HistoryReader contract.Reader
	Forecaster    contract.Forecaster
	Writer        contract.Writer
	Horizon       int
}

// Run executes the forecasting workflow and returns the forecast dataset
// that was written.
func (w *ForecastWorkflow) Run(ctx context.Context) (schema.Dataset, error) {
	if w.HistoryReader == nil || w.Forecaster == nil {
		return schema.Dataset{}, &schema.ConfigurationError{
			Component: "forecast-workflow",
			Reason:    "history reader and forecaster are both required",
		}
	}
	if w.Horizon <= 0 {
		return schema.Dataset{}, &schema.ConfigurationError{
			Component: "forecast-workflow",
			Field:     "horizon",
			Reason:    fmt.Sprintf("must be positive, got %d", w.Horizon),
		}
	}

	history, err := w.HistoryReader.Load(ctx)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("load history: %w", err)
	}
	if err := history.RequireRows("forecast-workflow: history reader"); err != nil {
		return schema.Dataset{}, err
	}

	forecast, err := w.Forecaster.Forecast(ctx, history, w.Horizon)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("forecast: %w", err)
	}

	if w.Writer != nil {
		if err := w.Writer.Write(ctx, forecast); err != nil {
			return schema.Dataset{}, fmt.Errorf("write forecast: %w", err)
		}
	}
	return forecast, nil
}
