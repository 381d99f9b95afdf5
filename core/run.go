package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/internal/iostore"
	"github.com/driftwatch/driftwatch/internal/outwriter"
	"github.com/driftwatch/driftwatch/internal/parquet"
	"github.com/driftwatch/driftwatch/schema"
)

// ExecuteDetection runs the full detection pipeline and writes results to
// the configured sink. It serves as the main entry point for the 'detect'
// command. When run tracking is enabled, the run is recorded in the ledger
// with its parameters, row counts and duration.
func ExecuteDetection(ctx context.Context, cfg *contract.Config) error {
	wf, err := buildWorkflow(ctx, cfg)
	if err != nil {
		return err
	}
	wf.Writer, err = buildWriter(cfg)
	if err != nil {
		return err
	}

	if !cfg.TrackRuns {
		_, err := wf.Run(ctx)
		return err
	}

	store, err := iostore.NewRunStore(cfg.Backend, cfg.DBConnect)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(ctx, time.Now(), runParams(cfg))
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	result, err := wf.Run(ctx)
	if err != nil {
		return err
	}
	return store.EndRun(ctx, runID, time.Now(), result.NumRows(), countAnomalies(result))
}

// GetDetectionResults runs the detection pipeline without writing to any
// sink and returns the anomaly dataset. This is the entry point for callers
// that render results themselves, such as the MCP tools.
func GetDetectionResults(ctx context.Context, cfg *contract.Config) (schema.Dataset, error) {
	wf, err := buildWorkflow(ctx, cfg)
	if err != nil {
		return schema.Dataset{}, err
	}
	return wf.RunWithoutOutput(ctx)
}

// ExecuteForecast reads history, produces quantile-encoded future rows with
// the given forecaster and writes them to the configured sink. It serves as
// the main entry point for the 'forecast' command.
func ExecuteForecast(ctx context.Context, cfg *contract.Config, fc contract.Forecaster) error {
	wf, err := buildForecastWorkflow(cfg, fc)
	if err != nil {
		return err
	}
	wf.Writer, err = buildWriter(cfg)
	if err != nil {
		return err
	}
	_, err = wf.Run(ctx)
	return err
}

// GetForecastResults runs the forecasting workflow without writing and
// returns the forecast dataset.
func GetForecastResults(ctx context.Context, cfg *contract.Config, fc contract.Forecaster) (schema.Dataset, error) {
	wf, err := buildForecastWorkflow(cfg, fc)
	if err != nil {
		return schema.Dataset{}, err
	}
	return wf.Run(ctx)
}

// buildWorkflow assembles readers, dimension mappings and the detector from
// the validated configuration. The actual reader is memoized so that mapping
// construction and the detection run share one load.
func buildWorkflow(ctx context.Context, cfg *contract.Config) (*Workflow, error) {
	stages, err := BuildReaderStages(cfg)
	if err != nil {
		return nil, err
	}
	forecastReader, err := buildReader(cfg, cfg.Forecast, "forecast-source", stages)
	if err != nil {
		return nil, err
	}
	rawActual, err := buildReader(cfg, cfg.Actual, "actual-source", stages)
	if err != nil {
		return nil, err
	}
	actualReader := &cachedReader{inner: rawActual}

	mappings, err := buildMappings(ctx, cfg, actualReader)
	if err != nil {
		return nil, err
	}
	detector, err := BuildDetector(cfg, mappings)
	if err != nil {
		return nil, err
	}

	return &Workflow{
		ForecastReader: forecastReader,
		ActualReader:   actualReader,
		Detector:       detector,
	}, nil
}

func buildForecastWorkflow(cfg *contract.Config, fc contract.Forecaster) (*ForecastWorkflow, error) {
	stages, err := BuildReaderStages(cfg)
	if err != nil {
		return nil, err
	}
	historyReader, err := buildReader(cfg, cfg.History, "history-source", stages)
	if err != nil {
		return nil, err
	}
	return &ForecastWorkflow{
		HistoryReader: historyReader,
		Forecaster:    fc,
		Horizon:       cfg.Horizon,
	}, nil
}

// buildReader constructs a reader for one configured source. field names the
// flag in configuration errors.
func buildReader(cfg *contract.Config, src contract.SourceConfig, field string, stages schema.Stages) (contract.Reader, error) {
	switch src.Kind {
	case contract.FileSource:
		return &iostore.CSVReader{Path: src.Path, Stages: stages}, nil
	case contract.SQLSource:
		if cfg.Backend == schema.NoneBackend {
			return nil, &schema.ConfigurationError{
				Component: "config",
				Field:     field,
				Reason:    "query source needs a database backend",
			}
		}
		return &iostore.SQLReader{
			Backend: cfg.Backend,
			ConnStr: cfg.DBConnect,
			Query:   src.Query,
			Stages:  stages,
		}, nil
	default:
		return nil, &schema.ConfigurationError{
			Component: "config",
			Field:     field,
			Reason:    "no source configured",
		}
	}
}

// buildWriter constructs the sink for the configured output mode.
func buildWriter(cfg *contract.Config) (contract.Writer, error) {
	switch cfg.Output {
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return nil, &schema.ConfigurationError{
				Component: "config",
				Field:     "output-file",
				Reason:    "parquet output needs a file path",
			}
		}
		return &parquet.Writer{Path: cfg.OutputFile}, nil
	case schema.SQLOut:
		return &iostore.SQLWriter{
			Backend: cfg.Backend,
			ConnStr: cfg.DBConnect,
			Table:   cfg.OutputTable,
		}, nil
	default:
		return &outwriter.OutWriter{
			Mode:      cfg.Output,
			File:      cfg.OutputFile,
			Precision: cfg.Precision,
			UseColors: cfg.UseColors,
			Width:     cfg.Width,
		}, nil
	}
}

// buildMappings derives one display mapping per configured dimension from
// the distinct values of its pivot column in the raw actual data. Without
// dimensions or a pivot there is nothing to map.
func buildMappings(ctx context.Context, cfg *contract.Config, actual contract.Reader) (map[string]DimensionMapping, error) {
	if len(cfg.Dimensions) == 0 || len(cfg.PivotColumns) == 0 {
		return nil, nil
	}
	ds, err := actual.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load actual for dimension mappings: %w", err)
	}
	mappings := make(map[string]DimensionMapping, len(cfg.Dimensions))
	for i, dim := range cfg.Dimensions {
		m, err := BuildDimensionMapping(ds, cfg.PivotColumns[i])
		if err != nil {
			return nil, err
		}
		mappings[dim] = m
	}
	return mappings, nil
}

// runParams captures the parameters worth recording in the run ledger.
func runParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"forecast":             sourceLabel(cfg.Forecast),
		"actual":               sourceLabel(cfg.Actual),
		"output":               string(cfg.Output),
		"lower_idx":            cfg.LowerIdx,
		"upper_idx":            cfg.UpperIdx,
		"cumulative_threshold": cfg.CumulativeThreshold,
		"only_anomalies":       cfg.OnlyAnomalies,
		"min_deviation":        cfg.MinDeviation,
	}
}

func sourceLabel(src contract.SourceConfig) string {
	if src.Kind == contract.SQLSource {
		return "query"
	}
	return src.Path
}

// countAnomalies counts rows whose status marks a genuine anomaly. Datasets
// without a status column count zero.
func countAnomalies(ds schema.Dataset) int {
	if !ds.HasColumn(schema.ColStatus) {
		return 0
	}
	count := 0
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, schema.ColStatus)
		for _, s := range schema.AnomalyStatuses {
			if v.String() == string(s) {
				count++
				break
			}
		}
	}
	return count
}

// cachedReader memoizes the first successful load of its inner reader so
// repeated loads within one run cost a single read.
type cachedReader struct {
	inner contract.Reader

	mu     sync.Mutex
	loaded bool
	ds     schema.Dataset
}

var _ contract.Reader = (*cachedReader)(nil)

// Load implements contract.Reader.
func (r *cachedReader) Load(ctx context.Context) (schema.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.ds, nil
	}
	ds, err := r.inner.Load(ctx)
	if err != nil {
		return schema.Dataset{}, err
	}
	r.ds = ds
	r.loaded = true
	return ds, nil
}
