package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/driftwatch/driftwatch/schema"
)

// Default values for configuration.
const (
	DefaultPrecision   = 2
	DefaultHorizon     = 7
	DefaultSeasonLen   = 7
	DefaultOutputTable = "anomalies"
)

// SourceKind says where a dataset comes from.
type SourceKind string

// All source kinds supported.
const (
	FileSource SourceKind = "file"
	SQLSource  SourceKind = "sql"
)

// SourceConfig describes one data source: a flat file path or a SQL query
// against the configured database backend.
type SourceConfig struct {
	Kind  SourceKind
	Path  string
	Query string
}

// IsZero reports whether the source is unconfigured.
func (s SourceConfig) IsZero() bool { return s.Path == "" && s.Query == "" }

// Config holds the runtime configuration for a pipeline run.
// This struct remains the "final, validated" config.
type Config struct {
	Forecast SourceConfig
	Actual   SourceConfig
	History  SourceConfig

	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	Output      schema.OutputMode
	OutputFile  string
	OutputTable string
	TrackRuns   bool

	DateColumn string
	LowerIdx   int
	UpperIdx   int

	Dimensions []string
	TitleCase  bool

	CumulativeThreshold float64
	OnlyAnomalies       bool
	MinDeviation        float64
	FormatDeviation     bool

	StartDate time.Time
	EndDate   time.Time

	PivotIndex   []string
	PivotColumns []string
	PivotValues  string

	Horizon   int
	SeasonLen int

	Precision int
	Width     int // Terminal width override (0 = auto-detect)
	UseColors bool
}

// Clone returns a deep copy of the configuration so per-request overrides
// never leak into the shared base config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Dimensions = append([]string(nil), c.Dimensions...)
	clone.PivotIndex = append([]string(nil), c.PivotIndex...)
	clone.PivotColumns = append([]string(nil), c.PivotColumns...)
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config
// file). Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Data sources ---
	ForecastSource string `mapstructure:"forecast-source"`
	ForecastQuery  string `mapstructure:"forecast-query"`
	ActualSource   string `mapstructure:"actual-source"`
	ActualQuery    string `mapstructure:"actual-query"`
	HistorySource  string `mapstructure:"history-source"`
	HistoryQuery   string `mapstructure:"history-query"`

	// --- Database ---
	Backend   string `mapstructure:"db-backend"`
	DBConnect string `mapstructure:"db-connect"`

	// --- Output ---
	Output      string `mapstructure:"output"`
	OutputFile  string `mapstructure:"output-file"`
	OutputTable string `mapstructure:"output-table"`
	TrackRuns   bool   `mapstructure:"track-runs"`

	// --- Detection ---
	DateColumn          string  `mapstructure:"date-column"`
	LowerIdx            int     `mapstructure:"lower-idx"`
	UpperIdx            int     `mapstructure:"upper-idx"`
	Dimensions          string  `mapstructure:"dimensions"`
	TitleCase           bool    `mapstructure:"title-case"`
	CumulativeThreshold float64 `mapstructure:"cumulative-threshold"`
	OnlyAnomalies       bool    `mapstructure:"only-anomalies"`
	MinDeviation        float64 `mapstructure:"min-deviation"`
	FormatDeviation     bool    `mapstructure:"format-deviation"`

	// --- Date window on loaded data ---
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`

	// --- Pivot of raw actuals ---
	PivotIndex   string `mapstructure:"pivot-index"`
	PivotColumns string `mapstructure:"pivot-columns"`
	PivotValues  string `mapstructure:"pivot-values"`

	// --- Forecasting ---
	Horizon   int `mapstructure:"horizon"`
	SeasonLen int `mapstructure:"season-length"`

	// --- Presentation ---
	Precision int    `mapstructure:"precision"`
	Width     int    `mapstructure:"width"`
	Color     string `mapstructure:"color"`
}

// ProcessAndValidate parses and validates the raw input, populating cfg.
// Configuration problems surface here, before any data is touched.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	cfg.Forecast = parseSource(input.ForecastSource, input.ForecastQuery)
	cfg.Actual = parseSource(input.ActualSource, input.ActualQuery)
	cfg.History = parseSource(input.HistorySource, input.HistoryQuery)

	cfg.Backend = schema.DatabaseBackend(input.Backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "db-backend",
			Reason:    fmt.Sprintf("unknown backend %q, want sqlite, mysql, postgresql or none", input.Backend),
		}
	}
	cfg.DBConnect = input.DBConnect

	cfg.Output = schema.OutputMode(input.Output)
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "output",
			Reason:    fmt.Sprintf("unknown output mode %q, want text, csv, json, parquet or sql", input.Output),
		}
	}
	cfg.OutputFile = input.OutputFile
	cfg.OutputTable = input.OutputTable
	if cfg.OutputTable == "" {
		cfg.OutputTable = DefaultOutputTable
	}
	if cfg.Output == schema.SQLOut && cfg.Backend == schema.NoneBackend {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "output",
			Reason:    "sql output needs a database backend",
		}
	}
	cfg.TrackRuns = input.TrackRuns
	if cfg.TrackRuns && cfg.Backend == schema.NoneBackend {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "track-runs",
			Reason:    "run tracking needs a database backend",
		}
	}

	cfg.DateColumn = input.DateColumn
	if cfg.DateColumn == "" {
		cfg.DateColumn = schema.ColDate
	}
	cfg.LowerIdx = input.LowerIdx
	cfg.UpperIdx = input.UpperIdx

	cfg.Dimensions = splitList(input.Dimensions)
	cfg.TitleCase = input.TitleCase

	if input.CumulativeThreshold < 0 || input.CumulativeThreshold > 1 {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "cumulative-threshold",
			Reason:    fmt.Sprintf("must be in [0, 1], got %v", input.CumulativeThreshold),
		}
	}
	cfg.CumulativeThreshold = input.CumulativeThreshold
	cfg.OnlyAnomalies = input.OnlyAnomalies
	if input.MinDeviation < 0 {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "min-deviation",
			Reason:    fmt.Sprintf("must be non-negative, got %v", input.MinDeviation),
		}
	}
	cfg.MinDeviation = input.MinDeviation
	cfg.FormatDeviation = input.FormatDeviation

	var err error
	if cfg.StartDate, err = parseDate(input.Start, "start"); err != nil {
		return err
	}
	if cfg.EndDate, err = parseDate(input.End, "end"); err != nil {
		return err
	}

	cfg.PivotIndex = splitList(input.PivotIndex)
	cfg.PivotColumns = splitList(input.PivotColumns)
	cfg.PivotValues = input.PivotValues
	if len(cfg.PivotColumns) > 0 && cfg.PivotValues == "" {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "pivot-values",
			Reason:    "pivot-columns is set but pivot-values is empty",
		}
	}
	if len(cfg.Dimensions) > 0 && len(cfg.PivotColumns) > 0 && len(cfg.Dimensions) != len(cfg.PivotColumns) {
		return &schema.ConfigurationError{
			Component: "config",
			Field:     "dimensions",
			Reason: fmt.Sprintf("%d dimension names do not match %d pivot columns",
				len(cfg.Dimensions), len(cfg.PivotColumns)),
		}
	}

	cfg.Horizon = input.Horizon
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	cfg.SeasonLen = input.SeasonLen

	cfg.Precision = input.Precision
	if cfg.Precision < 0 {
		cfg.Precision = DefaultPrecision
	}
	cfg.Width = input.Width
	cfg.UseColors = !strings.EqualFold(input.Color, "no")

	return nil
}

// parseSource classifies a data source: an inline query wins, otherwise a
// path is a flat file.
func parseSource(path, query string) SourceConfig {
	if query != "" {
		return SourceConfig{Kind: SQLSource, Query: query}
	}
	if path != "" {
		return SourceConfig{Kind: FileSource, Path: path}
	}
	return SourceConfig{}
}

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(schema.DateFormat, s)
	if err != nil {
		return time.Time{}, &schema.ConfigurationError{
			Component: "config",
			Field:     field,
			Reason:    fmt.Sprintf("cannot parse %q as %s", s, schema.DateFormat),
		}
	}
	return t, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
