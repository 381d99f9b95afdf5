package schema

// Custom string types for type safety.
type (
	// Status represents the classification of one forecast-vs-actual comparison.
	Status string

	// Stage represents a named point relative to a component's primary operation.
	Stage string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for readers and writers.
	DatabaseBackend string
)

// All comparison statuses supported.
const (
	StatusInRange    Status = "IN_RANGE"
	StatusBelowLower Status = "BELOW_LOWER"
	StatusAboveUpper Status = "ABOVE_UPPER"
	StatusNoForecast Status = "NO_FORECAST"
)

// All transformer stages supported.
const (
	StageBefore Stage = "before"
	StageAfter  Stage = "after"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	SQLOut     OutputMode = "sql"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Wire format constants.
const (
	// QuantileDelimiter joins the segments of an encoded quantile vector.
	QuantileDelimiter = "|"

	// QuantileCount is the fixed segment count of an encoded quantile vector:
	// one point estimate followed by nine ascending quantile levels.
	QuantileCount = 10

	// MetricDelimiter joins the parts of a composite metric key.
	MetricDelimiter = "_"

	// DateFormat is the canonical date representation in flat files and keys.
	DateFormat = "2006-01-02"
)

// Default quantile indices for the 80% confidence interval [q10, q90].
const (
	DefaultLowerIdx = 1
	DefaultUpperIdx = 9
)

// Anomaly output column names.
const (
	ColDate         = "date"
	ColMetric       = "metric"
	ColActual       = "actual"
	ColForecast     = "forecast"
	ColLower        = "lower"
	ColUpper        = "upper"
	ColStatus       = "status"
	ColDeviationAbs = "deviation_abs"
	ColDeviation    = "deviation"
)

// AnomalyColumns lists the detector output columns in order, before any
// dimension splitting replaces the metric column.
var AnomalyColumns = []string{
	ColDate, ColMetric, ColActual, ColForecast,
	ColLower, ColUpper, ColStatus, ColDeviationAbs, ColDeviation,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
	SQLOut:     {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// AnomalyStatuses lists the two statuses that mark a genuine anomaly.
var AnomalyStatuses = []Status{StatusBelowLower, StatusAboveUpper}
