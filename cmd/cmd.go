// Package cmd defines the command-line interface for driftwatch.
package cmd

import (
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(quantilesCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to an explicit config file")
	rootCmd.PersistentFlags().String("forecast-source", "", "Path to the forecast CSV file")
	rootCmd.PersistentFlags().String("forecast-query", "", "SQL query producing the forecast dataset")
	rootCmd.PersistentFlags().String("actual-source", "", "Path to the actuals CSV file")
	rootCmd.PersistentFlags().String("actual-query", "", "SQL query producing the actuals dataset")
	rootCmd.PersistentFlags().String("history-source", "", "Path to the history CSV file for forecasting")
	rootCmd.PersistentFlags().String("history-query", "", "SQL query producing the history dataset")
	rootCmd.PersistentFlags().String("db-backend", string(schema.SQLiteBackend), "Database backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or sql")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("output-table", contract.DefaultOutputTable, "Table name for sql output")
	rootCmd.PersistentFlags().Bool("track-runs", false, "Record each detection run in the database ledger")
	rootCmd.PersistentFlags().String("date-column", schema.ColDate, "Name of the date column in all datasets")
	rootCmd.PersistentFlags().Int("lower-idx", schema.DefaultLowerIdx, "Quantile index of the lower bound (1 = q10)")
	rootCmd.PersistentFlags().Int("upper-idx", schema.DefaultUpperIdx, "Quantile index of the upper bound (9 = q90)")
	rootCmd.PersistentFlags().String("dimensions", "", "Comma-separated display names for metric key parts (e.g. 'Country,Device')")
	rootCmd.PersistentFlags().Bool("title-case", false, "Title-case unmapped dimension tokens")
	rootCmd.PersistentFlags().Float64("cumulative-threshold", 0, "Keep only the top metrics covering this fraction of forecast volume (0..1)")
	rootCmd.PersistentFlags().Bool("only-anomalies", false, "Show only BELOW_LOWER and ABOVE_UPPER rows")
	rootCmd.PersistentFlags().Float64("min-deviation", 0, "Drop rows whose deviation is below this fraction")
	rootCmd.PersistentFlags().Bool("format-deviation", false, "Render the deviation column as a percentage")
	rootCmd.PersistentFlags().String("start", "", "Start date (inclusive) in YYYY-MM-DD")
	rootCmd.PersistentFlags().String("end", "", "End date (inclusive) in YYYY-MM-DD")
	rootCmd.PersistentFlags().String("pivot-index", "", "Comma-separated index columns for the actuals pivot (defaults to the date column)")
	rootCmd.PersistentFlags().String("pivot-columns", "", "Comma-separated columns whose values become metric key parts")
	rootCmd.PersistentFlags().String("pivot-values", "", "Column holding the values of the actuals pivot")
	rootCmd.PersistentFlags().Int("horizon", contract.DefaultHorizon, "Number of future periods to forecast")
	rootCmd.PersistentFlags().Int("season-length", contract.DefaultSeasonLen, "Season length in periods for the seasonal forecaster")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored status labels in output (yes/no)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}
}
