package cmd

import (
	"github.com/driftwatch/driftwatch/core"
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/spf13/cobra"
)

// detectCmd runs the forecast-vs-actual detection pipeline.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Compare quantile forecasts against actuals and classify each cell.",
	Long: `Load a forecast dataset and an actuals dataset, align them by date and
metric, and classify every comparison as IN_RANGE, BELOW_LOWER, ABOVE_UPPER
or NO_FORECAST.

Forecast cells are pipe-delimited quantile vectors: a point estimate followed
by nine ascending quantiles (q10 through q90). The lower and upper quantile
indices pick the confidence interval; values outside it are anomalies, with
the deviation reported as a fraction of the violated bound.

Examples:
  # Compare two CSV files with the default 80% interval
  driftwatch detect --forecast-source fc.csv --actual-source actual.csv

  # Pivot long-format actuals into the forecast's wide shape first
  driftwatch detect --forecast-source fc.csv --actual-source raw.csv \
    --pivot-columns country,device --pivot-values sessions \
    --dimensions Country,Device

  # Only anomalies above 5% deviation, top 80% of forecast volume
  driftwatch detect --forecast-source fc.csv --actual-source actual.csv \
    --only-anomalies --min-deviation 0.05 --cumulative-threshold 0.8

  # Read from a database and persist results to a table
  driftwatch detect --db-backend postgresql --db-connect "$DW_DSN" \
    --forecast-query "SELECT * FROM forecasts" \
    --actual-query "SELECT * FROM actuals" \
    --output sql --output-table anomalies`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDetection(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run detection", err)
		}
	},
}
