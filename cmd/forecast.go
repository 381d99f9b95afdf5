package cmd

import (
	"github.com/driftwatch/driftwatch/core"
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/internal/forecast"
	"github.com/spf13/cobra"
)

// forecastCmd produces quantile-encoded forecasts from historical data.
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Produce quantile forecasts from historical data.",
	Long: `Read a history dataset and emit quantile-encoded forecast rows for the
requested horizon, in the same wire format the detect command consumes.

The built-in forecaster samples each metric at the same seasonal phase
(every season-length periods back) and takes empirical quantiles of the
sample, so a weekly season on daily data forecasts each Monday from past
Mondays. Metrics without enough history encode as all zeros, which detect
reports as NO_FORECAST.

Examples:
  # Seven days ahead with weekly seasonality
  driftwatch forecast --history-source history.csv --output-file fc.csv --output csv

  # Monthly seasonality on daily data, 14 days ahead
  driftwatch forecast --history-source history.csv --season-length 30 --horizon 14`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		fc := &forecast.SeasonalQuantile{
			DateColumn:   cfg.DateColumn,
			SeasonLength: cfg.SeasonLen,
		}
		if err := core.ExecuteForecast(rootCtx, cfg, fc); err != nil {
			contract.LogFatal("Cannot run forecasting", err)
		}
	},
}
