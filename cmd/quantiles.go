package cmd

import (
	"github.com/driftwatch/driftwatch/core"
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
	"github.com/spf13/cobra"
)

// quantilesCmd decodes one encoded forecast cell for inspection.
var quantilesCmd = &cobra.Command{
	Use:   "quantiles <encoded>",
	Short: "Decode a pipe-delimited quantile forecast cell.",
	Long: `Decode one encoded forecast cell and print its point estimate and
quantile levels. Useful for spot-checking forecast files by hand.

Examples:
  driftwatch quantiles '100|90|92|95|97|100|102|105|107|110'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vec, err := core.DecodeQuantiles(args[0])
		if err != nil {
			contract.LogFatal("Cannot decode cell", err)
		}
		cmd.Printf("point: %v\n", vec.Point())
		for i := 1; i < schema.QuantileCount; i++ {
			cmd.Printf("q%d0:   %v\n", i, vec[i])
		}
	},
}
