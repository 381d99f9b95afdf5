package cmd

import (
	"time"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/internal/iostore"
	"github.com/spf13/cobra"
)

// runsCmd groups operations on the detection run ledger.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the detection run ledger.",
	Long:  `Operations on the ledger that 'detect --track-runs' writes to.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// runsStatusCmd summarizes the ledger.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show how many runs are recorded and when the last one started.",
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := iostore.NewRunStore(cfg.Backend, cfg.DBConnect)
		if err != nil {
			contract.LogFatal("Cannot open run ledger", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.Status(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot read run ledger", err)
		}
		cmd.Printf("Total runs: %d\n", status.TotalRuns)
		if status.LastRun.IsZero() {
			cmd.Printf("Last run:   never\n")
			return
		}
		cmd.Printf("Last run:   %s\n", status.LastRun.Format(time.RFC3339))
	},
}
