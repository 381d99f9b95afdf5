package cmd

import (
	"github.com/driftwatch/driftwatch/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Driftwatch MCP server",
	Long:  `Launch an MCP server that allows AI agents to run detections, forecasts and quantile tools over stdio.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Validate config up front; stdio is reserved for the protocol once
		// the server starts.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
