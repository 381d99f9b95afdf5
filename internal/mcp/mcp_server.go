// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Driftwatch MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Driftwatch Anomaly Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	// --- 1. Tool: detect_anomalies ---
	s.AddTool(mcp.NewTool("detect_anomalies",
		mcp.WithDescription("Compare quantile forecasts against actual values and return classified anomalies."),
		mcp.WithString("forecast_source", mcp.Description("Path to the forecast CSV file (defaults to the configured source).")),
		mcp.WithString("actual_source", mcp.Description("Path to the actuals CSV file (defaults to the configured source).")),
		mcp.WithBoolean("only_anomalies", mcp.Description("Return only BELOW_LOWER and ABOVE_UPPER rows.")),
		mcp.WithNumber("min_deviation", mcp.Description("Drop rows whose signed deviation is below this fraction.")),
		mcp.WithNumber("cumulative_threshold", mcp.Description("Keep only the top metrics covering this fraction of total forecast volume (0..1).")),
	), h.handleDetectAnomalies)

	// --- 2. Tool: forecast_metrics ---
	s.AddTool(mcp.NewTool("forecast_metrics",
		mcp.WithDescription("Produce quantile-encoded forecasts from historical data using seasonal sampling."),
		mcp.WithString("history_source", mcp.Description("Path to the history CSV file (defaults to the configured source).")),
		mcp.WithNumber("horizon", mcp.Description("Number of future periods to forecast.")),
		mcp.WithNumber("season_length", mcp.Description("Season length in periods (e.g. 7 for weekly seasonality on daily data).")),
	), h.handleForecastMetrics)

	// --- 3. Tool: decode_quantiles ---
	s.AddTool(mcp.NewTool("decode_quantiles",
		mcp.WithDescription("Decode a pipe-delimited quantile forecast cell into its point estimate and quantile levels."),
		mcp.WithString("text", mcp.Description("The encoded cell, e.g. '100|90|92|95|97|100|102|105|107|110'."), mcp.Required()),
	), h.handleDecodeQuantiles)

	// --- 4. Tool: classify_value ---
	s.AddTool(mcp.NewTool("classify_value",
		mcp.WithDescription("Classify one actual value against an encoded quantile forecast."),
		mcp.WithString("text", mcp.Description("The encoded forecast cell."), mcp.Required()),
		mcp.WithNumber("actual", mcp.Description("The observed value to classify."), mcp.Required()),
		mcp.WithNumber("lower_idx", mcp.Description("Quantile index of the lower bound (1-9). Defaults to 1 (q10).")),
		mcp.WithNumber("upper_idx", mcp.Description("Quantile index of the upper bound (1-9). Defaults to 9 (q90).")),
	), h.handleClassifyValue)

	return s
}

// StartMCPServer starts the Driftwatch MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
