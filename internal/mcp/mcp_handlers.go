package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driftwatch/driftwatch/core"
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/internal/forecast"
	"github.com/driftwatch/driftwatch/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

func (h *toolHandler) handleDetectAnomalies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("forecast_source", ""); p != "" {
		cfg.Forecast = contract.SourceConfig{Kind: contract.FileSource, Path: p}
	}
	if p := request.GetString("actual_source", ""); p != "" {
		cfg.Actual = contract.SourceConfig{Kind: contract.FileSource, Path: p}
	}
	cfg.OnlyAnomalies = request.GetBool("only_anomalies", cfg.OnlyAnomalies)
	cfg.MinDeviation = request.GetFloat("min_deviation", cfg.MinDeviation)
	cfg.CumulativeThreshold = request.GetFloat("cumulative_threshold", cfg.CumulativeThreshold)
	if cfg.CumulativeThreshold < 0 || cfg.CumulativeThreshold > 1 {
		return mcp.NewToolResultError("cumulative_threshold must be in [0, 1]"), nil
	}

	result, err := core.GetDetectionResults(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("detection failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result.Records(), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleForecastMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("history_source", ""); p != "" {
		cfg.History = contract.SourceConfig{Kind: contract.FileSource, Path: p}
	}
	if n := request.GetInt("horizon", 0); n > 0 {
		cfg.Horizon = n
	}
	if n := request.GetInt("season_length", 0); n > 0 {
		cfg.SeasonLen = n
	}

	fc := &forecast.SeasonalQuantile{
		DateColumn:   cfg.DateColumn,
		SeasonLength: cfg.SeasonLen,
	}
	result, err := core.GetForecastResults(ctx, cfg, fc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecasting failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result.Records(), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleDecodeQuantiles(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	vec, err := core.DecodeQuantiles(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decoding failed: %v", err)), nil
	}

	out := map[string]any{
		"point":     vec.Point(),
		"quantiles": vec[1:],
		"lower":     vec[schema.DefaultLowerIdx],
		"upper":     vec[schema.DefaultUpperIdx],
	}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleClassifyValue(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	actual := request.GetFloat("actual", 0)
	lowerIdx := request.GetInt("lower_idx", h.baseCfg.LowerIdx)
	upperIdx := request.GetInt("upper_idx", h.baseCfg.UpperIdx)
	if lowerIdx < 0 || upperIdx > schema.QuantileCount-1 || lowerIdx >= upperIdx {
		return mcp.NewToolResultError(fmt.Sprintf("invalid interval [%d, %d]: want 0 <= lower < upper <= 9", lowerIdx, upperIdx)), nil
	}

	vec, err := core.DecodeQuantiles(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decoding failed: %v", err)), nil
	}
	status, devAbs, dev := core.Classify(vec, actual, lowerIdx, upperIdx)

	out := map[string]any{
		"status":        string(status),
		"actual":        actual,
		"forecast":      vec.Point(),
		"lower":         vec[lowerIdx],
		"upper":         vec[upperIdx],
		"deviation_abs": devAbs,
		"deviation":     dev,
	}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
