package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/health"
	"github.com/jonwraymond/boardbridge/registry"
	"github.com/jonwraymond/boardbridge/wiql"
)

// bridgeStats is the bridge_stats payload.
type bridgeStats struct {
	Registry registry.Stats `json:"registry"`
	Cache    cache.Stats    `json:"cache"`
}

func (t *toolset) bridgeStatsTool() mcp.Tool {
	return mcp.NewTool("bridge_stats",
		mcp.WithDescription("Report bridge health: loaded projects, service reuse, and cache hit rates."),
	)
}

func (t *toolset) handleBridgeStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := bridgeStats{Registry: t.deps.Registry.Statistics()}
	if t.deps.Cache != nil {
		stats.Cache = t.deps.Cache.Stats()
	}
	return resultJSON(stats)
}

// bridgeHealth is the bridge_health payload.
type bridgeHealth struct {
	Status string                   `json:"status"`
	Checks map[string]health.Result `json:"checks"`
}

func (t *toolset) bridgeHealthTool() mcp.Tool {
	return mcp.NewTool("bridge_health",
		mcp.WithDescription("Run the bridge's health checks and report per-component status."),
	)
}

func (t *toolset) handleBridgeHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.deps.Health == nil {
		return resultJSON(bridgeHealth{Status: health.StatusHealthy.String(), Checks: map[string]health.Result{}})
	}
	results := t.deps.Health.CheckAll(ctx)
	return resultJSON(bridgeHealth{
		Status: health.OverallStatus(results).String(),
		Checks: results,
	})
}

func (t *toolset) clearProjectTool() mcp.Tool {
	return mcp.NewTool("clear_project",
		mcp.WithDescription("Drop a project's service instances and cached data so the next call rebuilds them."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
	)
}

func (t *toolset) handleClearProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return resultError(wiql.NewValidationError("project", "", "project name is required"))
	}

	dropped := t.deps.Registry.Clear(project)
	return resultJSON(map[string]any{
		"project":           project,
		"instances_dropped": dropped,
	})
}
