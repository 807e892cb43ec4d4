// Package server exposes the bridge verbs as MCP tools. This is the
// composition boundary: handlers extract and coerce tool arguments,
// resolve the per-project service through the registry, and run the
// operation through the observability middleware. No domain logic lives
// here.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/health"
	"github.com/jonwraymond/boardbridge/observe"
	"github.com/jonwraymond/boardbridge/registry"
	"github.com/jonwraymond/boardbridge/sanitize"
	"github.com/jonwraymond/boardbridge/services"
)

// Name is the MCP server name advertised during initialization.
const Name = "boardbridge"

// Version is set at build time via ldflags.
var Version = "dev"

// Deps carries everything the tool handlers need.
type Deps struct {
	Registry   *registry.Registry
	Middleware *observe.Middleware
	Cache      *cache.Cache
	Health     *health.Aggregator
}

// New creates the MCP server with every tool registered.
func New(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	t := &toolset{deps: deps}

	s.AddTool(t.getWorkItemTool(), t.handleGetWorkItem)
	s.AddTool(t.myWorkItemsTool(), t.handleMyWorkItems)
	s.AddTool(t.queryWorkItemsTool(), t.handleQueryWorkItems)
	s.AddTool(t.searchWorkItemsTool(), t.handleSearchWorkItems)
	s.AddTool(t.historicalWorkItemsTool(), t.handleHistoricalWorkItems)
	s.AddTool(t.createWorkItemTool(), t.handleCreateWorkItem)
	s.AddTool(t.updateWorkItemTool(), t.handleUpdateWorkItem)
	s.AddTool(t.moveToSprintTool(), t.handleMoveToSprint)
	s.AddTool(t.addCommentTool(), t.handleAddComment)
	s.AddTool(t.workItemHierarchyTool(), t.handleWorkItemHierarchy)

	s.AddTool(t.teamIterationsTool(), t.handleTeamIterations)
	s.AddTool(t.currentSprintTool(), t.handleCurrentSprint)
	s.AddTool(t.sprintWorkItemsTool(), t.handleSprintWorkItems)

	s.AddTool(t.bridgeStatsTool(), t.handleBridgeStats)
	s.AddTool(t.bridgeHealthTool(), t.handleBridgeHealth)
	s.AddTool(t.clearProjectTool(), t.handleClearProject)

	s.AddResource(t.currentSprintResource(), t.handleCurrentSprintResource)
	s.AddResourceTemplate(t.sprintResource(), t.handleSprintResource)
	s.AddResourceTemplate(t.workItemResource(), t.handleWorkItemResource)

	return s
}

const instructions = `boardbridge connects you to a project tracking service.

Work item tools read, search, create, and update work items; sprint tools
report iteration schedules and completion. Pass "project" to target a
specific project, or omit it to use the configured default. Inputs are
validated against whitelists; validation failures name the allowed values.`

// toolset holds the shared dependencies behind every handler.
type toolset struct {
	deps *Deps
}

func (t *toolset) workItems(ctx context.Context, project string) (*services.WorkItems, error) {
	return registry.GetAs[*services.WorkItems](ctx, t.deps.Registry, registry.KindWorkItems, project)
}

func (t *toolset) sprints(ctx context.Context, project string) (*services.Sprints, error) {
	return registry.GetAs[*services.Sprints](ctx, t.deps.Registry, registry.KindSprints, project)
}

// run executes fn through the observability middleware so every tool call
// is traced, measured, and logged the same way.
func (t *toolset) run(ctx context.Context, meta observe.OpMeta, input any, fn func(ctx context.Context) (any, error)) (any, error) {
	wrapped := t.deps.Middleware.Wrap(func(ctx context.Context, _ observe.OpMeta, _ any) (any, error) {
		return fn(ctx)
	})
	return wrapped(ctx, meta, input)
}

// resultJSON renders a successful result as pretty-printed JSON text.
func resultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// resultError reports a failed operation to the agent. The message is
// sanitized; tool errors are data, not protocol failures, so the Go error
// return stays nil.
func resultError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(sanitize.Error(err)), nil
}

// intArg extracts an integer argument, returning defaultVal when the key
// is missing or not a number (JSON numbers arrive as float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// mapArg extracts an object argument.
func mapArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}
