package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/boardbridge/observe"
)

func (t *toolset) teamIterationsTool() mcp.Tool {
	return mcp.NewTool("team_iterations",
		mcp.WithDescription("List the team's iterations with their schedule windows."),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleTeamIterations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.sprints(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "sprints", Name: "team_iterations", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.List(ctx)
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) currentSprintTool() mcp.Tool {
	return mcp.NewTool("current_sprint",
		mcp.WithDescription("Get the active sprint with days remaining and its completion roll-up."),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleCurrentSprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.sprints(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "sprints", Name: "current_sprint", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Current(ctx)
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) sprintWorkItemsTool() mcp.Tool {
	return mcp.NewTool("sprint_work_items",
		mcp.WithDescription("List every work item in a sprint with completion statistics."),
		mcp.WithString("iteration_path",
			mcp.Required(),
			mcp.Description("Iteration path, e.g. MyProject\\Sprint 12; the project prefix is added when missing"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleSprintWorkItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.sprints(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "sprints", Name: "sprint_work_items", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.WorkItems(ctx, req.GetString("iteration_path", ""))
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}
