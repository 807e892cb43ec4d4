package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/boardbridge/observe"
	"github.com/jonwraymond/boardbridge/services"
)

func (t *toolset) getWorkItemTool() mcp.Tool {
	return mcp.NewTool("get_work_item",
		mcp.WithDescription("Get one work item by ID, optionally with its discussion thread."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item ID"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
		mcp.WithBoolean("include_comments",
			mcp.Description("Also return the discussion thread"),
		),
	)
}

func (t *toolset) handleGetWorkItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	id := intArg(req, "id", 0)
	includeComments := boolArg(req, "include_comments", false)

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "get_work_item", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Get(ctx, id, services.GetOptions{IncludeComments: includeComments})
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) myWorkItemsTool() mcp.Tool {
	return mcp.NewTool("my_work_items",
		mcp.WithDescription("List work items assigned to the authenticated identity, most recently changed first."),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
		mcp.WithString("state",
			mcp.Description("Filter by state, e.g. Active, New, Resolved"),
		),
		mcp.WithString("type",
			mcp.Description("Filter by work item type, e.g. Bug, Task, User Story"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 100)"),
		),
	)
}

func (t *toolset) handleMyWorkItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "my_work_items", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.MyWork(ctx, services.MyWorkOptions{
			State: req.GetString("state", ""),
			Type:  req.GetString("type", ""),
			Limit: intArg(req, "limit", 0),
		})
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) queryWorkItemsTool() mcp.Tool {
	return mcp.NewTool("query_work_items",
		mcp.WithDescription("Run a WIQL query and return the matched work items."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("WIQL query, e.g. SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 100)"),
		),
	)
}

func (t *toolset) handleQueryWorkItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "query_work_items", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Query(ctx, req.GetString("query", ""), intArg(req, "limit", 0))
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) searchWorkItemsTool() mcp.Tool {
	return mcp.NewTool("search_work_items",
		mcp.WithDescription("Find work items whose title (or another text field) contains the given words."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Words to search for"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
		mcp.WithString("field",
			mcp.Description("Field to search (default System.Title)"),
		),
		mcp.WithString("type",
			mcp.Description("Filter by work item type"),
		),
		mcp.WithString("state",
			mcp.Description("Filter by state"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 100)"),
		),
	)
}

func (t *toolset) handleSearchWorkItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "search_work_items", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Search(ctx, services.SearchRequest{
			Text:  req.GetString("text", ""),
			Field: req.GetString("field", ""),
			Type:  req.GetString("type", ""),
			State: req.GetString("state", ""),
			Limit: intArg(req, "limit", 0),
		})
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) historicalWorkItemsTool() mcp.Tool {
	return mcp.NewTool("historical_work_items",
		mcp.WithDescription("List work items that were ever in the given state, regardless of current state."),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Description("State the items passed through, e.g. Resolved"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 100)"),
		),
	)
}

func (t *toolset) handleHistoricalWorkItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "historical_work_items", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Historical(ctx, req.GetString("state", ""), intArg(req, "limit", 0))
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) createWorkItemTool() mcp.Tool {
	return mcp.NewTool("create_work_item",
		mcp.WithDescription("Create a work item."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Work item type, e.g. Bug, Task, User Story"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
		mcp.WithString("description",
			mcp.Description("Description"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Assignee display name or email"),
		),
		mcp.WithString("iteration_path",
			mcp.Description("Iteration path; the project prefix is added when missing"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority 1-4, 1 is highest"),
		),
	)
}

func (t *toolset) handleCreateWorkItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "create_work_item", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Create(ctx, services.CreateRequest{
			Type:          req.GetString("type", ""),
			Title:         req.GetString("title", ""),
			Description:   req.GetString("description", ""),
			AssignedTo:    req.GetString("assigned_to", ""),
			IterationPath: req.GetString("iteration_path", ""),
			Priority:      intArg(req, "priority", 0),
		})
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) updateWorkItemTool() mcp.Tool {
	return mcp.NewTool("update_work_item",
		mcp.WithDescription("Update fields on a work item, optionally appending a comment in the same call."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item ID"),
		),
		mcp.WithObject("fields",
			mcp.Description("Field reference names to new values, e.g. {\"System.State\": \"Active\"}"),
		),
		mcp.WithString("comment",
			mcp.Description("Comment to append"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleUpdateWorkItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "update_work_item", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Update(ctx, intArg(req, "id", 0), services.UpdateRequest{
			Fields:  mapArg(req, "fields"),
			Comment: req.GetString("comment", ""),
		})
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) moveToSprintTool() mcp.Tool {
	return mcp.NewTool("move_to_sprint",
		mcp.WithDescription("Move a work item to another sprint/iteration."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item ID"),
		),
		mcp.WithString("iteration_path",
			mcp.Required(),
			mcp.Description("Target iteration path, e.g. Sprint 2; the project prefix is added when missing"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleMoveToSprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "move_to_sprint", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.MoveToSprint(ctx, intArg(req, "id", 0), req.GetString("iteration_path", ""))
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) addCommentTool() mcp.Tool {
	return mcp.NewTool("add_comment",
		mcp.WithDescription("Append a comment to a work item's discussion."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item ID"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Comment text"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleAddComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "add_comment", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.AddComment(ctx, intArg(req, "id", 0), req.GetString("text", ""))
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}

func (t *toolset) workItemHierarchyTool() mcp.Tool {
	return mcp.NewTool("work_item_hierarchy",
		mcp.WithDescription("Get the parent/child tree rooted at a work item."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Root work item ID"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Tree depth limit (default 5)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name; omit to use the default project"),
		),
	)
}

func (t *toolset) handleWorkItemHierarchy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")

	svc, err := t.workItems(ctx, project)
	if err != nil {
		return resultError(err)
	}

	meta := observe.OpMeta{Service: "workitems", Name: "work_item_hierarchy", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.GetArguments(), func(ctx context.Context) (any, error) {
		return svc.Hierarchy(ctx, intArg(req, "id", 0), intArg(req, "max_depth", 0))
	})
	if err != nil {
		return resultError(err)
	}
	return resultJSON(out)
}
