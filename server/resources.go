package server

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/boardbridge/ado"
	"github.com/jonwraymond/boardbridge/observe"
	"github.com/jonwraymond/boardbridge/sanitize"
	"github.com/jonwraymond/boardbridge/services"
)

// Resources give the host read-only markdown overviews of the default
// project. Tools mutate; resources only describe.

func (t *toolset) currentSprintResource() mcp.Resource {
	return mcp.NewResource(
		"sprint://current",
		"Current Sprint",
		mcp.WithResourceDescription("Overview of the active sprint in the default project"),
		mcp.WithMIMEType("text/markdown"),
	)
}

func (t *toolset) handleCurrentSprintResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	svc, err := t.sprints(ctx, "")
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}

	meta := observe.OpMeta{Service: "sprints", Name: "current_sprint_resource", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.Params.URI, func(ctx context.Context) (any, error) {
		return svc.Current(ctx)
	})
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}
	return markdownContents(req.Params.URI, renderCurrentSprint(svc.Project(), out.(*services.CurrentSprint))), nil
}

func (t *toolset) sprintResource() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"sprint://{iteration_path}",
		"Sprint Details",
		mcp.WithTemplateDescription("Work items and completion roll-up for one sprint in the default project"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

func (t *toolset) handleSprintResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	path, err := uriSuffix(req.Params.URI, "sprint://")
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}

	svc, err := t.sprints(ctx, "")
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}

	meta := observe.OpMeta{Service: "sprints", Name: "sprint_resource", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.Params.URI, func(ctx context.Context) (any, error) {
		return svc.WorkItems(ctx, path)
	})
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}
	return markdownContents(req.Params.URI, renderSprint(svc.Project(), out.(*ado.SprintSummary))), nil
}

func (t *toolset) workItemResource() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"workitem://{id}",
		"Work Item Details",
		mcp.WithTemplateDescription("Full details and recent discussion for one work item in the default project"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

func (t *toolset) handleWorkItemResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw, err := uriSuffix(req.Params.URI, "workitem://")
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return errorContents(req.Params.URI, fmt.Errorf("work item ID must be numeric, got %q", raw)), nil
	}

	svc, err := t.workItems(ctx, "")
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}

	meta := observe.OpMeta{Service: "workitems", Name: "workitem_resource", Project: svc.Project()}
	out, err := t.run(ctx, meta, req.Params.URI, func(ctx context.Context) (any, error) {
		return svc.Get(ctx, id, services.GetOptions{IncludeComments: true})
	})
	if err != nil {
		return errorContents(req.Params.URI, err), nil
	}
	return markdownContents(req.Params.URI, renderWorkItem(svc.Project(), out.(*services.WorkItemDetail))), nil
}

// uriSuffix extracts and decodes the variable part of a templated URI.
func uriSuffix(uri, scheme string) (string, error) {
	raw := strings.TrimPrefix(uri, scheme)
	if raw == "" || raw == uri {
		return "", fmt.Errorf("resource URI %q must match %s{...}", uri, scheme)
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("resource URI %q is not valid: %w", uri, err)
	}
	return decoded, nil
}

func renderCurrentSprint(project string, current *services.CurrentSprint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Current Sprint: %s\n", current.Sprint.Name)
	fmt.Fprintf(&b, "**Project:** %s\n\n", project)
	fmt.Fprintf(&b, "**Period:** %s to %s\n", dateString(current.Sprint.StartDate), dateString(current.Sprint.FinishDate))
	fmt.Fprintf(&b, "**Days Remaining:** %d\n", current.DaysRemaining)
	if s := current.Summary; s != nil {
		b.WriteString("\n## Work Items Summary\n")
		fmt.Fprintf(&b, "- Total Items: %d\n", s.TotalItems)
		fmt.Fprintf(&b, "- Completed: %d\n", s.CompletedItems)
		fmt.Fprintf(&b, "- In Progress: %d\n", s.InProgressItems)
		fmt.Fprintf(&b, "- Not Started: %d\n", s.NotStartedItems)
		fmt.Fprintf(&b, "\n## Progress\n%.1f%% complete\n", s.CompletionPercentage)
	}
	return b.String()
}

// renderSprint shows the roll-up by state plus the first items in rank
// order.
func renderSprint(project string, summary *ado.SprintSummary) string {
	const maxListed = 20

	byState := make(map[string]int)
	for _, item := range summary.WorkItems {
		byState[item.State]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Sprint: %s\n", summary.SprintName)
	fmt.Fprintf(&b, "**Project:** %s\n\n", project)
	fmt.Fprintf(&b, "**Iteration Path:** %s\n\n", summary.IterationPath)
	b.WriteString("## Work Items by State\n")
	for _, state := range sortedKeys(byState) {
		fmt.Fprintf(&b, "- %s: %d\n", state, byState[state])
	}
	fmt.Fprintf(&b, "\n## Work Items (showing first %d)\n", maxListed)
	for i, item := range summary.WorkItems {
		if i >= maxListed {
			break
		}
		fmt.Fprintf(&b, "- [%d] %s (%s)\n", item.ID, item.Title, item.State)
	}
	return b.String()
}

func renderWorkItem(project string, detail *services.WorkItemDetail) string {
	const maxComments = 5

	item := detail.Item
	assignee := item.AssignedTo
	if assignee == "" {
		assignee = "Unassigned"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# [%d] %s\n", item.ID, item.Title)
	fmt.Fprintf(&b, "**Project:** %s\n\n", project)
	fmt.Fprintf(&b, "**Type:** %s\n", item.Type)
	fmt.Fprintf(&b, "**State:** %s\n", item.State)
	fmt.Fprintf(&b, "**Assigned To:** %s\n", assignee)
	if item.Priority > 0 {
		fmt.Fprintf(&b, "**Priority:** %d\n", item.Priority)
	}
	b.WriteString("\n## Details\n")
	fmt.Fprintf(&b, "**Created:** %s\n", dateString(item.CreatedDate))
	fmt.Fprintf(&b, "**Updated:** %s\n", dateString(item.ChangedDate))
	if item.IterationPath != "" {
		fmt.Fprintf(&b, "**Iteration:** %s\n", item.IterationPath)
	}
	description := item.Description
	if description == "" {
		description = "No description"
	}
	fmt.Fprintf(&b, "\n## Description\n%s\n", description)
	if len(detail.Comments) > 0 {
		b.WriteString("\n## Recent Comments\n")
		for i, c := range detail.Comments {
			if i >= maxComments {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s\n", dateString(c.CreatedDate), c.Text)
		}
	}
	return b.String()
}

func dateString(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("2006-01-02")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func markdownContents(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}
}

// errorContents reports a failed read inside the resource payload; like
// tool errors, resource errors are data rather than protocol failures.
func errorContents(uri string, err error) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     "Error: " + sanitize.Error(err),
		},
	}
}
