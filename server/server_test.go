package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/boardbridge/ado"
	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/health"
	"github.com/jonwraymond/boardbridge/observe"
	"github.com/jonwraymond/boardbridge/registry"
	"github.com/jonwraymond/boardbridge/resilience"
	"github.com/jonwraymond/boardbridge/services"
)

// stubClient serves canned work item data for handler tests.
type stubClient struct {
	item     *ado.WorkItem
	comments []ado.Comment
	sprints  []ado.Sprint
	ids      []int
}

func (s *stubClient) GetWorkItem(_ context.Context, _ string, id int, _ []string) (*ado.WorkItem, error) {
	if s.item == nil {
		return nil, ado.NewNotFoundError(id, nil)
	}
	return s.item, nil
}

func (s *stubClient) GetWorkItems(_ context.Context, _ string, ids []int, _ []string) ([]ado.WorkItem, error) {
	items := make([]ado.WorkItem, len(ids))
	for i, id := range ids {
		items[i] = ado.WorkItem{ID: id, State: "Active"}
	}
	return items, nil
}

func (s *stubClient) WiqlIDs(_ context.Context, _, _ string, _ int) ([]int, error) {
	return s.ids, nil
}

func (s *stubClient) WiqlRelations(_ context.Context, _, _ string, _ int) ([]ado.Relation, error) {
	return nil, nil
}

func (s *stubClient) CreateWorkItem(_ context.Context, _, _ string, _ []ado.PatchOp) (*ado.WorkItem, error) {
	return s.item, nil
}

func (s *stubClient) UpdateWorkItem(_ context.Context, _ string, _ int, _ []ado.PatchOp) (*ado.WorkItem, error) {
	return s.item, nil
}

func (s *stubClient) GetComments(_ context.Context, _ string, _ int) ([]ado.Comment, error) {
	return s.comments, nil
}

func (s *stubClient) AddComment(_ context.Context, _ string, _ int, text string) (*ado.Comment, error) {
	return &ado.Comment{ID: 1, Text: text}, nil
}

func (s *stubClient) ListIterations(_ context.Context, _, _ string) ([]ado.Sprint, error) {
	return s.sprints, nil
}

var _ services.Client = (*stubClient)(nil)

func newTestToolset(t *testing.T, client services.Client) *toolset {
	t.Helper()

	shared := cache.New(cache.DefaultConfig())
	chain := resilience.NewChain(resilience.ChainConfig{
		Timeout: resilience.TimeoutConfig{Timeout: time.Second},
		Retry:   resilience.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2.0},
	})

	reg := registry.New("Alpha", shared)
	reg.Register(registry.KindWorkItems, func(_ context.Context, project string) (any, error) {
		ns := cache.NewNamespace(shared, string(registry.KindWorkItems)+cache.Separator+project, 0)
		return services.NewWorkItems(client, project, chain, ns), nil
	})
	reg.Register(registry.KindSprints, func(_ context.Context, project string) (any, error) {
		ns := cache.NewNamespace(shared, string(registry.KindSprints)+cache.Separator+project, 0)
		return services.NewSprints(client, project, chain, ns), nil
	})

	obs, err := observe.NewObserver(context.Background(), observe.Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("NewObserver error = %v", err)
	}
	middleware, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver error = %v", err)
	}

	checks := health.NewAggregator(time.Second)
	checks.Register(health.NewCacheChecker(shared))

	return &toolset{deps: &Deps{Registry: reg, Middleware: middleware, Cache: shared, Health: checks}}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestHandleGetWorkItem(t *testing.T) {
	t.Run("returns the work item", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{item: &ado.WorkItem{ID: 42, Title: "Fix login"}})

		res, err := ts.handleGetWorkItem(context.Background(), callRequest(map[string]any{"id": float64(42)}))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, res))
		}
		if text := resultText(t, res); !strings.Contains(text, "Fix login") {
			t.Errorf("result = %s", text)
		}
	})

	t.Run("validation failure becomes a tool error", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{})

		res, err := ts.handleGetWorkItem(context.Background(), callRequest(map[string]any{"id": float64(-1)}))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if !res.IsError {
			t.Fatal("expected tool error for a negative ID")
		}
		if text := resultText(t, res); !strings.Contains(text, "work item ID") {
			t.Errorf("error text = %s", text)
		}
	})

	t.Run("not found becomes a tool error", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{})

		res, err := ts.handleGetWorkItem(context.Background(), callRequest(map[string]any{"id": float64(7)}))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if !res.IsError {
			t.Fatal("expected tool error for a missing item")
		}
	})
}

func TestHandleUpdateWorkItem(t *testing.T) {
	ts := newTestToolset(t, &stubClient{item: &ado.WorkItem{ID: 5, State: "Active"}})

	res, err := ts.handleUpdateWorkItem(context.Background(), callRequest(map[string]any{
		"id":     float64(5),
		"fields": map[string]any{"System.State": "Active"},
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
}

func TestHandleMoveToSprint(t *testing.T) {
	t.Run("moves the work item", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{item: &ado.WorkItem{ID: 7, IterationPath: `Alpha\Sprint 2`}})

		res, err := ts.handleMoveToSprint(context.Background(), callRequest(map[string]any{
			"id":             float64(7),
			"iteration_path": "Sprint 2",
		}))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, res))
		}
		if text := resultText(t, res); !strings.Contains(text, `Alpha\\Sprint 2`) {
			t.Errorf("result = %s", text)
		}
	})

	t.Run("traversal path becomes a tool error", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{})

		res, err := ts.handleMoveToSprint(context.Background(), callRequest(map[string]any{
			"id":             float64(7),
			"iteration_path": `..\Other\Sprint 1`,
		}))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if !res.IsError {
			t.Fatal("expected tool error for a traversal path")
		}
	})
}

func TestHandleCurrentSprint(t *testing.T) {
	finish := time.Now().Add(48 * time.Hour)
	ts := newTestToolset(t, &stubClient{
		sprints: []ado.Sprint{{ID: "s", Name: "Sprint 4", Path: `Alpha\Sprint 4`, FinishDate: &finish}},
		ids:     []int{1, 2},
	})

	res, err := ts.handleCurrentSprint(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, "Sprint 4") {
		t.Errorf("result = %s", text)
	}
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func resourceText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	if len(contents) == 0 {
		t.Fatal("resource has no contents")
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents = %T, want TextResourceContents", contents[0])
	}
	return text.Text
}

func TestResourceHandlers(t *testing.T) {
	finish := time.Now().Add(72 * time.Hour)
	stub := &stubClient{
		item:     &ado.WorkItem{ID: 42, Title: "Fix login", Type: "Bug", State: "Active"},
		comments: []ado.Comment{{ID: 1, Text: "investigating"}},
		sprints:  []ado.Sprint{{ID: "s", Name: "Sprint 4", Path: `Alpha\Sprint 4`, FinishDate: &finish}},
		ids:      []int{1, 2},
	}

	t.Run("current sprint renders markdown", func(t *testing.T) {
		ts := newTestToolset(t, stub)

		contents, err := ts.handleCurrentSprintResource(context.Background(), readRequest("sprint://current"))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		text := resourceText(t, contents)
		if !strings.Contains(text, "# Current Sprint: Sprint 4") {
			t.Errorf("markdown = %s", text)
		}
		if !strings.Contains(text, "Total Items: 2") {
			t.Errorf("markdown should include the roll-up: %s", text)
		}
	})

	t.Run("sprint by iteration path", func(t *testing.T) {
		ts := newTestToolset(t, stub)

		contents, err := ts.handleSprintResource(context.Background(), readRequest("sprint://Sprint%204"))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		text := resourceText(t, contents)
		if !strings.Contains(text, `**Iteration Path:** Alpha\Sprint 4`) {
			t.Errorf("markdown should show the qualified path: %s", text)
		}
		if !strings.Contains(text, "- Active: 2") {
			t.Errorf("markdown should count items by state: %s", text)
		}
	})

	t.Run("work item by id", func(t *testing.T) {
		ts := newTestToolset(t, stub)

		contents, err := ts.handleWorkItemResource(context.Background(), readRequest("workitem://42"))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		text := resourceText(t, contents)
		if !strings.Contains(text, "# [42] Fix login") {
			t.Errorf("markdown = %s", text)
		}
		if !strings.Contains(text, "investigating") {
			t.Errorf("markdown should include recent comments: %s", text)
		}
	})

	t.Run("non-numeric work item id", func(t *testing.T) {
		ts := newTestToolset(t, stub)

		contents, err := ts.handleWorkItemResource(context.Background(), readRequest("workitem://abc"))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if text := resourceText(t, contents); !strings.Contains(text, "Error:") {
			t.Errorf("text = %s, want an error payload", text)
		}
	})
}

func TestHandleBridgeStats(t *testing.T) {
	ts := newTestToolset(t, &stubClient{item: &ado.WorkItem{ID: 1}})

	if _, err := ts.handleGetWorkItem(context.Background(), callRequest(map[string]any{"id": float64(1)})); err != nil {
		t.Fatalf("seed call error = %v", err)
	}

	res, err := ts.handleBridgeStats(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Alpha") {
		t.Errorf("stats should list the loaded project: %s", text)
	}
	if !strings.Contains(text, `"per_kind"`) || !strings.Contains(text, `"workitems": 1`) {
		t.Errorf("stats should break instances down by kind: %s", text)
	}
}

func TestHandleBridgeHealth(t *testing.T) {
	t.Run("reports per-check status", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{})
		ts.deps.Health.Register(health.NewCheckerFunc("backend", func(context.Context) health.Result {
			return health.Degraded("slow responses")
		}))

		res, err := ts.handleBridgeHealth(context.Background(), callRequest(nil))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		text := resultText(t, res)
		if !strings.Contains(text, `"status": "degraded"`) {
			t.Errorf("overall status missing: %s", text)
		}
		if !strings.Contains(text, "slow responses") {
			t.Errorf("check message missing: %s", text)
		}
	})

	t.Run("nil aggregator reports healthy", func(t *testing.T) {
		ts := newTestToolset(t, &stubClient{})
		ts.deps.Health = nil

		res, err := ts.handleBridgeHealth(context.Background(), callRequest(nil))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if text := resultText(t, res); !strings.Contains(text, `"status": "healthy"`) {
			t.Errorf("result = %s", text)
		}
	})
}

func TestHandleClearProject(t *testing.T) {
	ts := newTestToolset(t, &stubClient{item: &ado.WorkItem{ID: 1}})

	if _, err := ts.handleGetWorkItem(context.Background(), callRequest(map[string]any{"id": float64(1)})); err != nil {
		t.Fatalf("seed call error = %v", err)
	}

	res, err := ts.handleClearProject(context.Background(), callRequest(map[string]any{"project": "Alpha"}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, `"instances_dropped": 1`) {
		t.Errorf("result = %s", text)
	}

	res, err = ts.handleClearProject(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !res.IsError {
		t.Error("expected tool error for a missing project argument")
	}
}

func TestArgHelpers(t *testing.T) {
	req := callRequest(map[string]any{
		"count":  float64(7),
		"flag":   true,
		"fields": map[string]any{"a": "b"},
	})

	if got := intArg(req, "count", 0); got != 7 {
		t.Errorf("intArg = %d", got)
	}
	if got := intArg(req, "missing", 3); got != 3 {
		t.Errorf("intArg default = %d", got)
	}
	if !boolArg(req, "flag", false) {
		t.Error("boolArg should read true")
	}
	if m := mapArg(req, "fields"); m["a"] != "b" {
		t.Errorf("mapArg = %v", m)
	}
	if m := mapArg(req, "missing"); m != nil {
		t.Errorf("mapArg missing = %v", m)
	}
}

func TestNewRegistersTools(t *testing.T) {
	ts := newTestToolset(t, &stubClient{})
	s := New(ts.deps)
	if s == nil {
		t.Fatal("New returned nil")
	}
}
