package services

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/boardbridge/ado"
	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/resilience"
)

// fakeClient implements Client with per-method hooks. Unhooked methods
// fail so tests notice unexpected calls.
type fakeClient struct {
	getWorkItem    func(project string, id int, fields []string) (*ado.WorkItem, error)
	getWorkItems   func(project string, ids []int, fields []string) ([]ado.WorkItem, error)
	wiqlIDs        func(project, query string, top int) ([]int, error)
	wiqlRelations  func(project, query string, top int) ([]ado.Relation, error)
	createWorkItem func(project, workItemType string, ops []ado.PatchOp) (*ado.WorkItem, error)
	updateWorkItem func(project string, id int, ops []ado.PatchOp) (*ado.WorkItem, error)
	getComments    func(project string, id int) ([]ado.Comment, error)
	addComment     func(project string, id int, text string) (*ado.Comment, error)
	listIterations func(project, timeframe string) ([]ado.Sprint, error)

	calls map[string]int
}

var errNotHooked = errors.New("fake client: method not hooked")

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

func (f *fakeClient) record(method string) {
	f.calls[method]++
}

func (f *fakeClient) GetWorkItem(_ context.Context, project string, id int, fields []string) (*ado.WorkItem, error) {
	f.record("GetWorkItem")
	if f.getWorkItem == nil {
		return nil, errNotHooked
	}
	return f.getWorkItem(project, id, fields)
}

func (f *fakeClient) GetWorkItems(_ context.Context, project string, ids []int, fields []string) ([]ado.WorkItem, error) {
	f.record("GetWorkItems")
	if f.getWorkItems == nil {
		return nil, errNotHooked
	}
	return f.getWorkItems(project, ids, fields)
}

func (f *fakeClient) WiqlIDs(_ context.Context, project, query string, top int) ([]int, error) {
	f.record("WiqlIDs")
	if f.wiqlIDs == nil {
		return nil, errNotHooked
	}
	return f.wiqlIDs(project, query, top)
}

func (f *fakeClient) WiqlRelations(_ context.Context, project, query string, top int) ([]ado.Relation, error) {
	f.record("WiqlRelations")
	if f.wiqlRelations == nil {
		return nil, errNotHooked
	}
	return f.wiqlRelations(project, query, top)
}

func (f *fakeClient) CreateWorkItem(_ context.Context, project, workItemType string, ops []ado.PatchOp) (*ado.WorkItem, error) {
	f.record("CreateWorkItem")
	if f.createWorkItem == nil {
		return nil, errNotHooked
	}
	return f.createWorkItem(project, workItemType, ops)
}

func (f *fakeClient) UpdateWorkItem(_ context.Context, project string, id int, ops []ado.PatchOp) (*ado.WorkItem, error) {
	f.record("UpdateWorkItem")
	if f.updateWorkItem == nil {
		return nil, errNotHooked
	}
	return f.updateWorkItem(project, id, ops)
}

func (f *fakeClient) GetComments(_ context.Context, project string, id int) ([]ado.Comment, error) {
	f.record("GetComments")
	if f.getComments == nil {
		return nil, errNotHooked
	}
	return f.getComments(project, id)
}

func (f *fakeClient) AddComment(_ context.Context, project string, id int, text string) (*ado.Comment, error) {
	f.record("AddComment")
	if f.addComment == nil {
		return nil, errNotHooked
	}
	return f.addComment(project, id, text)
}

func (f *fakeClient) ListIterations(_ context.Context, project, timeframe string) ([]ado.Sprint, error) {
	f.record("ListIterations")
	if f.listIterations == nil {
		return nil, errNotHooked
	}
	return f.listIterations(project, timeframe)
}

var _ Client = (*fakeClient)(nil)

func testChain() *resilience.Chain {
	return resilience.NewChain(resilience.ChainConfig{
		Timeout: resilience.TimeoutConfig{Timeout: time.Second},
		Retry: resilience.RetryConfig{
			MaxRetries: 1,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
			Multiplier: 2.0,
		},
	})
}

func newTestWorkItems(client Client) *WorkItems {
	c := cache.New(cache.DefaultConfig())
	return NewWorkItems(client, "Alpha", testChain(), cache.NewNamespace(c, "workitems:Alpha", 0))
}

func newTestSprints(client Client) *Sprints {
	c := cache.New(cache.DefaultConfig())
	return NewSprints(client, "Alpha", testChain(), cache.NewNamespace(c, "sprints:Alpha", 0))
}
