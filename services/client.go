package services

import (
	"context"

	"github.com/jonwraymond/boardbridge/ado"
)

// Client is the subset of the remote adapter the services consume.
// *ado.Client satisfies it; tests substitute a fake.
type Client interface {
	GetWorkItem(ctx context.Context, project string, id int, fields []string) (*ado.WorkItem, error)
	GetWorkItems(ctx context.Context, project string, ids []int, fields []string) ([]ado.WorkItem, error)
	WiqlIDs(ctx context.Context, project, query string, top int) ([]int, error)
	WiqlRelations(ctx context.Context, project, query string, top int) ([]ado.Relation, error)
	CreateWorkItem(ctx context.Context, project, workItemType string, ops []ado.PatchOp) (*ado.WorkItem, error)
	UpdateWorkItem(ctx context.Context, project string, id int, ops []ado.PatchOp) (*ado.WorkItem, error)
	GetComments(ctx context.Context, project string, id int) ([]ado.Comment, error)
	AddComment(ctx context.Context, project string, id int, text string) (*ado.Comment, error)
	ListIterations(ctx context.Context, project, timeframe string) ([]ado.Sprint, error)
}

// fetchAll hydrates ids in result order, chunking at the batch ceiling.
// A result set over the query cap fails before any fetch is attempted.
func fetchAll(ctx context.Context, client Client, project string, ids []int, fields []string) ([]ado.WorkItem, error) {
	if len(ids) == 0 {
		return []ado.WorkItem{}, nil
	}
	if len(ids) > ado.MaxQueryResults {
		return nil, ado.NewQueryTooLargeError(len(ids))
	}

	items := make([]ado.WorkItem, 0, len(ids))
	for start := 0; start < len(ids); start += ado.BatchSize {
		end := min(start+ado.BatchSize, len(ids))
		batch, err := client.GetWorkItems(ctx, project, ids[start:end], fields)
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}
	return items, nil
}
