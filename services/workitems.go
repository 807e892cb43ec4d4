package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonwraymond/boardbridge/ado"
	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/resilience"
	"github.com/jonwraymond/boardbridge/wiql"
)

// DefaultHierarchyDepth bounds tree traversal when the caller gives no
// explicit depth.
const DefaultHierarchyDepth = 5

// WorkItems serves work item reads, queries, and mutations for one
// project.
type WorkItems struct {
	client  Client
	project string
	chain   *resilience.Chain
	cache   *cache.Namespace
}

// NewWorkItems binds a work item service to one project. The namespace
// must be unique to this (service, project) pair so invalidation never
// crosses projects.
func NewWorkItems(client Client, project string, chain *resilience.Chain, ns *cache.Namespace) *WorkItems {
	return &WorkItems{client: client, project: project, chain: chain, cache: ns}
}

// Project returns the project this instance is bound to.
func (s *WorkItems) Project() string {
	return s.project
}

// GetOptions tunes a single work item read.
type GetOptions struct {
	// Fields limits the returned field set; empty means the detailed set.
	Fields []string

	// IncludeComments also fetches the discussion thread.
	IncludeComments bool
}

// WorkItemDetail is one work item with its optional discussion thread.
type WorkItemDetail struct {
	Item     ado.WorkItem  `json:"item"`
	Comments []ado.Comment `json:"comments,omitempty"`
}

// Get fetches one work item, served from cache when a fresh entry exists.
func (s *WorkItems) Get(ctx context.Context, id int, opts GetOptions) (*WorkItemDetail, error) {
	if err := wiql.ValidateWorkItemID(id); err != nil {
		return nil, err
	}
	fields := ado.DetailedFields
	if len(opts.Fields) > 0 {
		var err error
		fields, err = wiql.ValidateFieldNames(opts.Fields)
		if err != nil {
			return nil, err
		}
	}

	key := s.key("work_item", map[string]any{
		"id": id, "fields": fields, "comments": opts.IncludeComments,
	})
	if detail, ok := cachedAs[*WorkItemDetail](s.cache, key); ok {
		return detail, nil
	}

	detail, err := resilience.Do(ctx, s.chain, "workitems.get_work_item", func(ctx context.Context) (*WorkItemDetail, error) {
		item, err := s.client.GetWorkItem(ctx, s.project, id, fields)
		if err != nil {
			return nil, err
		}
		detail := &WorkItemDetail{Item: *item}
		if opts.IncludeComments {
			comments, err := s.client.GetComments(ctx, s.project, id)
			if err != nil {
				return nil, err
			}
			detail.Comments = comments
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	s.store(key, detail)
	return detail, nil
}

// MyWorkOptions filters the "assigned to me" listing.
type MyWorkOptions struct {
	State string
	Type  string
	Limit int
}

// MyWork lists work items assigned to the authenticated identity, most
// recently changed first.
func (s *WorkItems) MyWork(ctx context.Context, opts MyWorkOptions) ([]ado.WorkItem, error) {
	clauses := []string{
		"[System.AssignedTo] = @Me",
		fmt.Sprintf("[System.TeamProject] = '%s'", wiql.SanitizeLiteral(s.project)),
	}
	state := ""
	if opts.State != "" {
		var err error
		if state, err = wiql.ValidateState(opts.State); err != nil {
			return nil, err
		}
		clauses = append(clauses, fmt.Sprintf("[System.State] = '%s'", state))
	}
	itemType := ""
	if opts.Type != "" {
		var err error
		if itemType, err = wiql.ValidateWorkItemType(opts.Type); err != nil {
			return nil, err
		}
		clauses = append(clauses, fmt.Sprintf("[System.WorkItemType] = '%s'", itemType))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = ado.DefaultQueryLimit
	}

	query, err := wiql.ValidateQuery(fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE %s ORDER BY [System.ChangedDate] DESC",
		strings.Join(clauses, " AND ")))
	if err != nil {
		return nil, err
	}

	key := s.key("my_work_items", map[string]any{"state": state, "type": itemType, "limit": limit})
	if items, ok := cachedAs[[]ado.WorkItem](s.cache, key); ok {
		return items, nil
	}

	items, err := resilience.Do(ctx, s.chain, "workitems.my_work_items", func(ctx context.Context) ([]ado.WorkItem, error) {
		ids, err := s.client.WiqlIDs(ctx, s.project, query.String(), limit)
		if err != nil {
			return nil, err
		}
		return fetchAll(ctx, s.client, s.project, ids, ado.MyWorkFields)
	})
	if err != nil {
		return nil, err
	}
	s.store(key, items)
	return items, nil
}

// Query runs a caller-supplied WIQL query and hydrates the matches.
func (s *WorkItems) Query(ctx context.Context, query string, limit int) (*ado.QueryResult, error) {
	validated, err := wiql.ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = ado.DefaultQueryLimit
	}

	key := s.key("query", map[string]any{"query": validated.String(), "limit": limit})
	if result, ok := cachedAs[*ado.QueryResult](s.cache, key); ok {
		return result, nil
	}

	result, err := resilience.Do(ctx, s.chain, "workitems.query_work_items", func(ctx context.Context) (*ado.QueryResult, error) {
		ids, err := s.client.WiqlIDs(ctx, s.project, validated.String(), limit)
		if err != nil {
			return nil, err
		}
		items, err := fetchAll(ctx, s.client, s.project, ids, ado.BasicFields)
		if err != nil {
			return nil, err
		}
		return &ado.QueryResult{IDs: ids, Items: items}, nil
	})
	if err != nil {
		return nil, err
	}
	s.store(key, result)
	return result, nil
}

// CreateRequest carries the writable fields for a new work item.
type CreateRequest struct {
	Type          string
	Title         string
	Description   string
	AssignedTo    string
	IterationPath string
	Priority      int
}

// Create creates a work item and invalidates listings that may now be
// stale.
func (s *WorkItems) Create(ctx context.Context, req CreateRequest) (*ado.WorkItem, error) {
	workItemType, err := wiql.ValidateWorkItemType(req.Type)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, wiql.NewValidationError("title", req.Title, "title cannot be empty")
	}
	if err := wiql.ValidateFieldValue(ado.FieldTitle, req.Title); err != nil {
		return nil, err
	}

	ops := []ado.PatchOp{{Op: "add", Path: "/fields/" + ado.FieldTitle, Value: req.Title}}
	if req.Description != "" {
		if err := wiql.ValidateFieldValue(ado.FieldDescription, req.Description); err != nil {
			return nil, err
		}
		ops = append(ops, ado.PatchOp{Op: "add", Path: "/fields/" + ado.FieldDescription, Value: req.Description})
	}
	if req.AssignedTo != "" {
		ops = append(ops, ado.PatchOp{Op: "add", Path: "/fields/" + ado.FieldAssignedTo, Value: req.AssignedTo})
	}
	if req.IterationPath != "" {
		path, err := wiql.ValidateIterationPath(req.IterationPath, s.project)
		if err != nil {
			return nil, err
		}
		ops = append(ops, ado.PatchOp{Op: "add", Path: "/fields/" + ado.FieldIterationPath, Value: path})
	}
	if req.Priority != 0 {
		if err := wiql.ValidatePriority(req.Priority); err != nil {
			return nil, err
		}
		ops = append(ops, ado.PatchOp{Op: "add", Path: "/fields/" + ado.FieldPriority, Value: req.Priority})
	}

	item, err := resilience.Do(ctx, s.chain, "workitems.create_work_item", func(ctx context.Context) (*ado.WorkItem, error) {
		return s.client.CreateWorkItem(ctx, s.project, workItemType, ops)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateOp("my_work_items")
	s.cache.InvalidateOp("query")
	s.cache.InvalidateOp("search")
	return item, nil
}

// UpdateRequest carries field changes and an optional comment to append
// in the same operation.
type UpdateRequest struct {
	Fields  map[string]any
	Comment string
}

// Update applies field changes to an existing work item. Field names and
// values are validated against the allowed sets before anything is sent.
func (s *WorkItems) Update(ctx context.Context, id int, req UpdateRequest) (*ado.WorkItem, error) {
	if err := wiql.ValidateWorkItemID(id); err != nil {
		return nil, err
	}
	if len(req.Fields) == 0 && strings.TrimSpace(req.Comment) == "" {
		return nil, wiql.NewValidationError("fields", "", "nothing to update; provide fields or a comment")
	}

	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	ops := make([]ado.PatchOp, 0, len(names))
	for _, name := range names {
		canonical, err := wiql.ValidateFieldName(name)
		if err != nil {
			return nil, err
		}
		value := req.Fields[name]
		if err := wiql.ValidateFieldValue(canonical, value); err != nil {
			return nil, err
		}
		ops = append(ops, ado.PatchOp{Op: "add", Path: "/fields/" + canonical, Value: value})
	}

	item, err := resilience.Do(ctx, s.chain, "workitems.update_work_item", func(ctx context.Context) (*ado.WorkItem, error) {
		var updated *ado.WorkItem
		var err error
		if len(ops) > 0 {
			updated, err = s.client.UpdateWorkItem(ctx, s.project, id, ops)
		} else {
			updated, err = s.client.GetWorkItem(ctx, s.project, id, ado.DetailedFields)
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.Comment) != "" {
			if _, err := s.client.AddComment(ctx, s.project, id, req.Comment); err != nil {
				return nil, err
			}
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateOp("work_item")
	s.cache.InvalidateOp("my_work_items")
	return item, nil
}

// MoveToSprint reassigns a work item to another iteration. The target
// path goes through the traversal guard and project prefixing that the
// generic field update skips, since iteration paths are path-like rather
// than free text.
func (s *WorkItems) MoveToSprint(ctx context.Context, id int, iterationPath string) (*ado.WorkItem, error) {
	if err := wiql.ValidateWorkItemID(id); err != nil {
		return nil, err
	}
	path, err := wiql.ValidateIterationPath(iterationPath, s.project)
	if err != nil {
		return nil, err
	}

	ops := []ado.PatchOp{{Op: "add", Path: "/fields/" + ado.FieldIterationPath, Value: path}}
	item, err := resilience.Do(ctx, s.chain, "workitems.move_to_sprint", func(ctx context.Context) (*ado.WorkItem, error) {
		return s.client.UpdateWorkItem(ctx, s.project, id, ops)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateOp("work_item")
	s.cache.InvalidateOp("my_work_items")
	return item, nil
}

// AddComment appends a discussion entry to a work item.
func (s *WorkItems) AddComment(ctx context.Context, id int, text string) (*ado.Comment, error) {
	if err := wiql.ValidateWorkItemID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, wiql.NewValidationError("comment", "", "comment text cannot be empty")
	}

	comment, err := resilience.Do(ctx, s.chain, "workitems.add_comment", func(ctx context.Context) (*ado.Comment, error) {
		return s.client.AddComment(ctx, s.project, id, text)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateOp("work_item")
	return comment, nil
}

// SearchRequest is a word search over one text field with optional
// type and state filters.
type SearchRequest struct {
	Text  string
	Field string // defaults to the title field
	Type  string
	State string
	Limit int
}

// Search finds work items whose chosen field contains the given words.
func (s *WorkItems) Search(ctx context.Context, req SearchRequest) (*ado.QueryResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, wiql.NewValidationError("search text", "", "search text cannot be empty")
	}
	field := ado.FieldTitle
	if req.Field != "" {
		var err error
		if field, err = wiql.ValidateFieldName(req.Field); err != nil {
			return nil, err
		}
	}

	clauses := []string{
		fmt.Sprintf("[System.TeamProject] = '%s'", wiql.SanitizeLiteral(s.project)),
		fmt.Sprintf("[%s] CONTAINS WORDS '%s'", field, wiql.SanitizeLiteral(req.Text)),
	}
	if req.Type != "" {
		itemType, err := wiql.ValidateWorkItemType(req.Type)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, fmt.Sprintf("[System.WorkItemType] = '%s'", itemType))
	}
	if req.State != "" {
		state, err := wiql.ValidateState(req.State)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, fmt.Sprintf("[System.State] = '%s'", state))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = ado.DefaultQueryLimit
	}

	query, err := wiql.ValidateQuery(fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE %s ORDER BY [System.ChangedDate] DESC",
		strings.Join(clauses, " AND ")))
	if err != nil {
		return nil, err
	}

	key := s.key("search", map[string]any{"query": query.String(), "limit": limit})
	if result, ok := cachedAs[*ado.QueryResult](s.cache, key); ok {
		return result, nil
	}

	result, err := resilience.Do(ctx, s.chain, "workitems.search_work_items", func(ctx context.Context) (*ado.QueryResult, error) {
		ids, err := s.client.WiqlIDs(ctx, s.project, query.String(), limit)
		if err != nil {
			return nil, err
		}
		items, err := fetchAll(ctx, s.client, s.project, ids, ado.BasicFields)
		if err != nil {
			return nil, err
		}
		return &ado.QueryResult{IDs: ids, Items: items}, nil
	})
	if err != nil {
		return nil, err
	}
	s.store(key, result)
	return result, nil
}

// Historical lists work items that were ever in the given state,
// regardless of their current state.
func (s *WorkItems) Historical(ctx context.Context, state string, limit int) (*ado.QueryResult, error) {
	canonical, err := wiql.ValidateState(state)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = ado.DefaultQueryLimit
	}

	query, err := wiql.ValidateQuery(fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = '%s' "+
			"AND EVER [System.State] = '%s' ORDER BY [System.ChangedDate] DESC",
		wiql.SanitizeLiteral(s.project), canonical))
	if err != nil {
		return nil, err
	}

	key := s.key("historical", map[string]any{"state": canonical, "limit": limit})
	if result, ok := cachedAs[*ado.QueryResult](s.cache, key); ok {
		return result, nil
	}

	result, err := resilience.Do(ctx, s.chain, "workitems.historical_work_items", func(ctx context.Context) (*ado.QueryResult, error) {
		ids, err := s.client.WiqlIDs(ctx, s.project, query.String(), limit)
		if err != nil {
			return nil, err
		}
		items, err := fetchAll(ctx, s.client, s.project, ids, ado.BasicFields)
		if err != nil {
			return nil, err
		}
		return &ado.QueryResult{IDs: ids, Items: items}, nil
	})
	if err != nil {
		return nil, err
	}
	s.store(key, result)
	return result, nil
}

// Hierarchy returns the parent/child tree rooted at one work item. Depth
// counts edges from the root; a child at maxDepth is included as a leaf.
func (s *WorkItems) Hierarchy(ctx context.Context, rootID, maxDepth int) (*ado.HierarchyNode, error) {
	if err := wiql.ValidateWorkItemID(rootID); err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = DefaultHierarchyDepth
	}

	key := s.key("hierarchy", map[string]any{"id": rootID, "depth": maxDepth})
	if node, ok := cachedAs[*ado.HierarchyNode](s.cache, key); ok {
		return node, nil
	}

	query, err := wiql.ValidateQuery(fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItemLinks WHERE [Source].[System.Id] = %d "+
			"AND [System.Links.LinkType] = 'System.LinkTypes.Hierarchy-Forward' MODE (Recursive)",
		rootID))
	if err != nil {
		return nil, err
	}

	node, err := resilience.Do(ctx, s.chain, "workitems.work_item_hierarchy", func(ctx context.Context) (*ado.HierarchyNode, error) {
		rels, err := s.client.WiqlRelations(ctx, s.project, query.String(), 0)
		if err != nil {
			return nil, err
		}

		ids := []int{rootID}
		seen := map[int]bool{rootID: true}
		children := make(map[int][]int)
		for _, rel := range rels {
			if rel.Source != 0 {
				children[rel.Source] = append(children[rel.Source], rel.Target)
			}
			if !seen[rel.Target] {
				seen[rel.Target] = true
				ids = append(ids, rel.Target)
			}
		}

		items, err := fetchAll(ctx, s.client, s.project, ids, ado.BasicFields)
		if err != nil {
			return nil, err
		}
		byID := make(map[int]ado.WorkItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}

		root := buildTree(rootID, byID, children, 0, maxDepth, make(map[int]bool))
		if root == nil {
			return nil, ado.NewNotFoundError(rootID, nil)
		}
		return root, nil
	})
	if err != nil {
		return nil, err
	}
	s.store(key, node)
	return node, nil
}

// buildTree assembles nodes depth-first. The visited set guards against
// link cycles, which the remote data model permits.
func buildTree(id int, byID map[int]ado.WorkItem, children map[int][]int, depth, maxDepth int, visited map[int]bool) *ado.HierarchyNode {
	item, ok := byID[id]
	if !ok || visited[id] {
		return nil
	}
	visited[id] = true

	node := &ado.HierarchyNode{Item: item}
	if depth >= maxDepth {
		return node
	}
	for _, childID := range children[id] {
		if child := buildTree(childID, byID, children, depth+1, maxDepth, visited); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// key derives the namespaced cache key for an operation and its input.
// A canonicalization failure disables caching for the call rather than
// failing it.
func (s *WorkItems) key(op string, input map[string]any) string {
	k, err := cache.Key(op, input)
	if err != nil {
		return ""
	}
	return k
}

func (s *WorkItems) store(key string, value any) {
	if key != "" {
		s.cache.Set(value, key)
	}
}

// cachedAs reads a typed entry; a type mismatch is treated as a miss.
func cachedAs[T any](ns *cache.Namespace, key string) (T, bool) {
	var zero T
	if key == "" {
		return zero, false
	}
	v, ok := ns.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
