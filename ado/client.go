package ado

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"
)

const apiVersion = "7.1"

// maxErrorBody bounds how much of an error response body is kept on the
// classified error.
const maxErrorBody = 512

// Client is the REST adapter for one organization. It is the single
// boundary where transport failures are normalized into Signals and
// classified; no raw response ever crosses it.
type Client struct {
	http  *resty.Client
	authz func(ctx context.Context) (string, error)
}

func newClient(orgURL string, authz func(ctx context.Context) (string, error)) *Client {
	httpc := resty.New().
		SetBaseURL(strings.TrimRight(orgURL, "/")).
		SetHeader("Accept", "application/json")
	return &Client{http: httpc, authz: authz}
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// do issues one request and normalizes any failure. A non-2xx response is
// turned into a Signal and classified; errors without a status code become
// KindUnknown so nothing raw escapes the adapter.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, contentType string, body, out any) error {
	header, err := c.authz(ctx)
	if err != nil {
		return &Error{
			Kind:    KindUnauthorized,
			Message: "credential acquisition failed; refresh credentials and retry",
			cause:   err,
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", header).
		SetQueryParam("api-version", apiVersion)
	for k, v := range query {
		req.SetQueryParam(k, v)
	}
	if body != nil {
		req.SetBody(body)
		if contentType != "" {
			req.SetHeader("Content-Type", contentType)
		}
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return NewUnknownError(method+" "+path, err)
	}
	if resp.IsError() {
		return Classify(Signal{
			Code:    resp.StatusCode(),
			Headers: flattenHeaders(resp.Header()),
			Message: truncate(resp.String(), maxErrorBody),
		})
	}
	return nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// --- wire documents ---

type workItemDoc struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url"`
}

type workItemBatchDoc struct {
	Count int           `json:"count"`
	Value []workItemDoc `json:"value"`
}

type wiqlResultDoc struct {
	QueryType string `json:"queryType"`
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
	WorkItemRelations []struct {
		Rel    string `json:"rel"`
		Source *struct {
			ID int `json:"id"`
		} `json:"source"`
		Target *struct {
			ID int `json:"id"`
		} `json:"target"`
	} `json:"workItemRelations"`
}

type commentDoc struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	CreatedBy *struct {
		DisplayName string `json:"displayName"`
		UniqueName  string `json:"uniqueName"`
	} `json:"createdBy"`
	CreatedDate *time.Time `json:"createdDate"`
}

type commentListDoc struct {
	Count    int          `json:"count"`
	Comments []commentDoc `json:"comments"`
}

type iterationDoc struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Attributes struct {
		StartDate  *time.Time `json:"startDate"`
		FinishDate *time.Time `json:"finishDate"`
		TimeFrame  string     `json:"timeFrame"`
	} `json:"attributes"`
}

type iterationListDoc struct {
	Count int            `json:"count"`
	Value []iterationDoc `json:"value"`
}

// --- work item tracking ---

// GetWorkItem fetches one work item with the given field set.
func (c *Client) GetWorkItem(ctx context.Context, project string, id int, fields []string) (*WorkItem, error) {
	var doc workItemDoc
	query := map[string]string{}
	if len(fields) > 0 {
		query["fields"] = strings.Join(fields, ",")
	}
	path := fmt.Sprintf("/%s/_apis/wit/workitems/%d", project, id)
	if err := c.do(ctx, http.MethodGet, path, query, "", nil, &doc); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewNotFoundError(id, err)
		}
		return nil, err
	}
	item := fromDoc(doc)
	return &item, nil
}

// GetWorkItems fetches a batch of work items by ID. Callers are expected to
// chunk at BatchSize.
func (c *Client) GetWorkItems(ctx context.Context, project string, ids []int, fields []string) ([]WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.Itoa(id)
	}
	query := map[string]string{"ids": strings.Join(strIDs, ",")}
	if len(fields) > 0 {
		query["fields"] = strings.Join(fields, ",")
	}

	var doc workItemBatchDoc
	path := fmt.Sprintf("/%s/_apis/wit/workitems", project)
	if err := c.do(ctx, http.MethodGet, path, query, "", nil, &doc); err != nil {
		return nil, err
	}
	items := make([]WorkItem, 0, len(doc.Value))
	for _, d := range doc.Value {
		items = append(items, fromDoc(d))
	}
	return items, nil
}

// WiqlIDs runs a validated WIQL query and returns matched IDs in result
// order. For link queries the target side of each relation is returned.
func (c *Client) WiqlIDs(ctx context.Context, project, query string, top int) ([]int, error) {
	q := map[string]string{}
	if top > 0 {
		q["$top"] = strconv.Itoa(top)
	}

	var doc wiqlResultDoc
	path := fmt.Sprintf("/%s/_apis/wit/wiql", project)
	body := map[string]string{"query": query}
	if err := c.do(ctx, http.MethodPost, path, q, "application/json", body, &doc); err != nil {
		return nil, err
	}

	if len(doc.WorkItemRelations) > 0 {
		ids := make([]int, 0, len(doc.WorkItemRelations))
		seen := make(map[int]bool)
		for _, rel := range doc.WorkItemRelations {
			if rel.Target == nil || seen[rel.Target.ID] {
				continue
			}
			seen[rel.Target.ID] = true
			ids = append(ids, rel.Target.ID)
		}
		return ids, nil
	}

	ids := make([]int, 0, len(doc.WorkItems))
	for _, wi := range doc.WorkItems {
		ids = append(ids, wi.ID)
	}
	return ids, nil
}

// WiqlRelations runs a link query (WorkItemLinks) and returns every
// source/target pair. Root-level links have a zero Source.
func (c *Client) WiqlRelations(ctx context.Context, project, query string, top int) ([]Relation, error) {
	q := map[string]string{}
	if top > 0 {
		q["$top"] = strconv.Itoa(top)
	}

	var doc wiqlResultDoc
	path := fmt.Sprintf("/%s/_apis/wit/wiql", project)
	body := map[string]string{"query": query}
	if err := c.do(ctx, http.MethodPost, path, q, "application/json", body, &doc); err != nil {
		return nil, err
	}

	rels := make([]Relation, 0, len(doc.WorkItemRelations))
	for _, rel := range doc.WorkItemRelations {
		if rel.Target == nil {
			continue
		}
		r := Relation{Target: rel.Target.ID}
		if rel.Source != nil {
			r.Source = rel.Source.ID
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// CreateWorkItem creates a work item of the given type from patch ops.
func (c *Client) CreateWorkItem(ctx context.Context, project, workItemType string, ops []PatchOp) (*WorkItem, error) {
	var doc workItemDoc
	path := fmt.Sprintf("/%s/_apis/wit/workitems/$%s", project, workItemType)
	if err := c.do(ctx, http.MethodPost, path, nil, "application/json-patch+json", ops, &doc); err != nil {
		return nil, err
	}
	item := fromDoc(doc)
	return &item, nil
}

// UpdateWorkItem applies patch ops to an existing work item.
func (c *Client) UpdateWorkItem(ctx context.Context, project string, id int, ops []PatchOp) (*WorkItem, error) {
	var doc workItemDoc
	path := fmt.Sprintf("/%s/_apis/wit/workitems/%d", project, id)
	if err := c.do(ctx, http.MethodPatch, path, nil, "application/json-patch+json", ops, &doc); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewNotFoundError(id, err)
		}
		return nil, err
	}
	item := fromDoc(doc)
	return &item, nil
}

// --- comments ---

// GetComments returns the discussion entries on a work item, newest first
// as the API delivers them.
func (c *Client) GetComments(ctx context.Context, project string, id int) ([]Comment, error) {
	var doc commentListDoc
	path := fmt.Sprintf("/%s/_apis/wit/workItems/%d/comments", project, id)
	if err := c.do(ctx, http.MethodGet, path, nil, "", nil, &doc); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewNotFoundError(id, err)
		}
		return nil, err
	}
	comments := make([]Comment, 0, len(doc.Comments))
	for _, d := range doc.Comments {
		comments = append(comments, fromCommentDoc(d))
	}
	return comments, nil
}

// AddComment appends a discussion entry to a work item.
func (c *Client) AddComment(ctx context.Context, project string, id int, text string) (*Comment, error) {
	var doc commentDoc
	path := fmt.Sprintf("/%s/_apis/wit/workItems/%d/comments", project, id)
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, path, nil, "application/json", body, &doc); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewNotFoundError(id, err)
		}
		return nil, err
	}
	comment := fromCommentDoc(doc)
	return &comment, nil
}

func fromCommentDoc(doc commentDoc) Comment {
	c := Comment{ID: doc.ID, Text: doc.Text, CreatedDate: doc.CreatedDate}
	if doc.CreatedBy != nil {
		c.CreatedBy = doc.CreatedBy.DisplayName
		if c.CreatedBy == "" {
			c.CreatedBy = doc.CreatedBy.UniqueName
		}
	}
	return c
}

// --- iterations ---

// ListIterations returns the team's iterations, optionally filtered by
// timeframe ("current").
func (c *Client) ListIterations(ctx context.Context, project, timeframe string) ([]Sprint, error) {
	query := map[string]string{}
	if timeframe != "" {
		query["$timeframe"] = timeframe
	}

	var doc iterationListDoc
	path := fmt.Sprintf("/%s/_apis/work/teamsettings/iterations", project)
	if err := c.do(ctx, http.MethodGet, path, query, "", nil, &doc); err != nil {
		return nil, err
	}
	sprints := make([]Sprint, 0, len(doc.Value))
	for _, d := range doc.Value {
		sprints = append(sprints, Sprint{
			ID:         d.ID,
			Name:       d.Name,
			Path:       d.Path,
			StartDate:  d.Attributes.StartDate,
			FinishDate: d.Attributes.FinishDate,
			TimeFrame:  d.Attributes.TimeFrame,
		})
	}
	return sprints, nil
}

// --- document mapping ---

func fromDoc(doc workItemDoc) WorkItem {
	item := WorkItem{
		ID:     doc.ID,
		Rev:    doc.Rev,
		URL:    doc.URL,
		Fields: doc.Fields,
	}
	item.Title = fieldString(doc.Fields, FieldTitle)
	item.State = fieldString(doc.Fields, FieldState)
	item.Type = fieldString(doc.Fields, FieldWorkItemType)
	item.AssignedTo = identityName(doc.Fields[FieldAssignedTo])
	item.Priority = int(fieldFloat(doc.Fields, FieldPriority))
	item.RemainingWork = fieldFloat(doc.Fields, FieldRemainingWork)
	item.IterationPath = fieldString(doc.Fields, FieldIterationPath)
	item.Description = fieldString(doc.Fields, FieldDescription)
	item.CreatedDate = fieldTime(doc.Fields, FieldCreatedDate)
	item.ChangedDate = fieldTime(doc.Fields, FieldChangedDate)
	return item
}

func fieldString(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func fieldFloat(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func fieldTime(fields map[string]any, key string) *time.Time {
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// identityName extracts a display name from an identity field, which the
// API returns either as an object or a plain string.
func identityName(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case map[string]any:
		if name, ok := id["displayName"].(string); ok {
			return name
		}
		if name, ok := id["uniqueName"].(string); ok {
			return name
		}
	}
	return ""
}
