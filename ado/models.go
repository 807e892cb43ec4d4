package ado

import "time"

// WorkItem is the flattened view of a remote work item that verb handlers
// consume. Fields holds the raw field map for anything not lifted into a
// struct member.
type WorkItem struct {
	ID            int            `json:"id"`
	Rev           int            `json:"rev,omitempty"`
	Title         string         `json:"title"`
	State         string         `json:"state"`
	Type          string         `json:"type"`
	AssignedTo    string         `json:"assigned_to,omitempty"`
	Priority      int            `json:"priority,omitempty"`
	RemainingWork float64        `json:"remaining_work,omitempty"`
	IterationPath string         `json:"iteration_path,omitempty"`
	Description   string         `json:"description,omitempty"`
	CreatedDate   *time.Time     `json:"created_date,omitempty"`
	ChangedDate   *time.Time     `json:"changed_date,omitempty"`
	URL           string         `json:"url,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// Sprint is an iteration with its schedule window.
type Sprint struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	FinishDate *time.Time `json:"finish_date,omitempty"`
	TimeFrame  string     `json:"time_frame,omitempty"` // past|current|future
}

// SprintSummary aggregates completion statistics for one iteration.
type SprintSummary struct {
	SprintName           string     `json:"sprint_name"`
	IterationPath        string     `json:"iteration_path"`
	TotalItems           int        `json:"total_items"`
	CompletedItems       int        `json:"completed_items"`
	InProgressItems      int        `json:"in_progress_items"`
	NotStartedItems      int        `json:"not_started_items"`
	CompletionPercentage float64    `json:"completion_percentage"`
	WorkItems            []WorkItem `json:"work_items"`
}

// Comment is one discussion entry on a work item.
type Comment struct {
	ID          int        `json:"id"`
	Text        string     `json:"text"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedDate *time.Time `json:"created_date,omitempty"`
}

// Relation is one directed link between two work items as returned by a
// link query.
type Relation struct {
	Source int `json:"source,omitempty"` // zero for the synthetic root link
	Target int `json:"target"`
}

// QueryResult is the outcome of a WIQL query: matched IDs plus the hydrated
// items fetched in batches.
type QueryResult struct {
	IDs   []int      `json:"ids"`
	Items []WorkItem `json:"items"`
}

// HierarchyNode is one work item in a parent/child tree.
type HierarchyNode struct {
	Item     WorkItem         `json:"item"`
	Children []*HierarchyNode `json:"children,omitempty"`
}

// PatchOp is a single JSON-patch operation against a work item document.
type PatchOp struct {
	Op    string `json:"op"` // add|replace|remove
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}
