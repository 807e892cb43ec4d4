package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonwraymond/boardbridge/ado"
	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/resilience"
	"github.com/jonwraymond/boardbridge/wiql"
)

// ErrNoActiveSprint is returned when the team has no iteration in the
// current timeframe.
var ErrNoActiveSprint = errors.New("no active sprint found for the team")

// Sprints serves iteration listings and sprint roll-ups for one project.
type Sprints struct {
	client  Client
	project string
	chain   *resilience.Chain
	cache   *cache.Namespace
}

// NewSprints binds a sprint service to one project.
func NewSprints(client Client, project string, chain *resilience.Chain, ns *cache.Namespace) *Sprints {
	return &Sprints{client: client, project: project, chain: chain, cache: ns}
}

// Project returns the project this instance is bound to.
func (s *Sprints) Project() string {
	return s.project
}

// CurrentSprint is the active iteration with its remaining runway and
// completion roll-up.
type CurrentSprint struct {
	Sprint        ado.Sprint         `json:"sprint"`
	DaysRemaining int                `json:"days_remaining"`
	Summary       *ado.SprintSummary `json:"summary,omitempty"`
}

// List returns the team's iterations.
func (s *Sprints) List(ctx context.Context) ([]ado.Sprint, error) {
	key := s.key("iterations", nil)
	if sprints, ok := cachedAs[[]ado.Sprint](s.cache, key); ok {
		return sprints, nil
	}

	sprints, err := resilience.Do(ctx, s.chain, "sprints.team_iterations", func(ctx context.Context) ([]ado.Sprint, error) {
		return s.client.ListIterations(ctx, s.project, "")
	})
	if err != nil {
		return nil, err
	}
	s.store(key, sprints)
	return sprints, nil
}

// Current returns the active iteration with days remaining and its work
// item roll-up.
func (s *Sprints) Current(ctx context.Context) (*CurrentSprint, error) {
	key := s.key("current_sprint", nil)
	if current, ok := cachedAs[*CurrentSprint](s.cache, key); ok {
		return current, nil
	}

	sprints, err := resilience.Do(ctx, s.chain, "sprints.current_sprint", func(ctx context.Context) ([]ado.Sprint, error) {
		return s.client.ListIterations(ctx, s.project, "current")
	})
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return nil, ErrNoActiveSprint
	}
	sprint := sprints[0]

	summary, err := s.WorkItems(ctx, sprint.Path)
	if err != nil {
		return nil, err
	}

	current := &CurrentSprint{
		Sprint:        sprint,
		DaysRemaining: daysRemaining(sprint.FinishDate, time.Now()),
		Summary:       summary,
	}
	s.store(key, current)
	return current, nil
}

// WorkItems returns every work item under an iteration path with
// completion statistics rolled up by state.
func (s *Sprints) WorkItems(ctx context.Context, iterationPath string) (*ado.SprintSummary, error) {
	path, err := wiql.ValidateIterationPath(iterationPath, s.project)
	if err != nil {
		return nil, err
	}

	key := s.key("sprint_work_items", map[string]any{"path": path})
	if summary, ok := cachedAs[*ado.SprintSummary](s.cache, key); ok {
		return summary, nil
	}

	query, err := wiql.ValidateQuery(fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE [System.IterationPath] = '%s' "+
			"ORDER BY [Microsoft.VSTS.Common.StackRank] ASC",
		wiql.SanitizeLiteral(path)))
	if err != nil {
		return nil, err
	}

	summary, err := resilience.Do(ctx, s.chain, "sprints.sprint_work_items", func(ctx context.Context) (*ado.SprintSummary, error) {
		ids, err := s.client.WiqlIDs(ctx, s.project, query.String(), ado.SprintQueryLimit)
		if err != nil {
			return nil, err
		}
		items, err := fetchAll(ctx, s.client, s.project, ids, ado.SprintFields)
		if err != nil {
			return nil, err
		}
		return summarize(path, items), nil
	})
	if err != nil {
		return nil, err
	}
	s.store(key, summary)
	return summary, nil
}

// summarize rolls sprint items up by state. States outside the completed
// and in-progress sets count as not started.
func summarize(path string, items []ado.WorkItem) *ado.SprintSummary {
	summary := &ado.SprintSummary{
		SprintName:    sprintName(path),
		IterationPath: path,
		TotalItems:    len(items),
		WorkItems:     items,
	}
	for _, item := range items {
		switch {
		case ado.CompletedStates[item.State]:
			summary.CompletedItems++
		case ado.InProgressStates[item.State]:
			summary.InProgressItems++
		default:
			summary.NotStartedItems++
		}
	}
	if summary.TotalItems > 0 {
		pct := float64(summary.CompletedItems) / float64(summary.TotalItems) * 100
		summary.CompletionPercentage = math.Round(pct*10) / 10
	}
	return summary
}

// sprintName is the last segment of an iteration path.
func sprintName(path string) string {
	if i := strings.LastIndex(path, `\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// daysRemaining counts whole days from now until the finish date, never
// negative. A sprint with no finish date reports zero.
func daysRemaining(finish *time.Time, now time.Time) int {
	if finish == nil {
		return 0
	}
	days := int(math.Ceil(finish.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func (s *Sprints) key(op string, input map[string]any) string {
	k, err := cache.Key(op, input)
	if err != nil {
		return ""
	}
	return k
}

func (s *Sprints) store(key string, value any) {
	if key != "" {
		s.cache.Set(value, key)
	}
}
