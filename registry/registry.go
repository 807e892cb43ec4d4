// Package registry manages lazily created per-project service instances.
// A single registry serves every project in the organization; instances
// are built on first access through singleflight so concurrent callers
// share one construction, and each project's instances and cache entries
// can be dropped without touching any other project.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/wiql"
)

// Kind identifies a service family within the registry.
type Kind string

const (
	KindWorkItems Kind = "workitems"
	KindSprints   Kind = "sprints"
)

// Factory builds a service instance for one project.
type Factory func(ctx context.Context, project string) (any, error)

// Stats summarizes registry usage since construction. Creations and Hits
// are lifetime counters and survive Clear calls.
type Stats struct {
	LoadedProjects int          `json:"loaded_projects"`
	Instances      int          `json:"instances"`
	PerKind        map[Kind]int `json:"per_kind"`
	Creations      int64        `json:"creations"`
	Hits           int64        `json:"hits"`
	HitRate        float64      `json:"hit_rate"`
	DefaultProject string       `json:"default_project"`
}

// Registry holds one instance per (kind, project) pair.
type Registry struct {
	mu             sync.Mutex
	group          singleflight.Group
	factories      map[Kind]Factory
	instances      map[string]any
	cache          *cache.Cache
	defaultProject string
	creations      int64
	hits           int64
}

// New creates a registry. The shared cache may be nil when the caller has
// no cache to tie instance lifecycles to; Clear then only drops instances.
func New(defaultProject string, c *cache.Cache) *Registry {
	return &Registry{
		factories:      make(map[Kind]Factory),
		instances:      make(map[string]any),
		cache:          c,
		defaultProject: defaultProject,
	}
}

// Register installs the factory for a service kind. Registration happens
// once at startup, before any Get.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Get returns the instance for (kind, project), creating it on first
// access. An empty project resolves to the default project; with no
// default configured the call fails validation.
func (r *Registry) Get(ctx context.Context, kind Kind, project string) (any, error) {
	project, err := r.resolveProject(project)
	if err != nil {
		return nil, err
	}

	key := instanceKey(kind, project)

	r.mu.Lock()
	if inst, ok := r.instances[key]; ok {
		r.hits++
		r.mu.Unlock()
		return inst, nil
	}
	factory, ok := r.factories[kind]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("registry: no factory registered for kind %q", kind)
	}

	inst, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		if inst, ok := r.instances[key]; ok {
			r.hits++
			r.mu.Unlock()
			return inst, nil
		}
		r.mu.Unlock()

		inst, err := factory(ctx, project)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.instances[key] = inst
		r.creations++
		r.mu.Unlock()
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// GetAs returns the instance for (kind, project) with its concrete type.
func GetAs[T any](ctx context.Context, r *Registry, kind Kind, project string) (T, error) {
	var zero T
	inst, err := r.Get(ctx, kind, project)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("registry: instance for kind %q is %T, not %T", kind, inst, zero)
	}
	return typed, nil
}

func (r *Registry) resolveProject(project string) (string, error) {
	project = strings.TrimSpace(project)
	if project != "" {
		return project, nil
	}
	if r.defaultProject != "" {
		return r.defaultProject, nil
	}
	return "", wiql.NewValidationError("project", "",
		"project name is required; pass a project or configure a default project")
}

// LoadedProjects lists projects with at least one live instance, sorted.
func (r *Registry) LoadedProjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	for key := range r.instances {
		_, project, ok := strings.Cut(key, cache.Separator)
		if ok {
			seen[project] = struct{}{}
		}
	}
	projects := make([]string, 0, len(seen))
	for p := range seen {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects
}

// Clear drops every instance for one project and invalidates the
// project's cache namespaces. Lifetime counters are preserved. Returns
// the number of instances dropped.
func (r *Registry) Clear(project string) int {
	r.mu.Lock()
	dropped := 0
	var kinds []Kind
	for key := range r.instances {
		kind, owner, ok := strings.Cut(key, cache.Separator)
		if ok && owner == project {
			delete(r.instances, key)
			kinds = append(kinds, Kind(kind))
			dropped++
		}
	}
	r.mu.Unlock()

	if r.cache != nil {
		for _, kind := range kinds {
			r.cache.InvalidatePrefix(instanceKey(kind, project) + cache.Separator)
		}
	}
	return dropped
}

// ClearAll drops every instance and the cache entries they own.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	keys := make([]string, 0, len(r.instances))
	for key := range r.instances {
		keys = append(keys, key)
	}
	r.instances = make(map[string]any)
	r.mu.Unlock()

	if r.cache != nil {
		for _, key := range keys {
			r.cache.InvalidatePrefix(key + cache.Separator)
		}
	}
}

// Statistics reports registry usage.
func (r *Registry) Statistics() Stats {
	loaded := len(r.LoadedProjects())

	r.mu.Lock()
	defer r.mu.Unlock()

	perKind := make(map[Kind]int)
	for key := range r.instances {
		kind, _, ok := strings.Cut(key, cache.Separator)
		if ok {
			perKind[Kind(kind)]++
		}
	}

	total := r.creations + r.hits
	rate := 0.0
	if total > 0 {
		rate = float64(r.hits) / float64(total) * 100
	}
	return Stats{
		LoadedProjects: loaded,
		Instances:      len(r.instances),
		PerKind:        perKind,
		Creations:      r.creations,
		Hits:           r.hits,
		HitRate:        rate,
		DefaultProject: r.defaultProject,
	}
}

// instanceKey is also the cache namespace prefix for the instance, which
// is what lets Clear drop a project's cached data alongside its services.
func instanceKey(kind Kind, project string) string {
	return string(kind) + cache.Separator + project
}
