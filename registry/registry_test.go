package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/wiql"
)

type fakeService struct {
	project string
}

func newTestRegistry(defaultProject string) (*Registry, *cache.Cache) {
	c := cache.New(cache.DefaultConfig())
	r := New(defaultProject, c)
	r.Register(KindWorkItems, func(ctx context.Context, project string) (any, error) {
		return &fakeService{project: project}, nil
	})
	r.Register(KindSprints, func(ctx context.Context, project string) (any, error) {
		return &fakeService{project: project}, nil
	})
	return r, c
}

func TestRegistry_SameInstanceOnRepeatAccess(t *testing.T) {
	r, _ := newTestRegistry("")
	ctx := context.Background()

	first, err := r.Get(ctx, KindWorkItems, "Alpha")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	second, err := r.Get(ctx, KindWorkItems, "Alpha")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if first != second {
		t.Error("repeat access should return the identical instance")
	}

	stats := r.Statistics()
	if stats.Creations != 1 {
		t.Errorf("Creations = %d, want 1", stats.Creations)
	}
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
}

func TestRegistry_DistinctPerProjectAndKind(t *testing.T) {
	r, _ := newTestRegistry("")
	ctx := context.Background()

	alpha, _ := r.Get(ctx, KindWorkItems, "Alpha")
	beta, _ := r.Get(ctx, KindWorkItems, "Beta")
	alphaSprints, _ := r.Get(ctx, KindSprints, "Alpha")

	if alpha == beta {
		t.Error("different projects should get different instances")
	}
	if alpha == alphaSprints {
		t.Error("different kinds should get different instances")
	}
	if got := r.Statistics().Instances; got != 3 {
		t.Errorf("Instances = %d, want 3", got)
	}
}

func TestRegistry_DefaultProject(t *testing.T) {
	r, _ := newTestRegistry("Default")
	ctx := context.Background()

	svc, err := GetAs[*fakeService](ctx, r, KindWorkItems, "")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if svc.project != "Default" {
		t.Errorf("project = %q, want Default", svc.project)
	}

	// Whitespace-only also resolves to the default.
	svc, err = GetAs[*fakeService](ctx, r, KindWorkItems, "   ")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if svc.project != "Default" {
		t.Errorf("project = %q, want Default", svc.project)
	}
}

func TestRegistry_NoProjectNoDefault(t *testing.T) {
	r, _ := newTestRegistry("")

	_, err := r.Get(context.Background(), KindWorkItems, "")
	if err == nil {
		t.Fatal("Get without project or default should fail")
	}
	if !wiql.IsValidationError(err) {
		t.Errorf("error type = %T, want validation error", err)
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	r, _ := newTestRegistry("")

	_, err := r.Get(context.Background(), Kind("mystery"), "Alpha")
	if err == nil {
		t.Fatal("Get with unregistered kind should fail")
	}
}

func TestRegistry_FactoryErrorNotCached(t *testing.T) {
	c := cache.New(cache.DefaultConfig())
	r := New("", c)

	calls := 0
	r.Register(KindWorkItems, func(ctx context.Context, project string) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return &fakeService{project: project}, nil
	})

	ctx := context.Background()
	if _, err := r.Get(ctx, KindWorkItems, "Alpha"); err == nil {
		t.Fatal("first Get should surface the factory error")
	}
	if _, err := r.Get(ctx, KindWorkItems, "Alpha"); err != nil {
		t.Fatalf("second Get should retry the factory, got %v", err)
	}
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
}

func TestRegistry_ConcurrentAccessSharesOneConstruction(t *testing.T) {
	c := cache.New(cache.DefaultConfig())
	r := New("", c)

	var mu sync.Mutex
	creations := 0
	r.Register(KindWorkItems, func(ctx context.Context, project string) (any, error) {
		mu.Lock()
		creations++
		mu.Unlock()
		return &fakeService{project: project}, nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst, err := r.Get(ctx, KindWorkItems, "Alpha")
			if err != nil {
				t.Errorf("Get error = %v", err)
				return
			}
			results[i] = inst
		}(i)
	}
	wg.Wait()

	if creations != 1 {
		t.Errorf("creations = %d, want 1 shared construction", creations)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("all goroutines should receive the same instance")
		}
	}
}

func TestRegistry_LoadedProjects(t *testing.T) {
	r, _ := newTestRegistry("")
	ctx := context.Background()

	r.Get(ctx, KindWorkItems, "Zulu")
	r.Get(ctx, KindSprints, "Alpha")
	r.Get(ctx, KindWorkItems, "Alpha")

	got := r.LoadedProjects()
	want := []string{"Alpha", "Zulu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadedProjects = %v, want %v", got, want)
	}
}

func TestRegistry_ClearDropsProjectAndItsCache(t *testing.T) {
	r, c := newTestRegistry("")
	ctx := context.Background()

	alpha, _ := r.Get(ctx, KindWorkItems, "Alpha")
	r.Get(ctx, KindWorkItems, "Beta")

	c.Set(fmt.Sprintf("workitems%sAlpha%sitem%s1", cache.Separator, cache.Separator, cache.Separator), "cached")
	c.Set(fmt.Sprintf("workitems%sBeta%sitem%s1", cache.Separator, cache.Separator, cache.Separator), "cached")

	statsBefore := r.Statistics()

	if dropped := r.Clear("Alpha"); dropped != 1 {
		t.Errorf("Clear dropped %d, want 1", dropped)
	}

	if _, ok := c.Get("workitems:Alpha:item:1"); ok {
		t.Error("Alpha cache entries should be invalidated")
	}
	if _, ok := c.Get("workitems:Beta:item:1"); !ok {
		t.Error("Beta cache entries should survive")
	}

	// Lifetime counters survive the clear, a fresh instance gets built.
	statsAfter := r.Statistics()
	if statsAfter.Creations != statsBefore.Creations {
		t.Errorf("Creations changed across Clear: %d -> %d", statsBefore.Creations, statsAfter.Creations)
	}

	rebuilt, _ := r.Get(ctx, KindWorkItems, "Alpha")
	if rebuilt == alpha {
		t.Error("instance after Clear should be freshly built")
	}
}

func TestRegistry_ClearAll(t *testing.T) {
	r, c := newTestRegistry("")
	ctx := context.Background()

	r.Get(ctx, KindWorkItems, "Alpha")
	r.Get(ctx, KindSprints, "Beta")
	c.Set("sprints:Beta:list", "cached")

	r.ClearAll()

	if got := r.Statistics().Instances; got != 0 {
		t.Errorf("Instances = %d, want 0", got)
	}
	if len(r.LoadedProjects()) != 0 {
		t.Error("no projects should remain loaded")
	}
	if _, ok := c.Get("sprints:Beta:list"); ok {
		t.Error("cache entries owned by cleared instances should be gone")
	}
}

func TestGetAs_TypeMismatch(t *testing.T) {
	r, _ := newTestRegistry("")

	_, err := GetAs[*Registry](context.Background(), r, KindWorkItems, "Alpha")
	if err == nil {
		t.Fatal("GetAs with wrong type should fail")
	}
}

func TestRegistry_Statistics(t *testing.T) {
	r, _ := newTestRegistry("Default")
	ctx := context.Background()

	r.Get(ctx, KindWorkItems, "Alpha")
	r.Get(ctx, KindWorkItems, "Alpha")
	r.Get(ctx, KindSprints, "Alpha")

	stats := r.Statistics()
	if stats.Creations != 2 {
		t.Errorf("Creations = %d, want 2", stats.Creations)
	}
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.LoadedProjects != 1 {
		t.Errorf("LoadedProjects = %d, want 1", stats.LoadedProjects)
	}
	if stats.DefaultProject != "Default" {
		t.Errorf("DefaultProject = %q, want Default", stats.DefaultProject)
	}
	wantRate := 1.0 / 3.0 * 100
	if stats.HitRate < wantRate-0.01 || stats.HitRate > wantRate+0.01 {
		t.Errorf("HitRate = %f, want ~%f", stats.HitRate, wantRate)
	}
}

func TestRegistry_StatisticsPerKind(t *testing.T) {
	r, _ := newTestRegistry("Default")
	ctx := context.Background()

	r.Get(ctx, KindWorkItems, "Alpha")
	r.Get(ctx, KindWorkItems, "Beta")
	r.Get(ctx, KindSprints, "Alpha")

	perKind := r.Statistics().PerKind
	if perKind[KindWorkItems] != 2 {
		t.Errorf("PerKind[workitems] = %d, want 2", perKind[KindWorkItems])
	}
	if perKind[KindSprints] != 1 {
		t.Errorf("PerKind[sprints] = %d, want 1", perKind[KindSprints])
	}

	r.Clear("Beta")
	perKind = r.Statistics().PerKind
	if perKind[KindWorkItems] != 1 {
		t.Errorf("PerKind[workitems] after Clear = %d, want 1", perKind[KindWorkItems])
	}
}
