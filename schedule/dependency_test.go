package schedule

import (
	"sort"
	"testing"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/graph"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
)

func TestRunDependencyAware_SimpleChainSucceeds(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{okSignal("a"), okSignal("b"), okSignal("c")}
	g, err := graph.NewBuilder().DependsOn("b", "a").DependsOn("c", "b").Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	p := newTestRunParams(sigs, &opts)
	results := RunDependencyAware(p, g)

	byName := map[string]result.SignalResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"a", "b", "c"} {
		if byName[name].Status != result.StatusSucceeded {
			t.Errorf("%s: expected Succeeded, got %s", name, byName[name].Status)
		}
	}
}

// TestRunDependencyAware_FailurePropagatesTransitively mirrors the
// cfg -> api, db -> cache, cache -> worker, cfg -> worker graph where db
// fails: cfg and api succeed, while cache and worker (transitively) are
// skipped with failedDependencies tracing back to db.
func TestRunDependencyAware_FailurePropagatesTransitively(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{
		okSignal("cfg"),
		okSignal("api"),
		failSignal("db"),
		okSignal("cache"),
		okSignal("worker"),
	}
	g, err := graph.NewBuilder().
		DependsOn("api", "cfg").
		DependsOn("cache", "db").
		DependsOn("worker", "cache").
		DependsOn("worker", "cfg").
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	p := newTestRunParams(sigs, &opts)
	results := RunDependencyAware(p, g)

	byName := map[string]result.SignalResult{}
	for _, r := range results {
		byName[r.Name] = r
	}

	if byName["cfg"].Status != result.StatusSucceeded {
		t.Errorf("cfg: expected Succeeded, got %s", byName["cfg"].Status)
	}
	if byName["api"].Status != result.StatusSucceeded {
		t.Errorf("api: expected Succeeded, got %s", byName["api"].Status)
	}
	if byName["db"].Status != result.StatusFailed {
		t.Errorf("db: expected Failed, got %s", byName["db"].Status)
	}
	if byName["cache"].Status != result.StatusSkipped {
		t.Errorf("cache: expected Skipped, got %s", byName["cache"].Status)
	}
	if got := byName["cache"].FailedDependencies; len(got) != 1 || got[0] != "db" {
		t.Errorf("cache: expected failedDependencies=[db], got %v", got)
	}
	if byName["worker"].Status != result.StatusSkipped {
		t.Errorf("worker: expected Skipped, got %s", byName["worker"].Status)
	}
	got := append([]string{}, byName["worker"].FailedDependencies...)
	sort.Strings(got)
	if len(got) != 1 || got[0] != "db" {
		t.Errorf("worker: expected failedDependencies=[db] (transitive via cache), got %v", got)
	}
}

func TestRunDependencyAware_EmptyGraph(t *testing.T) {
	opts := config.Default()
	g, err := graph.NewBuilder().Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	p := newTestRunParams(nil, &opts)
	results := RunDependencyAware(p, g)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunDependencyAware_IndependentRootsBothRun(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{okSignal("a"), okSignal("b")}
	g, err := graph.NewBuilder().AddSignal("a").AddSignal("b").Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	p := newTestRunParams(sigs, &opts)
	results := RunDependencyAware(p, g)
	for _, r := range results {
		if r.Status != result.StatusSucceeded {
			t.Errorf("%s: expected Succeeded, got %s", r.Name, r.Status)
		}
	}
}
