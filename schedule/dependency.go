package schedule

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ignitionrun/coordinator/fabric"
	"github.com/ignitionrun/coordinator/graph"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
)

// RunDependencyAware implements §4.4.3: a Kahn's-algorithm-style scheduler
// over a dependency graph. Nodes become ready when every parent has reached
// a terminal status; a node is classified Skipped without ever executing
// when any parent did not succeed (failedDependencies accumulates
// transitively). Ties among simultaneously ready nodes are broken
// lexicographically by launching children in g.Children's sorted order;
// actual start timing beyond that is still subject to goroutine scheduling
// and the concurrency limiter, same as the determinism caveat the spec
// notes for Parallel mode generally.
func RunDependencyAware(p RunParams, g *graph.Graph) []result.SignalResult {
	index := make(map[string]int, len(p.Signals))
	sigByName := make(map[string]signal.Signal, len(p.Signals))
	for i, s := range p.Signals {
		index[s.Name] = i
		sigByName[s.Name] = s
	}

	names := g.Names()
	results := make([]result.SignalResult, len(p.Signals))

	inDegree := make(map[string]int, len(names))
	for _, n := range names {
		inDegree[n] = g.InDegree(n)
	}

	var mu sync.Mutex
	failedDeps := make(map[string][]string)
	parentFailed := make(map[string]bool)
	runningScopes := make(map[string]*fabric.Scope)

	lim := newLimiter(p.Opts.MaxDegreeOfParallelism)

	var wg sync.WaitGroup
	var pending atomic.Int64
	pending.Store(int64(len(names)))
	done := make(chan struct{})

	var launch func(name string, depFailed bool, deps []string)
	var onTerminal func(name string, sr result.SignalResult)

	launch = func(name string, depFailed bool, deps []string) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sig := sigByName[name]
			var sr result.SignalResult

			if depFailed {
				sr = Execute(ExecParams{
					RunStart:                    p.RunStart,
					Signal:                      sig,
					Fabric:                      p.Fabric,
					Opts:                        p.Opts,
					Observer:                    p.Observer,
					Tracker:                     p.Tracker,
					DependencyFailedBeforeStart: true,
					FailedDependencies:          deps,
				})
			} else if p.Fabric.Context().Err() != nil {
				sr = notLaunched(sig, p.RunStart)
			} else if err := lim.acquire(p.Fabric.Context()); err != nil {
				sr = notLaunched(sig, p.RunStart)
			} else {
				func() {
					defer lim.release()
					if p.Fabric.Context().Err() != nil {
						sr = notLaunched(sig, p.RunStart)
						return
					}
					sr = Execute(ExecParams{
						RunStart: p.RunStart,
						Signal:   sig,
						Fabric:   p.Fabric,
						Opts:     p.Opts,
						Observer: p.Observer,
						Tracker:  p.Tracker,
						OnScopeCreated: func(s *fabric.Scope) {
							mu.Lock()
							runningScopes[name] = s
							mu.Unlock()
						},
					})
				}()
			}

			mu.Lock()
			delete(runningScopes, name)
			mu.Unlock()

			results[index[name]] = sr

			if stopsRun(sr.Status, p.Opts.Policy) {
				p.Fabric.Stop()
			}

			onTerminal(name, sr)

			if pending.Add(-1) == 0 {
				close(done)
			}
		}()
	}

	onTerminal = func(name string, sr result.SignalResult) {
		for _, child := range g.Children(name) {
			mu.Lock()
			inDegree[child]--
			ready := inDegree[child] <= 0

			if sr.Status != result.StatusSucceeded {
				var newDeps []string
				if len(sr.FailedDependencies) > 0 {
					newDeps = sr.FailedDependencies
				} else {
					newDeps = []string{name}
				}
				seen := make(map[string]bool, len(failedDeps[child])+len(newDeps))
				for _, d := range failedDeps[child] {
					seen[d] = true
				}
				for _, d := range newDeps {
					seen[d] = true
				}
				merged := make([]string, 0, len(seen))
				for d := range seen {
					merged = append(merged, d)
				}
				sort.Strings(merged)
				failedDeps[child] = merged
				parentFailed[child] = true

				if p.Opts.CancelDependentsOnFailure() {
					if scope, ok := runningScopes[child]; ok {
						scope.CancelDependencyFailed()
					}
				}
			}

			var depFailed bool
			var deps []string
			if ready {
				depFailed = parentFailed[child]
				deps = append([]string{}, failedDeps[child]...)
			}
			mu.Unlock()

			if ready {
				launch(child, depFailed, deps)
			}
		}
	}

	for _, root := range g.Roots() {
		launch(root, false, nil)
	}

	if len(names) == 0 {
		return results
	}

	<-done
	wg.Wait()

	return results
}
