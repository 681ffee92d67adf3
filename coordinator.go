// Package ignition implements the coordination library: a coordinator
// that waits on a set of user-defined async readiness signals and reports a
// deterministic aggregated outcome. Construction mirrors the teacher's
// config-plus-functional-options kernel: New builds a Coordinator from
// config.Options, registering signals and dependency edges explicitly
// afterward, then WaitAll drives the configured scheduler exactly once and
// caches the result for every subsequent caller.
//
//	c, err := ignition.New(config.Default())
//	c.RegisterSignal(signal.Signal{Name: "db", Execute: pingDB})
//	res, err := c.WaitAll(ctx)
package ignition

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/fabric"
	"github.com/ignitionrun/coordinator/graph"
	"github.com/ignitionrun/coordinator/ignerrors"
	"github.com/ignitionrun/coordinator/observability"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/schedule"
	"github.com/ignitionrun/coordinator/signal"
	"github.com/ignitionrun/coordinator/stage"
)

// Option configures a Coordinator during New, before any signal is
// registered.
type Option func(*Coordinator)

// WithObserver overrides the observer resolved from Options.Observer.
func WithObserver(o observability.Observer) Option {
	return func(c *Coordinator) { c.observerOverride = o }
}

// WithTimeoutStrategy installs a per-signal timeout override, equivalent to
// setting config.Options.TimeoutStrategy directly.
func WithTimeoutStrategy(ts config.TimeoutStrategy) Option {
	return func(c *Coordinator) { c.opts.TimeoutStrategy = ts }
}

// Coordinator is the facade described by §4.1: it owns a signal registry, an
// optional dependency graph, an optional stage table, and the cancellation
// fabric for exactly one run. A Coordinator is used once; construct a new
// one per run.
type Coordinator struct {
	opts config.Options

	registry     *signal.Registry
	graphBuilder *graph.Builder
	stageTable   *stage.Table

	observer         observability.Observer
	observerOverride observability.Observer

	state atomic.Value // result.CoordinatorState

	once      sync.Once
	doneCh    chan struct{}
	runResult result.RunResult
	runErr    error
}

// New constructs a Coordinator from opts, applying any Options and
// validating opts immediately. Signals, dependency edges, and stage
// assignments are added afterward via RegisterSignal, DependsOn, and
// AssignStage.
func New(opts config.Options, options ...Option) (*Coordinator, error) {
	c := &Coordinator{
		opts:         opts,
		registry:     signal.NewRegistry(),
		graphBuilder: graph.NewBuilder(),
		stageTable:   stage.NewTable(),
		doneCh:       make(chan struct{}),
	}

	for _, opt := range options {
		opt(c)
	}

	if err := c.opts.Validate(); err != nil {
		return nil, err
	}

	if c.observerOverride != nil {
		c.observer = c.observerOverride
	} else {
		obs, err := observability.GetObserver(c.opts.Observer)
		if err != nil {
			return nil, &ignerrors.ConfigurationError{Reason: "unresolvable observer", Err: err}
		}
		c.observer = obs
	}

	c.state.Store(result.StateNotStarted)
	return c, nil
}

// RegisterSignal adds a signal to the coordinator. Returns
// ignerrors.ErrEmptySignalName or ignerrors.ErrDuplicateSignal (wrapped in
// a ConfigurationError) on rejection. Safe to call only before WaitAll.
func (c *Coordinator) RegisterSignal(s signal.Signal) error {
	if err := c.registry.Register(s); err != nil {
		return err
	}
	c.graphBuilder.AddSignal(s.Name)
	return nil
}

// DependsOn declares that child depends on parent for DependencyAware mode.
// Both names are auto-registered in the graph if not already present by
// RegisterSignal; the graph is validated against the registry at WaitAll
// time, so a dependency on a name that was never registered as a signal is
// rejected then, not here.
func (c *Coordinator) DependsOn(child, parent string) *Coordinator {
	c.graphBuilder.DependsOn(child, parent)
	return c
}

// AssignStage places a signal in a stage for Staged mode. Unassigned
// signals default to stage 0.
func (c *Coordinator) AssignStage(signalName string, stageNum int) *Coordinator {
	c.stageTable.Assign(signalName, stageNum)
	return c
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() result.CoordinatorState {
	return c.state.Load().(result.CoordinatorState)
}

// GetResult returns the cached RunResult without blocking. The second
// return value is false until WaitAll has completed at least once.
func (c *Coordinator) GetResult() (result.RunResult, bool) {
	select {
	case <-c.doneCh:
		return c.runResult, true
	default:
		return result.RunResult{}, false
	}
}

// WaitAll drives the configured scheduler to completion and returns the
// aggregated RunResult. Per §9's result-caching design note, only the first
// caller actually runs the coordination; every other caller — concurrent or
// later — blocks on (or replays) that same run's cached result and error.
// WaitAll is therefore idempotent: calling it twice never re-invokes any
// signal.
func (c *Coordinator) WaitAll(ctx context.Context) (result.RunResult, error) {
	c.once.Do(func() {
		c.runResult, c.runErr = c.run(ctx)
		close(c.doneCh)
	})
	return c.runResult, c.runErr
}

func (c *Coordinator) run(ctx context.Context) (result.RunResult, error) {
	c.state.Store(result.StateRunning)

	if c.registry.Len() == 0 {
		c.state.Store(result.StateFaulted)
		return result.RunResult{FinalState: result.StateFaulted}, ignerrors.ErrCoordinatorEmpty
	}

	var depGraph *graph.Graph
	if c.opts.ExecutionMode == config.ModeDependencyAware {
		g, err := c.graphBuilder.Build()
		if err != nil {
			c.state.Store(result.StateFaulted)
			return result.RunResult{FinalState: result.StateFaulted}, err
		}
		if err := g.ValidateAgainst(c.registry.Names()); err != nil {
			c.state.Store(result.StateFaulted)
			return result.RunResult{FinalState: result.StateFaulted}, err
		}
		depGraph = g
	}

	runStart := time.Now()
	f := fabric.New(ctx)
	if c.opts.GlobalTimeout > 0 {
		f.ArmGlobalDeadline(c.opts.GlobalTimeout, c.opts.CancelOnGlobalTimeout())
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		select {
		case <-ctx.Done():
			f.ExternalCancel()
		case <-watchCtx.Done():
		}
	}()

	tracker := schedule.NewSlowTracker(c.opts.SlowSignalLogCount)

	c.observer.OnEvent(ctx, observability.Event{
		Type: schedule.EventRunStart, Level: observability.LevelInfo, Timestamp: runStart,
		Source: "ignition", Data: map[string]any{"mode": string(c.opts.ExecutionMode), "signals": c.registry.Len()},
	})

	rp := schedule.RunParams{
		RunStart: runStart,
		Signals:  c.registry.Signals(),
		Fabric:   f,
		Opts:     &c.opts,
		Observer: c.observer,
		Tracker:  tracker,
	}

	var signalResults []result.SignalResult
	var stageResults []result.StageResult

	switch c.opts.ExecutionMode {
	case config.ModeParallel:
		signalResults = schedule.RunParallel(rp)
	case config.ModeSequential:
		signalResults = schedule.RunSequential(rp)
	case config.ModeDependencyAware:
		signalResults = schedule.RunDependencyAware(rp, depGraph)
	case config.ModeStaged:
		signalResults, stageResults = schedule.RunStaged(rp, c.stageTable)
	default:
		c.state.Store(result.StateFaulted)
		return result.RunResult{FinalState: result.StateFaulted}, ignerrors.Internal("unknown execution mode %q", c.opts.ExecutionMode)
	}

	totalDuration := time.Since(runStart)
	timedOut := f.GlobalTimedOut()
	for _, sr := range signalResults {
		if sr.CancellationReason == result.ReasonGlobalTimeout {
			timedOut = true
		}
	}

	finalState := result.StateCompleted
	if timedOut {
		finalState = result.StateTimedOut
	}
	c.state.Store(finalState)

	rr := result.RunResult{
		TotalDuration: totalDuration,
		TimedOut:      timedOut,
		FinalState:    finalState,
		SignalResults: signalResults,
		StageResults:  stageResults,
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type: schedule.EventRunComplete, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "ignition", Data: map[string]any{"finalState": string(finalState), "timedOut": timedOut},
	})

	if slowest := tracker.Slowest(); len(slowest) > 0 {
		slowNames := make([]string, 0, len(slowest))
		slowMs := make([]int64, 0, len(slowest))
		for _, e := range slowest {
			slowNames = append(slowNames, e.Name)
			slowMs = append(slowMs, e.Duration.Milliseconds())
		}
		c.observer.OnEvent(ctx, observability.Event{
			Type: schedule.EventRunComplete, Level: observability.LevelVerbose, Timestamp: time.Now(),
			Source: "ignition", Data: map[string]any{"slowestCount": len(slowest), "slowest": slowNames, "slowestMs": slowMs},
		})
	}

	return rr, c.raisedError(signalResults)
}
