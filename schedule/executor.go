// Package schedule implements the coordinator's four execution engines
// (Parallel, Sequential, DependencyAware, Staged) sharing one signal
// executor, a weighted-semaphore concurrency limiter, and the slow-signal
// tracker. Grounded on orchestrate/workflows/parallel.go's worker pool and
// chain.go's sequential fold, generalized with golang.org/x/sync/errgroup
// and golang.org/x/sync/semaphore in place of the teacher's hand-rolled
// WaitGroup/channel trio, and github.com/sourcegraph/conc/panics to turn a
// panicking signal into a classified failure instead of a crashed
// goroutine.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/ignitionrun/coordinator/classify"
	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/fabric"
	"github.com/ignitionrun/coordinator/ignerrors"
	"github.com/ignitionrun/coordinator/observability"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
)

const (
	EventSignalStart    observability.EventType = "signal.start"
	EventSignalComplete observability.EventType = "signal.complete"
	EventStageStart     observability.EventType = "stage.start"
	EventStageComplete  observability.EventType = "stage.complete"
	EventRunStart       observability.EventType = "run.start"
	EventRunComplete    observability.EventType = "run.complete"
)

// ExecParams bundles everything the shared executor needs to run, time, and
// classify one signal.
type ExecParams struct {
	RunStart time.Time
	Signal   signal.Signal
	Fabric   *fabric.Fabric
	Opts     *config.Options
	Observer observability.Observer
	Tracker  *SlowTracker
	Stage    *int

	// DependencyFailedBeforeStart and FailedDependencies short-circuit
	// execution entirely (classifier rule 1): the signal's operation is
	// never invoked.
	DependencyFailedBeforeStart bool
	FailedDependencies          []string

	// OnScopeCreated, when set, is invoked with the signal's fabric.Scope
	// right after it is created and before the operation is invoked. The
	// DependencyAware scheduler uses this to track in-flight scopes so a
	// later-failing ancestor can cancel them (CancelDependentsOnFailure).
	OnScopeCreated func(*fabric.Scope)
}

// effectiveTimeout resolves the two-level timeout lookup from §9: a
// host-supplied TimeoutStrategy takes priority over the signal's own
// declared PerSignalTimeout.
func effectiveTimeout(opts *config.Options, sig signal.Signal) time.Duration {
	if opts.TimeoutStrategy != nil {
		if d, ok := opts.TimeoutStrategy(sig.Name, sig.PerSignalTimeout); ok {
			return d
		}
	}
	return sig.PerSignalTimeout
}

// Execute runs one signal to completion (or skips it, for rule 1) and
// returns its classified result.SignalResult. This is the one place every
// scheduler funnels signal invocation through, guaranteeing the "invoked at
// most once per run" invariant.
func Execute(p ExecParams) result.SignalResult {
	startedAt := time.Now()
	startedOffset := startedAt.Sub(p.RunStart)

	if p.DependencyFailedBeforeStart {
		sr := result.SignalResult{
			Name:                     p.Signal.Name,
			Status:                   result.StatusSkipped,
			StartedAt:                startedOffset,
			CompletedAt:              startedOffset,
			Duration:                 0,
			CancellationReason:       result.ReasonDependencyFailed,
			FailedDependencies:       p.FailedDependencies,
			SkippedDueToDependencies: true,
			Stage:                    p.Stage,
		}
		p.Observer.OnEvent(context.Background(), observability.Event{
			Type: EventSignalComplete, Level: observability.LevelInfo, Timestamp: time.Now(),
			Source: "schedule", Data: map[string]any{"signal": p.Signal.Name, "status": string(sr.Status)},
		})
		return sr
	}

	timeout := effectiveTimeout(p.Opts, p.Signal)
	cancelIndividual := p.Opts.CancelIndividualOnTimeout()
	scope := p.Fabric.NewScope(timeout, cancelIndividual)
	defer scope.Release()
	if p.OnScopeCreated != nil {
		p.OnScopeCreated(scope)
	}

	p.Observer.OnEvent(context.Background(), observability.Event{
		Type: EventSignalStart, Level: observability.LevelVerbose, Timestamp: startedAt,
		Source: "schedule", Data: map[string]any{"signal": p.Signal.Name},
	})

	var execErr error
	func() {
		var catcher panics.Catcher
		catcher.Try(func() {
			execErr = p.Signal.Execute(scope.Context())
		})
		if recovered := catcher.Recovered(); recovered != nil {
			execErr = fmt.Errorf("signal %q panicked: %w", p.Signal.Name, recovered.AsError())
		}
	}()

	completedAt := time.Now()
	completedOffset := completedAt.Sub(p.RunStart)
	duration := completedAt.Sub(startedAt)

	cancelled := scope.Cancelled()
	perSignalFired := scope.PerSignalTimeoutFired(completedAt)
	globalFired := p.Fabric.GlobalTimedOut()

	var cancelSource result.CancellationReason
	if cancelled {
		cancelSource = p.Fabric.CancellationSource(scope)
	}

	outcome := classify.Classify(classify.Inputs{
		Err:                       execErr,
		Cancelled:                 cancelled,
		CancelSource:              cancelSource,
		PerSignalTimeoutFired:     perSignalFired,
		CancelIndividualOnTimeout: cancelIndividual,
		GlobalTimeoutFired:        globalFired,
		CancelOnGlobalTimeout:     p.Fabric.CancelOnGlobalTimeout(),
	})

	sr := result.SignalResult{
		Name:               p.Signal.Name,
		Status:             outcome.Status,
		StartedAt:          startedOffset,
		CompletedAt:        completedOffset,
		Duration:           duration,
		CancellationReason: outcome.Reason,
		Stage:              p.Stage,
	}

	if execErr != nil {
		kind := ignerrors.KindSignalFailure
		switch outcome.Status {
		case result.StatusTimedOut:
			kind = ignerrors.KindTimeout
		case result.StatusCancelled:
			kind = ignerrors.KindCancellation
		}
		sr.Error = &result.SignalError{Kind: string(kind), Message: execErr.Error()}
	}

	if p.Tracker != nil {
		p.Tracker.Observe(p.Signal.Name, duration)
	}

	p.Observer.OnEvent(context.Background(), observability.Event{
		Type: EventSignalComplete, Level: observability.LevelInfo, Timestamp: completedAt,
		Source: "schedule", Data: map[string]any{
			"signal": p.Signal.Name, "status": string(sr.Status), "duration_ms": duration.Milliseconds(),
		},
	})

	return sr
}

// unboundedLimit marks MaxDegreeOfParallelism == -1 (no semaphore).
const unboundedLimit = -1
