package schedule

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/fabric"
	"github.com/ignitionrun/coordinator/observability"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
)

// RunParams bundles the shared inputs every scheduler needs.
type RunParams struct {
	RunStart time.Time
	Signals  []signal.Signal
	Fabric   *fabric.Fabric
	Opts     *config.Options
	Observer observability.Observer
	Tracker  *SlowTracker
}

// notLaunched builds the result.SignalResult for a signal that FailFast's
// scope cancellation pre-empted before its operation was ever invoked:
// status Cancelled, reason ScopeCancelled, duration 0 (per S1).
func notLaunched(sig signal.Signal, runStart time.Time) result.SignalResult {
	offset := time.Since(runStart)
	return result.SignalResult{
		Name:               sig.Name,
		Status:             result.StatusCancelled,
		StartedAt:          offset,
		CompletedAt:        offset,
		Duration:           0,
		CancellationReason: result.ReasonScopeCancelled,
	}
}

// RunParallel implements §4.4.1: every signal is eligible at time zero; the
// scheduler acquires a concurrency-limiter slot, launches the signal, and
// proceeds to the next, awaiting all launched work. FailFast triggers
// fabric.Stop on the first non-success outcome, which cancels every
// in-flight and not-yet-launched signal's scope.
func RunParallel(p RunParams) []result.SignalResult {
	n := len(p.Signals)
	results := make([]result.SignalResult, n)
	lim := newLimiter(p.Opts.MaxDegreeOfParallelism)

	var g errgroup.Group
	for i, sig := range p.Signals {
		i, sig := i, sig
		g.Go(func() error {
			if p.Fabric.Context().Err() != nil {
				results[i] = notLaunched(sig, p.RunStart)
				return nil
			}
			if err := lim.acquire(p.Fabric.Context()); err != nil {
				results[i] = notLaunched(sig, p.RunStart)
				return nil
			}
			defer lim.release()

			if p.Fabric.Context().Err() != nil {
				results[i] = notLaunched(sig, p.RunStart)
				return nil
			}

			sr := Execute(ExecParams{
				RunStart: p.RunStart,
				Signal:   sig,
				Fabric:   p.Fabric,
				Opts:     p.Opts,
				Observer: p.Observer,
				Tracker:  p.Tracker,
			})
			results[i] = sr

			if stopsRun(sr.Status, p.Opts.Policy) {
				p.Fabric.Stop()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
