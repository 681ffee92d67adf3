package schedule

import "github.com/ignitionrun/coordinator/result"

// RunSequential implements §4.4.2: signals execute in registration order,
// one at a time, each under the shared cancellation fabric. FailFast (and
// ContinueOnTimeout's Failed/Cancelled case, see stopsRun) stops at the
// first outcome that should short-circuit: every signal after it becomes
// Cancelled with reason ScopeCancelled and duration 0, and is never
// invoked. BestEffort runs every signal regardless.
func RunSequential(p RunParams) []result.SignalResult {
	results := make([]result.SignalResult, len(p.Signals))
	stopped := false

	for i, sig := range p.Signals {
		if stopped || p.Fabric.Context().Err() != nil {
			results[i] = notLaunched(sig, p.RunStart)
			continue
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
			stopped = true
			p.Fabric.Stop()
		}
	}

	return results
}
