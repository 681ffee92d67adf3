// Package classify implements the coordinator's deterministic classifier: a
// pure function from (operation outcome, cancellation-scope state, timing)
// to a result.SignalStatus and result.CancellationReason. Grounded on the
// deterministic, ordered-predicate dispatch style of
// orchestrate/state/edge.go's transition combinators, generalized from
// "which edge fires" to "which classification rule fires."
package classify

import "github.com/ignitionrun/coordinator/result"

// Inputs captures everything the classifier needs about one signal's
// execution. All fields are pure data — no I/O, no clocks consulted inside
// Classify itself — so identical Inputs always yield identical output.
type Inputs struct {
	// DependencyFailedBeforeStart is true when a dependency failed while
	// this signal was still waiting to start (DependencyAware only); the
	// signal's operation is never invoked in this case.
	DependencyFailedBeforeStart bool
	FailedDependencies          []string

	// Err is the error returned by the signal's operation, or nil on
	// success.
	Err error

	// Cancelled is true when the scope's context ended via its Done
	// channel (any cancellation source fired) by the time the operation
	// returned.
	Cancelled bool

	// CancelSource identifies which cancellation source is responsible,
	// meaningful only when Cancelled is true.
	CancelSource result.CancellationReason

	// PerSignalTimeoutFired is true when completion happened at or after
	// the signal's effective per-signal deadline, independent of whether
	// the scope was configured to hard-cancel on expiry.
	PerSignalTimeoutFired bool

	// CancelIndividualOnTimeout mirrors the option in effect for this
	// signal: whether per-signal timeout expiry was configured to inject
	// cancellation.
	CancelIndividualOnTimeout bool

	// GlobalTimeoutFired is true when the run's global deadline had
	// passed by completion time.
	GlobalTimeoutFired bool

	// CancelOnGlobalTimeout mirrors the run-wide option.
	CancelOnGlobalTimeout bool
}

// Outcome is the classifier's verdict.
type Outcome struct {
	Status SignalStatusAlias
	Reason result.CancellationReason
}

// SignalStatusAlias avoids importing result twice under two names in
// call sites; it is exactly result.SignalStatus.
type SignalStatusAlias = result.SignalStatus

// Classify maps Inputs to an Outcome. The rule precedence below implements
// spec rules 1–6 in their literal numeric order, but promotes rule 7 ("per-
// signal timeout exceeded without a hard cancel, yet the operation still
// completed") ahead of rule 2 ("completed without error → Succeeded").
//
// The literal numeric ordering is self-contradictory for this one case: rule
// 2 would make a nil-error completion always Succeeded, which leaves rule 7
// unreachable for the exact scenario its own text describes ("still
// completed after expiry"). Resolving the contradiction requires picking a
// side; CancelIndividualOnTimeout=false is documented as "the operation
// continues... the scheduler classifies the outcome as TimedOut at
// completion" (§3's options table) with no carve-out for a nil error, so
// this implementation takes that reading: a late completion is TimedOut
// even when it didn't fail. Every other rule keeps its literal order.
func Classify(in Inputs) Outcome {
	if in.DependencyFailedBeforeStart {
		return Outcome{Status: result.StatusSkipped, Reason: result.ReasonDependencyFailed}
	}

	if in.PerSignalTimeoutFired && !in.CancelIndividualOnTimeout {
		return Outcome{Status: result.StatusTimedOut, Reason: result.ReasonPerSignalTimeout}
	}

	if in.Err == nil {
		return Outcome{Status: result.StatusSucceeded, Reason: result.ReasonNone}
	}

	if in.Cancelled && in.PerSignalTimeoutFired {
		return Outcome{Status: result.StatusTimedOut, Reason: result.ReasonPerSignalTimeout}
	}

	if in.Cancelled && in.GlobalTimeoutFired && in.CancelOnGlobalTimeout {
		return Outcome{Status: result.StatusTimedOut, Reason: result.ReasonGlobalTimeout}
	}

	if in.Cancelled {
		reason := in.CancelSource
		if reason == "" {
			reason = result.ReasonExternalCancellation
		}
		return Outcome{Status: result.StatusCancelled, Reason: reason}
	}

	return Outcome{Status: result.StatusFailed, Reason: result.ReasonNone}
}
