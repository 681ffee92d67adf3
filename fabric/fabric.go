// Package fabric implements the coordinator's cancellation fabric: a root
// scope composed of the global deadline, external cancellation, and
// scheduler-stop sources, and per-signal child scopes that additionally
// observe a per-signal deadline and (DependencyAware mode) a
// dependency-failure trigger. Grounded on the teacher's repeated
// context.WithCancel + select{case <-ctx.Done()} idiom (orchestrate/hub,
// orchestrate/workflows/parallel.go), generalized into a composable tree.
package fabric

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ignitionrun/coordinator/result"
)

// Fabric is the root of the cancellation tree for one coordination run.
type Fabric struct {
	ctx    context.Context
	cancel context.CancelFunc

	hasGlobalDeadline     bool
	globalDeadline        time.Time
	cancelOnGlobalTimeout bool
	globalTimedOut        atomic.Bool

	stopTriggered     atomic.Bool
	externalTriggered atomic.Bool
}

// New creates a Fabric rooted at parent. Call ArmGlobalDeadline after
// construction if Options.GlobalTimeout > 0.
func New(parent context.Context) *Fabric {
	ctx, cancel := context.WithCancel(parent)
	return &Fabric{ctx: ctx, cancel: cancel}
}

// ArmGlobalDeadline starts the run's global timeout. When cancelOnExpiry is
// true, expiry hard-cancels the fabric's root scope (and therefore every
// signal scope derived from it). When false, expiry only flips the
// observable GlobalTimedOut flag and no cancellation is injected.
func (f *Fabric) ArmGlobalDeadline(timeout time.Duration, cancelOnExpiry bool) {
	if timeout <= 0 {
		return
	}
	f.hasGlobalDeadline = true
	f.globalDeadline = time.Now().Add(timeout)
	f.cancelOnGlobalTimeout = cancelOnExpiry

	if cancelOnExpiry {
		ctx, cancel := context.WithTimeout(f.ctx, timeout)
		prevCancel := f.cancel
		f.ctx = ctx
		f.cancel = func() {
			cancel()
			prevCancel()
		}
		time.AfterFunc(timeout, func() { f.globalTimedOut.Store(true) })
		return
	}

	time.AfterFunc(timeout, func() { f.globalTimedOut.Store(true) })
}

// Context returns the fabric's root context. Every signal scope descends
// from this.
func (f *Fabric) Context() context.Context { return f.ctx }

// Stop triggers the scheduler-stop source: used by FailFast to cancel all
// in-flight and not-yet-launched work after the first non-success outcome.
func (f *Fabric) Stop() {
	f.stopTriggered.Store(true)
	f.cancel()
}

// ExternalCancel triggers cancellation originating outside the coordinator
// (e.g. the host's own shutdown signal propagated into WaitAll's context).
func (f *Fabric) ExternalCancel() {
	f.externalTriggered.Store(true)
	f.cancel()
}

// StopTriggered reports whether Stop has fired.
func (f *Fabric) StopTriggered() bool { return f.stopTriggered.Load() }

// ExternalTriggered reports whether ExternalCancel has fired.
func (f *Fabric) ExternalTriggered() bool { return f.externalTriggered.Load() }

// GlobalTimedOut reports whether the global deadline has passed, regardless
// of whether CancelOnGlobalTimeout caused it to inject cancellation.
func (f *Fabric) GlobalTimedOut() bool {
	if f.globalTimedOut.Load() {
		return true
	}
	return f.hasGlobalDeadline && !time.Now().Before(f.globalDeadline)
}

// CancelOnGlobalTimeout reports the mode the fabric was armed with.
func (f *Fabric) CancelOnGlobalTimeout() bool { return f.cancelOnGlobalTimeout }

// Scope is a per-signal cancellation scope: the fabric's root context
// composed with an optional per-signal deadline and an optional
// dependency-failure trigger.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	hasDeadline     bool
	deadline        time.Time
	cancelsOnExpiry bool

	dependencyCancelled atomic.Bool
}

// NewScope derives a child scope from the fabric for one signal's
// execution. perSignalTimeout <= 0 means no per-signal deadline.
// cancelIndividualOnTimeout selects whether expiry hard-cancels this scope
// (rules 3/4 of the classifier) or merely marks the deadline as passed for
// later comparison against the completion time (rule 7).
func (f *Fabric) NewScope(perSignalTimeout time.Duration, cancelIndividualOnTimeout bool) *Scope {
	s := &Scope{}

	if perSignalTimeout > 0 {
		s.hasDeadline = true
		s.deadline = time.Now().Add(perSignalTimeout)
		s.cancelsOnExpiry = cancelIndividualOnTimeout

		if cancelIndividualOnTimeout {
			s.ctx, s.cancel = context.WithTimeout(f.ctx, perSignalTimeout)
			return s
		}
	}

	s.ctx, s.cancel = context.WithCancel(f.ctx)
	return s
}

// Context returns the scope's context; pass this to Signal.Execute.
func (s *Scope) Context() context.Context { return s.ctx }

// CancelDependencyFailed cancels the scope because a dependency this
// signal depends on (directly or transitively) failed while the signal was
// in flight, and CancelDependentsOnFailure is enabled.
func (s *Scope) CancelDependencyFailed() {
	s.dependencyCancelled.Store(true)
	s.cancel()
}

// DependencyCancelled reports whether CancelDependencyFailed fired.
func (s *Scope) DependencyCancelled() bool { return s.dependencyCancelled.Load() }

// Release cancels the scope's context to free its resources. Always call
// via defer after the signal's execution returns, win or lose.
func (s *Scope) Release() { s.cancel() }

// Cancelled reports whether the scope's context ended via its own Done
// channel (as opposed to the operation simply returning).
func (s *Scope) Cancelled() bool {
	return s.ctx.Err() != nil
}

// PerSignalTimeoutFired reports whether completedAt falls at or after this
// scope's per-signal deadline. It is meaningful whether or not the scope
// was configured to hard-cancel on expiry, which is exactly what
// classifier rule 7 needs.
func (s *Scope) PerSignalTimeoutFired(completedAt time.Time) bool {
	if !s.hasDeadline {
		return false
	}
	return !completedAt.Before(s.deadline)
}

// CancelsOnExpiry reports whether this scope hard-cancels on per-signal
// timeout expiry (CancelIndividualOnTimeout for this signal).
func (s *Scope) CancelsOnExpiry() bool { return s.cancelsOnExpiry }

// cancellationSource inspects the fabric and scope to determine which
// CancellationReason best explains an observed cancellation, in priority
// order. Used when no more specific caller-supplied reason is available.
func cancellationSource(f *Fabric, s *Scope) result.CancellationReason {
	switch {
	case s.DependencyCancelled():
		return result.ReasonDependencyFailed
	case f.StopTriggered():
		return result.ReasonScopeCancelled
	case f.ExternalTriggered():
		return result.ReasonExternalCancellation
	case f.GlobalTimedOut() && f.CancelOnGlobalTimeout():
		return result.ReasonGlobalTimeout
	default:
		return result.ReasonExternalCancellation
	}
}

// CancellationSource is the exported form of cancellationSource, used by
// schedulers to feed classify.Inputs.CancelSource.
func (f *Fabric) CancellationSource(s *Scope) result.CancellationReason {
	return cancellationSource(f, s)
}
