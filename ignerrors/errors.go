// Package ignerrors defines the coordinator's closed error taxonomy: the
// five kinds enumerated in the coordination specification (ConfigurationError,
// SignalFailure, Timeout, Cancellation, Internal) plus the AggregateError
// waitAll can surface and the helpers schedulers use to build them.
package ignerrors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the closed set of error categories the coordinator ever produces.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindSignalFailure Kind = "signal_failure"
	KindTimeout       Kind = "timeout"
	KindCancellation  Kind = "cancellation"
	KindInternal      Kind = "internal"
)

// Sentinel errors for simple, identity-checkable failure modes.
var (
	ErrUnknownSignal    = errors.New("ignition: unknown signal name")
	ErrDuplicateSignal  = errors.New("ignition: duplicate signal name")
	ErrEmptySignalName  = errors.New("ignition: signal name must not be empty")
	ErrAlreadyExecuted  = errors.New("ignition: signal executed more than once")
	ErrNoSuchStage      = errors.New("ignition: stage referenced by no signal")
	ErrGraphNotBuilt    = errors.New("ignition: graph has not been built")
	ErrCoordinatorEmpty = errors.New("ignition: coordinator has no registered signals")
)

// ConfigurationError reports malformed registration: cycles, unknown names,
// invalid option values, duplicate signal names. It is raised synchronously
// from graph or coordinator construction and never produces a RunResult.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ignition: configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("ignition: configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CycleError is a ConfigurationError specialization carrying the cycle path
// in declaration order, e.g. "a -> b -> c -> a".
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("ignition: configuration error: dependency cycle detected: %s", e.String())
}

// String renders the cycle path as "a → b → c → a".
func (e *CycleError) String() string {
	return strings.Join(e.Path, " → ")
}

func (e *CycleError) Unwrap() error { return nil }

// SignalError captures a single signal's non-success outcome for inclusion
// in an AggregateError.
type SignalError struct {
	SignalName string
	Kind       Kind
	Err        error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("signal %q (%s): %v", e.SignalName, e.Kind, e.Err)
}

func (e *SignalError) Unwrap() error { return e.Err }

// AggregateError is the error waitAll raises when policy requires surfacing
// a run's non-success outcomes. It carries every contributing SignalError
// and the overall kind (Failure, Timeout, or Cancelled) that triggered it.
type AggregateError struct {
	Kind   Kind
	Errors []*SignalError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("ignition: run failed (%s)", e.Kind)
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("ignition: run failed (%s): %v", e.Kind, e.Errors[0])
	}

	names := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		names = append(names, se.SignalName)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, se.Error())
	}
	return fmt.Sprintf("ignition: run failed (%s): %d signals: %s",
		e.Kind, len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes every contributing signal error for errors.Is/errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, se := range e.Errors {
		errs[i] = se
	}
	return errs
}

// Internal reports a coordinator invariant violation — a bug, not a
// user-facing failure mode. It wraps with a stack trace via pkg/errors
// because a bare message is close to useless when triaging a scheduling
// engine defect.
func Internal(format string, args ...any) error {
	return errors.WithStack(&internalError{msg: fmt.Sprintf(format, args...)})
}

type internalError struct {
	msg string
}

func (e *internalError) Error() string {
	return fmt.Sprintf("ignition: internal invariant violation: %s", e.msg)
}
