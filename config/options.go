// Package config defines Options, the coordinator's configuration contract,
// following the teacher's JSON-tagged-struct-plus-Default-plus-Merge pattern
// (pointer-typed optional bools distinguish "unset" from "explicit false").
package config

import (
	"fmt"
	"time"

	"github.com/ignitionrun/coordinator/ignerrors"
)

// Policy drives stop-on-failure behavior and what waitAll surfaces.
type Policy string

const (
	PolicyFailFast         Policy = "fail_fast"
	PolicyBestEffort       Policy = "best_effort"
	PolicyContinueOnTimeout Policy = "continue_on_timeout"
)

// ExecutionMode selects which scheduler drives a run.
type ExecutionMode string

const (
	ModeParallel         ExecutionMode = "parallel"
	ModeSequential       ExecutionMode = "sequential"
	ModeDependencyAware  ExecutionMode = "dependency_aware"
	ModeStaged           ExecutionMode = "staged"
)

// TimeoutStrategy is a pure lookup consulted before a signal's own declared
// timeout. It must not depend on wall-clock state, to preserve
// determinism. Returning ok=false defers to the signal's own timeout.
type TimeoutStrategy func(signalName string, fallback time.Duration) (timeout time.Duration, ok bool)

// Options is the coordinator's configuration contract: the nine options
// enumerated by the spec, plus the Observer name and timeout-strategy hook
// that round out the ambient/domain stack.
type Options struct {
	Policy        Policy        `json:"policy"`
	ExecutionMode ExecutionMode `json:"executionMode"`

	GlobalTimeout time.Duration `json:"globalTimeout"`

	// CancelOnGlobalTimeoutNil: when true, the global deadline hard-cancels
	// running signals; when false, the deadline only marks timedOut and
	// lets in-flight work drain. Defaults to true. Access via
	// CancelOnGlobalTimeout().
	CancelOnGlobalTimeoutNil *bool `json:"cancelOnGlobalTimeout"`

	// CancelIndividualOnTimeoutNil: when true, expiry of a per-signal
	// timeout cancels that signal's operation; when false, the operation
	// continues and is classified TimedOut at completion. Defaults to
	// true. Access via CancelIndividualOnTimeout().
	CancelIndividualOnTimeoutNil *bool `json:"cancelIndividualOnTimeout"`

	// CancelDependentsOnFailureNil: DependencyAware only. Defaults to
	// false. Access via CancelDependentsOnFailure().
	CancelDependentsOnFailureNil *bool `json:"cancelDependentsOnFailure"`

	// MaxDegreeOfParallelism is the concurrency cap for Parallel mode and
	// within-stage/within-DAG parallelism. -1 means unbounded.
	MaxDegreeOfParallelism int `json:"maxDegreeOfParallelism"`

	// SlowSignalLogCount is the number of slowest signals to report at run
	// end (diagnostic only; has no effect on classification).
	SlowSignalLogCount int `json:"slowSignalLogCount"`

	// PromoteNextStageOnTerminalFailureNil: Staged only. Defaults to false.
	// Access via PromoteNextStageOnTerminalFailure().
	PromoteNextStageOnTerminalFailureNil *bool `json:"promoteNextStageOnTerminalFailure"`

	// Observer names a registered observability.Observer, resolved once at
	// coordinator construction. Defaults to "slog".
	Observer string `json:"observer"`

	// TimeoutStrategy, when non-nil, is consulted before a signal's own
	// PerSignalTimeout. Not JSON-serializable; set directly in Go code.
	TimeoutStrategy TimeoutStrategy `json:"-"`
}

// CancelOnGlobalTimeout returns the effective value, defaulting to true.
func (o *Options) CancelOnGlobalTimeout() bool {
	if o.CancelOnGlobalTimeoutNil == nil {
		return true
	}
	return *o.CancelOnGlobalTimeoutNil
}

// CancelIndividualOnTimeout returns the effective value, defaulting to true.
func (o *Options) CancelIndividualOnTimeout() bool {
	if o.CancelIndividualOnTimeoutNil == nil {
		return true
	}
	return *o.CancelIndividualOnTimeoutNil
}

// CancelDependentsOnFailure returns the effective value, defaulting to false.
func (o *Options) CancelDependentsOnFailure() bool {
	if o.CancelDependentsOnFailureNil == nil {
		return false
	}
	return *o.CancelDependentsOnFailureNil
}

// PromoteNextStageOnTerminalFailure returns the effective value, defaulting
// to false.
func (o *Options) PromoteNextStageOnTerminalFailure() bool {
	if o.PromoteNextStageOnTerminalFailureNil == nil {
		return false
	}
	return *o.PromoteNextStageOnTerminalFailureNil
}

// Default returns the coordinator's default Options: Parallel execution,
// BestEffort policy, no global timeout, hard-cancel semantics on, unbounded
// concurrency, no slow-signal reporting, slog observability.
func Default() Options {
	return Options{
		Policy:                 PolicyBestEffort,
		ExecutionMode:          ModeParallel,
		GlobalTimeout:          0,
		MaxDegreeOfParallelism: -1,
		SlowSignalLogCount:     0,
		Observer:               "slog",
	}
}

// Merge overlays non-zero/non-nil fields from source onto o, following the
// teacher's ParallelConfig.Merge pattern.
func (o *Options) Merge(source *Options) {
	if source.Policy != "" {
		o.Policy = source.Policy
	}
	if source.ExecutionMode != "" {
		o.ExecutionMode = source.ExecutionMode
	}
	if source.GlobalTimeout > 0 {
		o.GlobalTimeout = source.GlobalTimeout
	}
	if source.CancelOnGlobalTimeoutNil != nil {
		o.CancelOnGlobalTimeoutNil = source.CancelOnGlobalTimeoutNil
	}
	if source.CancelIndividualOnTimeoutNil != nil {
		o.CancelIndividualOnTimeoutNil = source.CancelIndividualOnTimeoutNil
	}
	if source.CancelDependentsOnFailureNil != nil {
		o.CancelDependentsOnFailureNil = source.CancelDependentsOnFailureNil
	}
	if source.MaxDegreeOfParallelism != 0 {
		o.MaxDegreeOfParallelism = source.MaxDegreeOfParallelism
	}
	if source.SlowSignalLogCount > 0 {
		o.SlowSignalLogCount = source.SlowSignalLogCount
	}
	if source.PromoteNextStageOnTerminalFailureNil != nil {
		o.PromoteNextStageOnTerminalFailureNil = source.PromoteNextStageOnTerminalFailureNil
	}
	if source.Observer != "" {
		o.Observer = source.Observer
	}
	if source.TimeoutStrategy != nil {
		o.TimeoutStrategy = source.TimeoutStrategy
	}
}

// Validate checks option values for internal consistency. It does not
// validate against a graph or stage table (see graph.Graph.ValidateAgainst)
// since Options alone does not reference signals.
func (o *Options) Validate() error {
	switch o.Policy {
	case PolicyFailFast, PolicyBestEffort, PolicyContinueOnTimeout:
	default:
		return invalidOption("Policy", string(o.Policy))
	}
	switch o.ExecutionMode {
	case ModeParallel, ModeSequential, ModeDependencyAware, ModeStaged:
	default:
		return invalidOption("ExecutionMode", string(o.ExecutionMode))
	}
	if o.MaxDegreeOfParallelism != -1 && o.MaxDegreeOfParallelism < 1 {
		return invalidOption("MaxDegreeOfParallelism", o.MaxDegreeOfParallelism)
	}
	if o.SlowSignalLogCount < 0 {
		return invalidOption("SlowSignalLogCount", o.SlowSignalLogCount)
	}
	if o.GlobalTimeout < 0 {
		return invalidOption("GlobalTimeout", o.GlobalTimeout)
	}
	return nil
}

// invalidOptionError carries the offending field/value pair for an invalid
// Options value; it is always surfaced wrapped in an
// ignerrors.ConfigurationError so callers can errors.As into the shared
// configuration-error type regardless of which option failed.
type invalidOptionError struct {
	field string
	value any
}

func (e *invalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %s: %v", e.field, e.value)
}

func invalidOption(field string, value any) error {
	err := &invalidOptionError{field: field, value: value}
	return &ignerrors.ConfigurationError{
		Reason: err.Error(),
		Err:    err,
	}
}
