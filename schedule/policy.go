package schedule

import (
	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/result"
)

// stopsRun reports whether a signal's status should trigger the scheduler
// to stop launching further work and cancel in-flight work, under policy.
//
// FailFast stops on any non-success outcome. ContinueOnTimeout is a
// BestEffort variant that tolerates TimedOut but still short-circuits on a
// genuine Failed or externally Cancelled outcome (§4.4.1: "a Failed outcome
// still short-circuits when policy is otherwise strict... converts TimedOut
// from terminal to non-terminal"). BestEffort never stops the run.
func stopsRun(status result.SignalStatus, policy config.Policy) bool {
	switch policy {
	case config.PolicyFailFast:
		return status != result.StatusSucceeded
	case config.PolicyContinueOnTimeout:
		return status == result.StatusFailed || status == result.StatusCancelled
	default:
		return false
	}
}
