package ignition

import (
	"errors"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/ignerrors"
	"github.com/ignitionrun/coordinator/result"
)

// raisedError implements §7's propagation policy: which non-success signal
// outcomes cause WaitAll to return a non-nil error, keyed by Policy.
//
//   - FailFast raises on every Failed or TimedOut signal.
//   - ContinueOnTimeout tolerates TimedOut (that is its whole purpose) but
//     still raises on a genuine Failed signal.
//   - BestEffort never raises for a per-signal failure or timeout; it raises
//     only when the whole run was externally cancelled, since that is not a
//     signal outcome the caller opted into tolerating.
func (c *Coordinator) raisedError(results []result.SignalResult) error {
	var relevant []result.SignalResult

	switch c.opts.Policy {
	case config.PolicyFailFast:
		for _, sr := range results {
			if sr.Status == result.StatusFailed || sr.Status == result.StatusTimedOut {
				relevant = append(relevant, sr)
			}
		}
	case config.PolicyContinueOnTimeout:
		for _, sr := range results {
			if sr.Status == result.StatusFailed {
				relevant = append(relevant, sr)
			}
		}
	default: // config.PolicyBestEffort
		for _, sr := range results {
			if sr.Status == result.StatusCancelled && sr.CancellationReason == result.ReasonExternalCancellation {
				relevant = append(relevant, sr)
			}
		}
	}

	if len(relevant) == 0 {
		return nil
	}

	kind := ignerrors.KindSignalFailure
	errs := make([]*ignerrors.SignalError, 0, len(relevant))
	for _, sr := range relevant {
		k := ignerrors.KindSignalFailure
		switch sr.Status {
		case result.StatusTimedOut:
			k = ignerrors.KindTimeout
		case result.StatusCancelled:
			k = ignerrors.KindCancellation
		}
		if k != ignerrors.KindSignalFailure {
			kind = k
		}
		msg := "signal did not succeed"
		if sr.Error != nil {
			msg = sr.Error.Message
		}
		errs = append(errs, &ignerrors.SignalError{SignalName: sr.Name, Kind: k, Err: errors.New(msg)})
	}

	return &ignerrors.AggregateError{Kind: kind, Errors: errs}
}
