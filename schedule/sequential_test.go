package schedule

import (
	"testing"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
)

func TestRunSequential_OrderPreserved(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{okSignal("a"), okSignal("b"), okSignal("c")}
	p := newTestRunParams(sigs, &opts)
	results := RunSequential(p)
	for i, name := range []string{"a", "b", "c"} {
		if results[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, results[i].Name)
		}
		if results[i].Status != result.StatusSucceeded {
			t.Errorf("signal %q: expected Succeeded, got %s", name, results[i].Status)
		}
	}
}

func TestRunSequential_FailFastStopsRemaining(t *testing.T) {
	opts := config.Default()
	opts.Policy = config.PolicyFailFast
	sigs := []signal.Signal{okSignal("a"), failSignal("b"), okSignal("c")}
	p := newTestRunParams(sigs, &opts)
	results := RunSequential(p)

	if results[0].Status != result.StatusSucceeded {
		t.Errorf("a: expected Succeeded, got %s", results[0].Status)
	}
	if results[1].Status != result.StatusFailed {
		t.Errorf("b: expected Failed, got %s", results[1].Status)
	}
	if results[2].Status != result.StatusCancelled {
		t.Errorf("c: expected Cancelled, got %s", results[2].Status)
	}
	if results[2].CancellationReason != result.ReasonScopeCancelled {
		t.Errorf("c: expected ScopeCancelled reason, got %s", results[2].CancellationReason)
	}
	if results[2].Duration != 0 {
		t.Errorf("c: expected zero duration, got %s", results[2].Duration)
	}
}

func TestRunSequential_BestEffortRunsAll(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{okSignal("a"), failSignal("b"), okSignal("c")}
	p := newTestRunParams(sigs, &opts)
	results := RunSequential(p)

	if results[2].Status != result.StatusSucceeded {
		t.Errorf("c: expected Succeeded under BestEffort, got %s", results[2].Status)
	}
}
