package schedule

import (
	"testing"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
	"github.com/ignitionrun/coordinator/stage"
)

func TestRunStaged_AllStagesSucceed(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{okSignal("a"), okSignal("b"), okSignal("c")}
	tbl := stage.NewTable().Assign("a", 0).Assign("b", 1).Assign("c", 1)
	p := newTestRunParams(sigs, &opts)
	results, stageResults := RunStaged(p, tbl)

	for _, r := range results {
		if r.Status != result.StatusSucceeded {
			t.Errorf("%s: expected Succeeded, got %s", r.Name, r.Status)
		}
		if r.Stage == nil {
			t.Errorf("%s: expected a stage pointer set", r.Name)
		}
	}
	if len(stageResults) != 2 {
		t.Fatalf("expected 2 stage results, got %d", len(stageResults))
	}
	for _, sr := range stageResults {
		if sr.Outcome != result.StageSucceeded {
			t.Errorf("stage %d: expected StageSucceeded, got %s", sr.Stage, sr.Outcome)
		}
	}
}

func TestRunStaged_FailFastStopsLaterStages(t *testing.T) {
	opts := config.Default()
	opts.Policy = config.PolicyFailFast
	sigs := []signal.Signal{failSignal("a"), okSignal("b")}
	tbl := stage.NewTable().Assign("a", 0).Assign("b", 1)
	p := newTestRunParams(sigs, &opts)
	results, stageResults := RunStaged(p, tbl)

	byName := map[string]result.SignalResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if byName["a"].Status != result.StatusFailed {
		t.Errorf("a: expected Failed, got %s", byName["a"].Status)
	}
	if byName["b"].Status != result.StatusCancelled {
		t.Errorf("b: expected Cancelled, got %s", byName["b"].Status)
	}

	if len(stageResults) != 2 {
		t.Fatalf("expected 2 stage results, got %d", len(stageResults))
	}
	if stageResults[0].Outcome != result.StageFailed {
		t.Errorf("stage 0: expected StageFailed, got %s", stageResults[0].Outcome)
	}
	if stageResults[1].Outcome != result.StageFailed {
		t.Errorf("stage 1: expected StageFailed (never launched), got %s", stageResults[1].Outcome)
	}
}

func TestRunStaged_BestEffortRunsAllStages(t *testing.T) {
	opts := config.Default()
	sigs := []signal.Signal{failSignal("a"), okSignal("b")}
	tbl := stage.NewTable().Assign("a", 0).Assign("b", 1)
	p := newTestRunParams(sigs, &opts)
	results, stageResults := RunStaged(p, tbl)

	byName := map[string]result.SignalResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if byName["b"].Status != result.StatusSucceeded {
		t.Errorf("b: expected Succeeded under BestEffort, got %s", byName["b"].Status)
	}
	if stageResults[0].Outcome != result.StageFailed {
		t.Errorf("stage 0: expected StageFailed, got %s", stageResults[0].Outcome)
	}
	if stageResults[1].Outcome != result.StageSucceeded {
		t.Errorf("stage 1: expected StageSucceeded, got %s", stageResults[1].Outcome)
	}
}

func TestStageIsCertainToFail(t *testing.T) {
	names := []string{"a", "b", "c"}
	cases := []struct {
		name     string
		statuses map[string]result.SignalStatus
		want     bool
	}{
		{"none reported", map[string]result.SignalStatus{}, false},
		{"one succeeded", map[string]result.SignalStatus{"a": result.StatusSucceeded}, false},
		{"one failed", map[string]result.SignalStatus{"a": result.StatusFailed}, true},
		{"one cancelled among success", map[string]result.SignalStatus{
			"a": result.StatusSucceeded, "b": result.StatusCancelled,
		}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := stageIsCertainToFail(names, c.statuses); got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}
