package diagnostics

import (
	"testing"
	"time"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/result"
)

func TestRecord_BasicFields(t *testing.T) {
	rr := result.RunResult{
		TotalDuration: 120 * time.Millisecond,
		TimedOut:      false,
		FinalState:    result.StateCompleted,
		SignalResults: []result.SignalResult{
			{Name: "a", Status: result.StatusSucceeded, StartedAt: 0, CompletedAt: 10 * time.Millisecond, Duration: 10 * time.Millisecond},
			{Name: "b", Status: result.StatusFailed, StartedAt: 0, CompletedAt: 20 * time.Millisecond, Duration: 20 * time.Millisecond,
				Error: &result.SignalError{Kind: "signal_failure", Message: "boom"}},
		},
	}
	opts := config.Default()
	now := time.Unix(1700000000, 0)

	rec := Record(rr, opts, now)

	if rec.SchemaVersion != "1.0" {
		t.Errorf("expected schemaVersion 1.0, got %s", rec.SchemaVersion)
	}
	if rec.RecordingID == "" {
		t.Error("expected a non-empty recordingId")
	}
	if rec.TotalDurationMs != 120 {
		t.Errorf("expected totalDurationMs=120, got %d", rec.TotalDurationMs)
	}
	if len(rec.Signals) != 2 {
		t.Fatalf("expected 2 signal records, got %d", len(rec.Signals))
	}
	if rec.Signals[1].ErrorMessage != "boom" {
		t.Errorf("expected errorMessage=boom, got %q", rec.Signals[1].ErrorMessage)
	}
	if rec.Summary.Total != 2 {
		t.Errorf("expected summary.total=2, got %d", rec.Summary.Total)
	}
	if rec.Summary.SlowestName != "b" {
		t.Errorf("expected slowest=b, got %s", rec.Summary.SlowestName)
	}
	if rec.Summary.FastestName != "a" {
		t.Errorf("expected fastest=a, got %s", rec.Summary.FastestName)
	}
}

func TestSummarize_MaxConcurrency(t *testing.T) {
	signals := []result.SignalResult{
		{Name: "a", Status: result.StatusSucceeded, StartedAt: 0, CompletedAt: 10 * time.Millisecond, Duration: 10 * time.Millisecond},
		{Name: "b", Status: result.StatusSucceeded, StartedAt: 5 * time.Millisecond, CompletedAt: 15 * time.Millisecond, Duration: 10 * time.Millisecond},
		{Name: "c", Status: result.StatusSucceeded, StartedAt: 20 * time.Millisecond, CompletedAt: 25 * time.Millisecond, Duration: 5 * time.Millisecond},
	}
	s := summarize(signals)
	if s.MaxConcurrency != 2 {
		t.Errorf("expected maxConcurrency=2 (a,b overlap; c disjoint), got %d", s.MaxConcurrency)
	}
}

func TestSummarize_NeverLaunchedExcludedFromConcurrency(t *testing.T) {
	signals := []result.SignalResult{
		{Name: "a", Status: result.StatusSucceeded, StartedAt: 0, CompletedAt: 10 * time.Millisecond, Duration: 10 * time.Millisecond},
		{Name: "b", Status: result.StatusCancelled, StartedAt: 0, CompletedAt: 0, Duration: 0},
	}
	s := summarize(signals)
	if s.MaxConcurrency != 1 {
		t.Errorf("expected maxConcurrency=1 (b never launched), got %d", s.MaxConcurrency)
	}
}
