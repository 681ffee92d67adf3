// Package diagnostics renders a completed result.RunResult into the two
// external-interface schemas described in §6: RunRecording, a flat JSON
// snapshot suitable for logging or archival, and Timeline, a derived view
// of overlapping execution intervals. Grounded on orchestrate/state/state.go's
// JSON-tagged, github.com/google/uuid-stamped record style.
package diagnostics

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/result"
)

const schemaVersion = "1.0"

// SignalRecord is one signal's entry in a RunRecording, expressed in
// millisecond offsets from the run's start rather than time.Duration, for a
// schema that serializes cleanly and compares easily across runs.
type SignalRecord struct {
	Name                     string   `json:"name"`
	Status                   string   `json:"status"`
	StartMs                  int64    `json:"startMs"`
	EndMs                    int64    `json:"endMs"`
	DurationMs               int64    `json:"durationMs"`
	CancellationReason       string   `json:"cancellationReason,omitempty"`
	Stage                    *int     `json:"stage,omitempty"`
	FailedDependencies       []string `json:"failedDependencies,omitempty"`
	SkippedDueToDependencies bool     `json:"skippedDueToDependencies,omitempty"`
	ErrorKind                string   `json:"errorKind,omitempty"`
	ErrorMessage             string   `json:"errorMessage,omitempty"`
}

// StageRecord is one stage's entry in a RunRecording.
type StageRecord struct {
	Stage       int      `json:"stage"`
	Outcome     string   `json:"outcome"`
	SignalNames []string `json:"signalNames"`
	Promoted    bool     `json:"promoted"`
}

// Summary aggregates the run's signals: per-status counts, the slowest and
// fastest signal, the mean duration, and the maximum number of signals
// observed running concurrently.
type Summary struct {
	Total          int            `json:"total"`
	CountByStatus  map[string]int `json:"countByStatus"`
	SlowestName    string         `json:"slowestName,omitempty"`
	SlowestMs      int64          `json:"slowestMs,omitempty"`
	FastestName    string         `json:"fastestName,omitempty"`
	FastestMs      int64          `json:"fastestMs,omitempty"`
	AverageMs      float64        `json:"averageMs"`
	MaxConcurrency int            `json:"maxConcurrency"`
}

// ConfigurationSnapshot echoes the effective Options a run used.
type ConfigurationSnapshot struct {
	Policy                     string `json:"policy"`
	ExecutionMode              string `json:"executionMode"`
	GlobalTimeoutMs            int64  `json:"globalTimeoutMs"`
	CancelOnGlobalTimeout      bool   `json:"cancelOnGlobalTimeout"`
	CancelIndividualOnTimeout  bool   `json:"cancelIndividualOnTimeout"`
	CancelDependentsOnFailure  bool   `json:"cancelDependentsOnFailure"`
	MaxDegreeOfParallelism     int    `json:"maxDegreeOfParallelism"`
	SlowSignalLogCount         int    `json:"slowSignalLogCount"`
	PromoteNextStageOnFailure  bool   `json:"promoteNextStageOnTerminalFailure"`
	Observer                   string `json:"observer"`
}

// RunRecording is the schemaVersion "1.0" external-interface snapshot of a
// completed run, per §6.
type RunRecording struct {
	SchemaVersion   string                `json:"schemaVersion"`
	RecordingID     string                `json:"recordingId"`
	RecordedAt      time.Time             `json:"recordedAt"`
	TotalDurationMs int64                 `json:"totalDurationMs"`
	TimedOut        bool                  `json:"timedOut"`
	FinalState      string                `json:"finalState"`
	Configuration   ConfigurationSnapshot `json:"configuration"`
	Signals         []SignalRecord        `json:"signals"`
	Stages          []StageRecord         `json:"stages,omitempty"`
	Summary         Summary               `json:"summary"`
}

// Record builds a RunRecording from a completed RunResult and the Options
// that produced it. recordedAt is supplied by the caller rather than taken
// from time.Now internally, keeping this function a pure transformation.
func Record(rr result.RunResult, opts config.Options, recordedAt time.Time) RunRecording {
	signals := make([]SignalRecord, 0, len(rr.SignalResults))
	for _, sr := range rr.SignalResults {
		rec := SignalRecord{
			Name:                     sr.Name,
			Status:                   string(sr.Status),
			StartMs:                  sr.StartedAt.Milliseconds(),
			EndMs:                    sr.CompletedAt.Milliseconds(),
			DurationMs:               sr.Duration.Milliseconds(),
			CancellationReason:       cancellationReasonOrEmpty(sr),
			Stage:                    sr.Stage,
			FailedDependencies:       sr.FailedDependencies,
			SkippedDueToDependencies: sr.SkippedDueToDependencies,
		}
		if sr.Error != nil {
			rec.ErrorKind = sr.Error.Kind
			rec.ErrorMessage = sr.Error.Message
		}
		signals = append(signals, rec)
	}

	stages := make([]StageRecord, 0, len(rr.StageResults))
	for _, sr := range rr.StageResults {
		stages = append(stages, StageRecord{
			Stage:       sr.Stage,
			Outcome:     string(sr.Outcome),
			SignalNames: sr.SignalNames,
			Promoted:    sr.Promoted,
		})
	}

	return RunRecording{
		SchemaVersion:   schemaVersion,
		RecordingID:     uuid.NewString(),
		RecordedAt:      recordedAt,
		TotalDurationMs: rr.TotalDuration.Milliseconds(),
		TimedOut:        rr.TimedOut,
		FinalState:      string(rr.FinalState),
		Configuration:   snapshotConfig(opts),
		Signals:         signals,
		Stages:          stages,
		Summary:         summarize(rr.SignalResults),
	}
}

func cancellationReasonOrEmpty(sr result.SignalResult) string {
	if sr.CancellationReason == result.ReasonNone {
		return ""
	}
	return string(sr.CancellationReason)
}

func snapshotConfig(o config.Options) ConfigurationSnapshot {
	return ConfigurationSnapshot{
		Policy:                    string(o.Policy),
		ExecutionMode:             string(o.ExecutionMode),
		GlobalTimeoutMs:           o.GlobalTimeout.Milliseconds(),
		CancelOnGlobalTimeout:     o.CancelOnGlobalTimeout(),
		CancelIndividualOnTimeout: o.CancelIndividualOnTimeout(),
		CancelDependentsOnFailure: o.CancelDependentsOnFailure(),
		MaxDegreeOfParallelism:    o.MaxDegreeOfParallelism,
		SlowSignalLogCount:        o.SlowSignalLogCount,
		PromoteNextStageOnFailure: o.PromoteNextStageOnTerminalFailure(),
		Observer:                  o.Observer,
	}
}

// summarize computes the Summary.MaxConcurrency field via a sweep over
// interval endpoints: +1 at each signal's start, -1 at its end, tracking the
// running total's peak. Signals with zero duration (never launched) do not
// contribute an overlapping interval.
func summarize(signals []result.SignalResult) Summary {
	s := Summary{Total: len(signals), CountByStatus: make(map[string]int)}
	if len(signals) == 0 {
		return s
	}

	type point struct {
		ms    int64
		delta int
	}
	var points []point
	var totalMs int64
	var slowestIdx, fastestIdx = -1, -1

	for i, sr := range signals {
		s.CountByStatus[string(sr.Status)]++
		totalMs += sr.Duration.Milliseconds()

		if sr.Duration > 0 {
			points = append(points, point{ms: sr.StartedAt.Milliseconds(), delta: 1})
			points = append(points, point{ms: sr.CompletedAt.Milliseconds(), delta: -1})
		}

		if slowestIdx == -1 || sr.Duration > signals[slowestIdx].Duration {
			slowestIdx = i
		}
		if fastestIdx == -1 || sr.Duration < signals[fastestIdx].Duration {
			fastestIdx = i
		}
	}

	if slowestIdx >= 0 {
		s.SlowestName = signals[slowestIdx].Name
		s.SlowestMs = signals[slowestIdx].Duration.Milliseconds()
	}
	if fastestIdx >= 0 {
		s.FastestName = signals[fastestIdx].Name
		s.FastestMs = signals[fastestIdx].Duration.Milliseconds()
	}
	s.AverageMs = float64(totalMs) / float64(len(signals))

	sort.Slice(points, func(i, j int) bool {
		if points[i].ms != points[j].ms {
			return points[i].ms < points[j].ms
		}
		// Process ends before starts at the same instant, so a signal
		// ending exactly when another begins is not counted as overlapping.
		return points[i].delta < points[j].delta
	})

	var running, peak int
	for _, p := range points {
		running += p.delta
		if running > peak {
			peak = running
		}
	}
	s.MaxConcurrency = peak

	return s
}
