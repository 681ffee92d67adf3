package diagnostics

import (
	"sort"

	"github.com/ignitionrun/coordinator/result"
)

// TimelineEvent is one start or end point in a run's execution timeline.
type TimelineEvent struct {
	Signal string `json:"signal"`
	Kind   string `json:"kind"` // "start" or "end"
	Ms     int64  `json:"ms"`
}

// ConcurrentGroup is a maximal run of signals whose execution intervals
// transitively overlap. A signal whose interval overlaps no other signal's
// forms a group of its own.
type ConcurrentGroup struct {
	ID          int      `json:"id"`
	SignalNames []string `json:"signalNames"`
	StartMs     int64    `json:"startMs"`
	EndMs       int64    `json:"endMs"`
}

// Timeline is the schemaVersion "1.0" derived view of a run's execution
// intervals, per §6: a flat event log plus the concurrent groups a
// sweep-line merge over those intervals produces.
type Timeline struct {
	SchemaVersion string            `json:"schemaVersion"`
	Events        []TimelineEvent   `json:"events"`
	Groups        []ConcurrentGroup `json:"groups"`
}

type interval struct {
	name       string
	start, end int64
}

// BuildTimeline derives a Timeline from a run's signal results. Signals
// with zero duration (never launched — e.g. FailFast-cancelled, or
// dependency-skipped) contribute no interval and are absent from both the
// event log and every group.
func BuildTimeline(signals []result.SignalResult) Timeline {
	var events []TimelineEvent
	var intervals []interval

	for _, sr := range signals {
		if sr.Duration <= 0 {
			continue
		}
		start := sr.StartedAt.Milliseconds()
		end := sr.CompletedAt.Milliseconds()
		events = append(events,
			TimelineEvent{Signal: sr.Name, Kind: "start", Ms: start},
			TimelineEvent{Signal: sr.Name, Kind: "end", Ms: end},
		)
		intervals = append(intervals, interval{name: sr.Name, start: start, end: end})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Ms != events[j].Ms {
			return events[i].Ms < events[j].Ms
		}
		if events[i].Kind != events[j].Kind {
			return events[i].Kind < events[j].Kind
		}
		return events[i].Signal < events[j].Signal
	})

	return Timeline{
		SchemaVersion: schemaVersion,
		Events:        events,
		Groups:        mergeOverlapping(intervals),
	}
}

// mergeOverlapping sweeps intervals sorted by start time, merging any whose
// span transitively overlaps the running [start, currentEnd) window into
// one ConcurrentGroup.
func mergeOverlapping(intervals []interval) []ConcurrentGroup {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].name < sorted[j].name
	})

	var groups []ConcurrentGroup
	current := []interval{sorted[0]}
	currentEnd := sorted[0].end

	flush := func() {
		names := make([]string, 0, len(current))
		start, end := current[0].start, currentEnd
		for _, iv := range current {
			names = append(names, iv.name)
			if iv.start < start {
				start = iv.start
			}
		}
		sort.Strings(names)
		groups = append(groups, ConcurrentGroup{
			ID: len(groups), SignalNames: names, StartMs: start, EndMs: end,
		})
	}

	for _, iv := range sorted[1:] {
		if iv.start < currentEnd {
			current = append(current, iv)
			if iv.end > currentEnd {
				currentEnd = iv.end
			}
			continue
		}
		flush()
		current = []interval{iv}
		currentEnd = iv.end
	}
	flush()

	return groups
}
