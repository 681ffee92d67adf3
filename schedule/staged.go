package schedule

import (
	"sync"

	"github.com/ignitionrun/coordinator/config"
	"github.com/ignitionrun/coordinator/result"
	"github.com/ignitionrun/coordinator/signal"
	"github.com/ignitionrun/coordinator/stage"
)

// RunStaged implements §4.4.4: stages execute in strictly ascending order;
// within a stage, signals run under the Parallel engine's own eligibility
// and concurrency-limiting rules. Between stages, the scheduler normally
// waits for every signal in the stage to reach a terminal status; when
// PromoteNextStageOnTerminalFailure is set, it instead promotes as soon as
// the stage is certain to fail (see stageIsCertainToFail) and lets the
// remaining in-flight signals keep running in the background.
func RunStaged(p RunParams, tbl *stage.Table) ([]result.SignalResult, []result.StageResult) {
	index := make(map[string]int, len(p.Signals))
	sigByName := make(map[string]signal.Signal, len(p.Signals))
	names := make([]string, len(p.Signals))
	for i, s := range p.Signals {
		index[s.Name] = i
		sigByName[s.Name] = s
		names[i] = s.Name
	}

	stageNums, byStage := tbl.Stages(names)

	results := make([]result.SignalResult, len(p.Signals))
	stageResults := make([]result.StageResult, 0, len(stageNums))

	lim := newLimiter(p.Opts.MaxDegreeOfParallelism)
	var overallWG sync.WaitGroup
	stoppedAll := false

	for _, stNum := range stageNums {
		stageNum := stNum
		stageNames := byStage[stNum]

		if stoppedAll || p.Fabric.Context().Err() != nil {
			for _, name := range stageNames {
				sr := notLaunched(sigByName[name], p.RunStart)
				n := stageNum
				sr.Stage = &n
				results[index[name]] = sr
			}
			stageResults = append(stageResults, result.StageResult{
				Stage: stageNum, Outcome: result.StageFailed,
				SignalNames: append([]string{}, stageNames...),
			})
			continue
		}

		type completion struct {
			name string
			sr   result.SignalResult
		}
		compCh := make(chan completion, len(stageNames))

		for _, name := range stageNames {
			name := name
			sig := sigByName[name]
			overallWG.Add(1)
			go func() {
				defer overallWG.Done()

				var sr result.SignalResult
				switch {
				case p.Fabric.Context().Err() != nil:
					sr = notLaunched(sig, p.RunStart)
				default:
					if err := lim.acquire(p.Fabric.Context()); err != nil {
						sr = notLaunched(sig, p.RunStart)
						break
					}
					func() {
						defer lim.release()
						if p.Fabric.Context().Err() != nil {
							sr = notLaunched(sig, p.RunStart)
							return
						}
						sr = Execute(ExecParams{
							RunStart: p.RunStart,
							Signal:   sig,
							Fabric:   p.Fabric,
							Opts:     p.Opts,
							Observer: p.Observer,
							Tracker:  p.Tracker,
						})
					}()
				}

				n := stageNum
				sr.Stage = &n
				results[index[name]] = sr

				if stopsRun(sr.Status, p.Opts.Policy) {
					p.Fabric.Stop()
				}

				compCh <- completion{name: name, sr: sr}
			}()
		}

		statusByName := make(map[string]result.SignalStatus, len(stageNames))
		remaining := len(stageNames)
		promote := p.Opts.PromoteNextStageOnTerminalFailure()

		for remaining > 0 {
			c := <-compCh
			statusByName[c.name] = c.sr.Status
			remaining--
			if remaining == 0 {
				break
			}
			if promote && stageIsCertainToFail(stageNames, statusByName) {
				break
			}
		}

		promoted := remaining > 0
		outcome := stageOutcome(stageNames, statusByName, promoted)
		stageResults = append(stageResults, result.StageResult{
			Stage: stageNum, Outcome: outcome,
			SignalNames: append([]string{}, stageNames...),
			Promoted:    promoted,
		})

		if p.Opts.Policy == config.PolicyFailFast && outcome != result.StageSucceeded {
			stoppedAll = true
		}
	}

	overallWG.Wait()
	return results, stageResults
}

// stageIsCertainToFail reports whether a stage can no longer reach
// Succeeded: since a stage succeeds only if every signal in it succeeds, a
// single observed non-success already makes success impossible regardless
// of how the remaining in-flight signals resolve. This is the conservative
// reading of the spec's ambiguous "stage early promotion" design note.
func stageIsCertainToFail(names []string, statusByName map[string]result.SignalStatus) bool {
	for _, n := range names {
		if st, ok := statusByName[n]; ok && st != result.StatusSucceeded {
			return true
		}
	}
	return false
}

// stageOutcome aggregates known per-signal statuses into a StageOutcome.
// When promoted is true, some signals were still in flight when the stage
// gate opened and are not represented in statusByName.
func stageOutcome(names []string, statusByName map[string]result.SignalStatus, promoted bool) result.StageOutcome {
	var succeeded, failed, timedOut, other int
	for _, n := range names {
		st, ok := statusByName[n]
		if !ok {
			continue
		}
		switch st {
		case result.StatusSucceeded:
			succeeded++
		case result.StatusFailed:
			failed++
		case result.StatusTimedOut:
			timedOut++
		default:
			other++
		}
	}

	if !promoted && succeeded == len(names) {
		return result.StageSucceeded
	}

	kinds := 0
	for _, n := range []int{succeeded, failed, timedOut, other} {
		if n > 0 {
			kinds++
		}
	}
	if kinds > 1 {
		return result.StagePartiallyCompleted
	}
	switch {
	case failed > 0:
		return result.StageFailed
	case timedOut > 0:
		return result.StageTimedOut
	default:
		return result.StagePartiallyCompleted
	}
}
