package schedule

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// limiter wraps a weighted semaphore with capacity = MaxDegreeOfParallelism;
// -1 (unboundedLimit) skips acquisition entirely, matching §9's "a weighted
// semaphore with capacity = MaxDegreeOfParallelism; -1 means unbounded (no
// semaphore)".
type limiter struct {
	sem *semaphore.Weighted
}

func newLimiter(maxDegreeOfParallelism int) *limiter {
	if maxDegreeOfParallelism == unboundedLimit {
		return &limiter{}
	}
	return &limiter{sem: semaphore.NewWeighted(int64(maxDegreeOfParallelism))}
}

// acquire blocks until a slot is available or ctx is done. Unbounded
// limiters always succeed immediately.
func (l *limiter) acquire(ctx context.Context) error {
	if l.sem == nil {
		return nil
	}
	return l.sem.Acquire(ctx, 1)
}

// release returns a slot. No-op for unbounded limiters.
func (l *limiter) release() {
	if l.sem == nil {
		return
	}
	l.sem.Release(1)
}
