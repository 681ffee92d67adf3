// Package signal defines the Signal abstraction and the ordered, immutable
// Registry of signals known at run start.
package signal

import (
	"context"
	"time"
)

// Func is the operation a Signal performs. It receives a cancellation
// context and returns nil on success or a non-nil error otherwise;
// cancellation is observed by checking ctx.Err() after the context is
// done. A Func must be invoked at most once per run.
type Func func(ctx context.Context) error

// Signal is a named asynchronous readiness operation. Identity is the
// Name, which must be non-empty and unique within a Registry.
type Signal struct {
	// Name identifies the signal uniquely within a run.
	Name string

	// PerSignalTimeout is this signal's own declared timeout. Zero means
	// no per-signal deadline. A config.TimeoutStrategy, when configured,
	// is consulted first and may override this value for a given run.
	PerSignalTimeout time.Duration

	// Execute is the operation itself.
	Execute Func
}
