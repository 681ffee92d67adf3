package signal

import (
	"fmt"

	"github.com/ignitionrun/coordinator/ignerrors"
)

// Registry is an ordered, immutable-once-built set of signals known at run
// start. Registration order is preserved and is the execution order for
// Sequential mode and the declaration order reported in diagnostics.
type Registry struct {
	order  []string
	byName map[string]Signal
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Signal),
	}
}

// Register adds a signal to the registry. Returns ignerrors.ErrEmptySignalName
// for an empty name and ignerrors.ErrDuplicateSignal for a name already
// registered — per the spec's explicit resolution, duplicate names are
// always rejected rather than silently overwritten.
func (r *Registry) Register(s Signal) error {
	if s.Name == "" {
		return &ignerrors.ConfigurationError{Reason: "signal name must not be empty", Err: ignerrors.ErrEmptySignalName}
	}
	if _, exists := r.byName[s.Name]; exists {
		return &ignerrors.ConfigurationError{
			Reason: fmt.Sprintf("duplicate signal name %q", s.Name),
			Err:    ignerrors.ErrDuplicateSignal,
		}
	}
	r.byName[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Get returns the signal registered under name.
func (r *Registry) Get(name string) (Signal, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Names returns every registered signal name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Signals returns every registered signal in registration order.
func (r *Registry) Signals() []Signal {
	out := make([]Signal, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered signals.
func (r *Registry) Len() int {
	return len(r.order)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}
