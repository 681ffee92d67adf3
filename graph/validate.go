package graph

import (
	"fmt"

	"github.com/ignitionrun/coordinator/ignerrors"
)

// ValidateAgainst checks that every signal referenced by the graph is
// present in known (typically signal.Registry.Names()). The spec requires
// every edge endpoint to be a registered signal.
func (g *Graph) ValidateAgainst(known []string) error {
	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}

	for _, name := range g.Names() {
		if _, ok := knownSet[name]; !ok {
			return &ignerrors.ConfigurationError{
				Reason: fmt.Sprintf("graph references unknown signal %q", name),
			}
		}
	}
	return nil
}
