package stage

import (
	"fmt"

	"github.com/ignitionrun/coordinator/ignerrors"
	"gopkg.in/yaml.v3"
)

// LoadTableYAML parses a declarative stage-table document of the shape:
//
//	db: 0
//	cache: 0
//	worker: 1
//
// mirroring how hosts in the source system wire up dozens of signals
// without writing Go for each one (see config.LoadOptionsYAML for the
// equivalent on the options side).
func LoadTableYAML(data []byte) (*Table, error) {
	var raw map[string]int
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ignition: parsing stage table yaml: %w", err)
	}

	t := NewTable()
	for name, n := range raw {
		if n < 0 {
			return nil, &ignerrors.ConfigurationError{
				Reason: fmt.Sprintf("stage table: signal %q has negative stage %d", name, n),
			}
		}
		t.Assign(name, n)
	}
	return t, nil
}
