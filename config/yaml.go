package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlOptions mirrors Options with YAML-friendly scalar types (durations as
// strings, booleans as plain *bool with yaml tags) since time.Duration and
// the JSON field names don't map cleanly onto a hand-authored YAML document.
type yamlOptions struct {
	Policy                             string `yaml:"policy"`
	ExecutionMode                      string `yaml:"executionMode"`
	GlobalTimeout                      string `yaml:"globalTimeout"`
	CancelOnGlobalTimeout              *bool  `yaml:"cancelOnGlobalTimeout"`
	CancelIndividualOnTimeout          *bool  `yaml:"cancelIndividualOnTimeout"`
	CancelDependentsOnFailure          *bool  `yaml:"cancelDependentsOnFailure"`
	MaxDegreeOfParallelism             *int   `yaml:"maxDegreeOfParallelism"`
	SlowSignalLogCount                 *int   `yaml:"slowSignalLogCount"`
	PromoteNextStageOnTerminalFailure  *bool  `yaml:"promoteNextStageOnTerminalFailure"`
	Observer                           string `yaml:"observer"`
}

// LoadOptionsYAML parses a declarative Options document. Hosts that prefer
// wiring coordination policy outside Go code (alongside a YAML stage table,
// see stage.LoadTableYAML) can use this instead of building config.Options
// by hand.
func LoadOptionsYAML(data []byte) (Options, error) {
	var y yamlOptions
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Options{}, fmt.Errorf("ignition: parsing options yaml: %w", err)
	}

	opts := Default()
	if y.Policy != "" {
		opts.Policy = Policy(y.Policy)
	}
	if y.ExecutionMode != "" {
		opts.ExecutionMode = ExecutionMode(y.ExecutionMode)
	}
	if y.GlobalTimeout != "" {
		d, err := time.ParseDuration(y.GlobalTimeout)
		if err != nil {
			return Options{}, fmt.Errorf("ignition: parsing globalTimeout: %w", err)
		}
		opts.GlobalTimeout = d
	}
	opts.CancelOnGlobalTimeoutNil = y.CancelOnGlobalTimeout
	opts.CancelIndividualOnTimeoutNil = y.CancelIndividualOnTimeout
	opts.CancelDependentsOnFailureNil = y.CancelDependentsOnFailure
	if y.MaxDegreeOfParallelism != nil {
		opts.MaxDegreeOfParallelism = *y.MaxDegreeOfParallelism
	}
	if y.SlowSignalLogCount != nil {
		opts.SlowSignalLogCount = *y.SlowSignalLogCount
	}
	opts.PromoteNextStageOnTerminalFailureNil = y.PromoteNextStageOnTerminalFailure
	if y.Observer != "" {
		opts.Observer = y.Observer
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
