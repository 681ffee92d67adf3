package config

import (
	"errors"
	"testing"

	"github.com/ignitionrun/coordinator/ignerrors"
)

func TestOptions_Defaults(t *testing.T) {
	o := Default()

	if !o.CancelOnGlobalTimeout() {
		t.Errorf("CancelOnGlobalTimeout() = false, want true (default)")
	}
	if !o.CancelIndividualOnTimeout() {
		t.Errorf("CancelIndividualOnTimeout() = false, want true (default)")
	}
	if o.CancelDependentsOnFailure() {
		t.Errorf("CancelDependentsOnFailure() = true, want false (default)")
	}
	if o.PromoteNextStageOnTerminalFailure() {
		t.Errorf("PromoteNextStageOnTerminalFailure() = true, want false (default)")
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate() of defaults = %v, want nil", err)
	}
}

func TestOptions_ExplicitFalseDistinctFromUnset(t *testing.T) {
	o := Default()
	f := false
	o.CancelOnGlobalTimeoutNil = &f

	if o.CancelOnGlobalTimeout() {
		t.Errorf("CancelOnGlobalTimeout() = true, want false (explicitly set)")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"valid defaults", func(o *Options) {}, false},
		{"unbounded concurrency", func(o *Options) { o.MaxDegreeOfParallelism = -1 }, false},
		{"zero concurrency rejected", func(o *Options) { o.MaxDegreeOfParallelism = 0 }, true},
		{"negative concurrency below -1 rejected", func(o *Options) { o.MaxDegreeOfParallelism = -2 }, true},
		{"bad policy rejected", func(o *Options) { o.Policy = "bogus" }, true},
		{"bad mode rejected", func(o *Options) { o.ExecutionMode = "bogus" }, true},
		{"negative slow count rejected", func(o *Options) { o.SlowSignalLogCount = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Default()
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ignerrors.ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Validate() error = %v, want an *ignerrors.ConfigurationError", err)
				}
			}
		})
	}
}

func TestOptions_Merge(t *testing.T) {
	base := Default()
	strict := true
	override := Options{
		Policy:                   PolicyFailFast,
		CancelDependentsOnFailureNil: &strict,
	}

	base.Merge(&override)

	if base.Policy != PolicyFailFast {
		t.Errorf("Policy after merge = %v, want %v", base.Policy, PolicyFailFast)
	}
	if !base.CancelDependentsOnFailure() {
		t.Errorf("CancelDependentsOnFailure() after merge = false, want true")
	}
	if base.ExecutionMode != ModeParallel {
		t.Errorf("ExecutionMode after merge = %v, want unchanged %v", base.ExecutionMode, ModeParallel)
	}
}

func TestLoadOptionsYAML(t *testing.T) {
	doc := []byte(`
policy: fail_fast
executionMode: staged
globalTimeout: 2s
maxDegreeOfParallelism: 4
cancelOnGlobalTimeout: false
`)

	opts, err := LoadOptionsYAML(doc)
	if err != nil {
		t.Fatalf("LoadOptionsYAML() error = %v", err)
	}
	if opts.Policy != PolicyFailFast {
		t.Errorf("Policy = %v, want %v", opts.Policy, PolicyFailFast)
	}
	if opts.ExecutionMode != ModeStaged {
		t.Errorf("ExecutionMode = %v, want %v", opts.ExecutionMode, ModeStaged)
	}
	if opts.GlobalTimeout.Seconds() != 2 {
		t.Errorf("GlobalTimeout = %v, want 2s", opts.GlobalTimeout)
	}
	if opts.MaxDegreeOfParallelism != 4 {
		t.Errorf("MaxDegreeOfParallelism = %v, want 4", opts.MaxDegreeOfParallelism)
	}
	if opts.CancelOnGlobalTimeout() {
		t.Errorf("CancelOnGlobalTimeout() = true, want false")
	}
}

func TestLoadOptionsYAML_InvalidDuration(t *testing.T) {
	doc := []byte(`globalTimeout: "not-a-duration"`)
	if _, err := LoadOptionsYAML(doc); err == nil {
		t.Fatalf("LoadOptionsYAML() error = nil, want error")
	}
}
