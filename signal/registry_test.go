package signal

import (
	"context"
	"errors"
	"testing"

	"github.com/ignitionrun/coordinator/ignerrors"
)

func noop(ctx context.Context) error { return nil }

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name    string
		signals []Signal
		wantErr error
	}{
		{
			name:    "single signal",
			signals: []Signal{{Name: "db", Execute: noop}},
		},
		{
			name:    "empty name rejected",
			signals: []Signal{{Name: "", Execute: noop}},
			wantErr: ignerrors.ErrEmptySignalName,
		},
		{
			name: "duplicate name rejected",
			signals: []Signal{
				{Name: "db", Execute: noop},
				{Name: "db", Execute: noop},
			},
			wantErr: ignerrors.ErrDuplicateSignal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			var lastErr error
			for _, s := range tt.signals {
				lastErr = r.Register(s)
			}

			if tt.wantErr == nil {
				if lastErr != nil {
					t.Fatalf("Register() = %v, want nil", lastErr)
				}
				return
			}

			if lastErr == nil {
				t.Fatalf("Register() = nil, want error wrapping %v", tt.wantErr)
			}
			if !errors.Is(lastErr, tt.wantErr) {
				t.Fatalf("Register() = %v, want error wrapping %v", lastErr, tt.wantErr)
			}
		})
	}
}

func TestRegistry_OrderPreserved(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		if err := r.Register(Signal{Name: name, Execute: noop}); err != nil {
			t.Fatalf("Register(%q) unexpected error: %v", name, err)
		}
	}

	got := r.Names()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_GetAndHas(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Signal{Name: "db", Execute: noop})

	if !r.Has("db") {
		t.Fatalf("Has(db) = false, want true")
	}
	if r.Has("missing") {
		t.Fatalf("Has(missing) = true, want false")
	}

	if _, ok := r.Get("missing"); ok {
		t.Fatalf("Get(missing) ok = true, want false")
	}
	if s, ok := r.Get("db"); !ok || s.Name != "db" {
		t.Fatalf("Get(db) = %v, %v; want db signal, true", s, ok)
	}
}
