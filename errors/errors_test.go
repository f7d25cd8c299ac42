package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseBind,
				Kind:   KindTypeMismatch,
				Export: "memory",
				Detail: "expected memory, found function",
			},
			contains: []string{"[bind]", "type_mismatch", `export "memory"`, "expected memory"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseHost,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[host]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseFork,
				Kind:   KindTrap,
				Detail: "guest call failed",
				Cause:  errors.New("unreachable"),
			},
			contains: []string{"[fork]", "trap", "guest call failed", "caused by", "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseInstantiate,
		Kind:  KindInstantiation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseHost,
		Kind:   KindNotBound,
		Detail: "debug capability invoked before binding",
	}

	if !err.Is(&Error{Phase: PhaseHost, Kind: KindNotBound}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBind, Kind: KindNotBound}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseHost, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	wrapped := Wrap(PhaseRuntime, KindTrap, err, "call run")
	if !errors.Is(wrapped, &Error{Phase: PhaseHost, Kind: KindNotBound}) {
		t.Error("errors.Is should find the cause through Wrap")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLoad, KindTypeMismatch).
		Export("invoke").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "(i32,i64)->i64", "(i32)->i32").
		Build()

	if err.Phase != PhaseLoad {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseLoad)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if err.Export != "invoke" {
		t.Errorf("Export = %q, want invoke", err.Export)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected (i32,i64)->i64, got (i32)->i32" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseHost, 65530, 10, 65536)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if !strings.Contains(err.Detail, "[65530, 65540)") {
			t.Errorf("Detail = %q, should contain the range", err.Detail)
		}
	})

	t.Run("MissingExport", func(t *testing.T) {
		err := MissingExport(PhaseBind, "allocate")
		if err.Kind != KindMissingExport || err.Export != "allocate" {
			t.Errorf("got %v", err)
		}
	})

	t.Run("WrongKind", func(t *testing.T) {
		err := WrongKind(PhaseBind, "memory", "memory", "function")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
	})

	t.Run("NotBound", func(t *testing.T) {
		err := NotBound("fork")
		if err.Kind != KindNotBound || !strings.Contains(err.Detail, "fork") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("UnknownPID", func(t *testing.T) {
		err := UnknownPID(7)
		if err.Kind != KindUnknownPID || err.Value != uint32(7) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("StillRunning", func(t *testing.T) {
		err := StillRunning(3)
		if err.Kind != KindStillRunning {
			t.Errorf("Kind = %v, want %v", err.Kind, KindStillRunning)
		}
	})

	t.Run("DuplicatePID", func(t *testing.T) {
		err := DuplicatePID(1)
		if err.Kind != KindDuplicatePID {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDuplicatePID)
		}
	})

	t.Run("Trap", func(t *testing.T) {
		cause := errors.New("wasm error: unreachable")
		err := Trap(PhaseFork, "invoke", cause)
		if err.Kind != KindTrap || !errors.Is(err, err) || errors.Unwrap(err) != cause {
			t.Errorf("got %v", err)
		}
	})
}

func TestMissingImportsError(t *testing.T) {
	t.Run("single import", func(t *testing.T) {
		err := NewMissingImportsError([]string{"env#spawn"})
		if len(err.Imports) != 1 {
			t.Fatalf("expected 1 import, got %d", len(err.Imports))
		}
		if err.Imports[0].Namespace != "env" {
			t.Errorf("namespace = %q, want env", err.Imports[0].Namespace)
		}
		if err.Imports[0].Function != "spawn" {
			t.Errorf("function = %q, want spawn", err.Imports[0].Function)
		}
	})

	t.Run("multiple namespaces grouped", func(t *testing.T) {
		err := NewMissingImportsError([]string{
			"env#spawn",
			"wasi_snapshot_preview1#fd_write",
			"env#yield",
		})
		msg := err.Error()
		if !strings.Contains(msg, "missing 3 host function(s)") {
			t.Errorf("error should contain count, got: %s", msg)
		}
		if !strings.Contains(msg, "env:") || !strings.Contains(msg, "wasi_snapshot_preview1:") {
			t.Errorf("error should group by namespace, got: %s", msg)
		}
	})

	t.Run("empty imports", func(t *testing.T) {
		err := NewMissingImportsError([]string{})
		if !strings.Contains(err.Error(), "no imports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingImportsError([]string{"ns#fn"})
		if !errors.Is(err, &MissingImportsError{}) {
			t.Error("errors.Is should match MissingImportsError")
		}
		if !errors.Is(err, New(PhaseLoad, KindMissingImport).Build()) {
			t.Error("errors.Is should match a load-phase missing_import error")
		}
		if errors.Is(err, New(PhaseLoad, KindMissingExport).Build()) {
			t.Error("errors.Is should not match other kinds")
		}
	})
}
