package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	in := NewInputError("query", "must not be empty")
	dep := NewDependencyError("completion", errors.New("timeout"))
	proc := NewProcessingError("all personas failed", nil)

	tests := []struct {
		err                    error
		isInput, isDep, isProc bool
	}{
		{in, true, false, false},
		{dep, false, true, false},
		{proc, false, false, true},
		{errors.New("plain"), false, false, false},
		{nil, false, false, false},
	}
	for _, tt := range tests {
		if got := IsInputError(tt.err); got != tt.isInput {
			t.Errorf("IsInputError(%v) = %v, want %v", tt.err, got, tt.isInput)
		}
		if got := IsDependencyError(tt.err); got != tt.isDep {
			t.Errorf("IsDependencyError(%v) = %v, want %v", tt.err, got, tt.isDep)
		}
		if got := IsProcessingError(tt.err); got != tt.isProc {
			t.Errorf("IsProcessingError(%v) = %v, want %v", tt.err, got, tt.isProc)
		}
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewInputError("field", "bad"))
	if !IsInputError(wrapped) {
		t.Error("IsInputError should unwrap")
	}

	dep := NewDependencyError("search", errors.New("connection refused"))
	if got := errors.Unwrap(dep); got == nil || got.Error() != "connection refused" {
		t.Errorf("Unwrap = %v", got)
	}
}

func TestProcessingErrorMessage(t *testing.T) {
	err := NewProcessingError("all persona analyses failed", []PersonaFailure{
		{Persona: "legal", Stage: "analysis", Err: errors.New("model down")},
		{Persona: "financial", Stage: "analysis", Err: errors.New("timeout")},
	})
	msg := err.Error()
	for _, want := range []string{"all persona analyses failed", "legal[analysis]", "financial[analysis]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestInputErrorMessage(t *testing.T) {
	if got := NewInputError("query", "empty").Error(); got != "invalid input: query: empty" {
		t.Errorf("message = %q", got)
	}
	if got := NewInputError("", "empty").Error(); got != "invalid input: empty" {
		t.Errorf("message = %q", got)
	}
}
