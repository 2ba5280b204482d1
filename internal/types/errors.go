package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Callers never see library-internal error types; everything
// crossing the engine boundary is one of these three.
//
//   - InputError: caller-supplied data invalid. No retry.
//   - DependencyError: external service (embedding/completion/search) failed
//     or timed out. Retried with bounded backoff at the analyzer level.
//   - ProcessingError: the query cannot produce a result (all personas
//     failed, consensus over zero inputs). Fatal for the query.

// InputError reports invalid caller-supplied data.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// NewInputError constructs an InputError for the given field.
func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// DependencyError reports a failure of an external collaborator.
type DependencyError struct {
	Service string // "embedding", "completion", "search"
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s failed: %v", e.Service, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// NewDependencyError wraps an external service failure.
func NewDependencyError(service string, err error) *DependencyError {
	return &DependencyError{Service: service, Err: err}
}

// IsDependencyError reports whether err is (or wraps) a DependencyError.
func IsDependencyError(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}

// PersonaFailure records one persona's typed failure for diagnostics.
type PersonaFailure struct {
	Persona string `json:"persona"`
	Stage   string `json:"stage"`
	Err     error  `json:"-"`
}

func (f PersonaFailure) String() string {
	return fmt.Sprintf("%s[%s]: %v", f.Persona, f.Stage, f.Err)
}

// ProcessingError reports a query-fatal condition with the per-persona
// failure reasons attached for diagnosis.
type ProcessingError struct {
	Reason   string
	Failures []PersonaFailure
}

func (e *ProcessingError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("processing failed: %s", e.Reason)
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("processing failed: %s (%s)", e.Reason, strings.Join(parts, "; "))
}

// NewProcessingError constructs a ProcessingError.
func NewProcessingError(reason string, failures []PersonaFailure) *ProcessingError {
	return &ProcessingError{Reason: reason, Failures: failures}
}

// IsProcessingError reports whether err is (or wraps) a ProcessingError.
func IsProcessingError(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe)
}
