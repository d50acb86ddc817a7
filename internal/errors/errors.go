// Package errors provides sentinel errors, structured error details and exit
// codes for tk.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error taxonomy. Every error returned by the loader
// and export pipeline wraps exactly one of these.
var (
	// ErrConfig indicates an unresolvable root/base, a missing entrypoint or
	// spec file, or an invalid option value.
	ErrConfig = errors.New("configuration error")

	// ErrNotFound indicates a file or environment was not found.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous indicates zero or several environments matched where
	// exactly one was required.
	ErrAmbiguous = errors.New("ambiguous environment")

	// ErrEvaluation indicates the Jsonnet evaluator failed.
	ErrEvaluation = errors.New("evaluation error")

	// ErrValidation indicates a manifest or environment failed validation.
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates an export target already exists.
	ErrConflict = errors.New("conflict")
)

// Exit codes returned by the tk binary.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitValidationError = 2
	ExitConfigError     = 3
	ExitEvaluationError = 4
	ExitNotFound        = 5
	ExitConflict        = 6
)

// DetailError captures structured error information.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file path (optional).
	Location string

	// Field is the field name for schema errors (optional).
	Field string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString(e.Type)
	b.WriteString(": ")
	b.WriteString(e.Message)

	if e.Location != "" {
		b.WriteString("\n  Location: ")
		b.WriteString(e.Location)
	}
	if e.Field != "" {
		b.WriteString("\n  Field: ")
		b.WriteString(e.Field)
	}
	for k, v := range e.Context {
		b.WriteString("\n  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
	}
	if e.Hint != "" {
		b.WriteString("\n\nHint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a configuration error with details.
func NewConfigError(message, location, hint string) error {
	return &DetailError{
		Type:     "invalid configuration",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrConfig,
	}
}

// NewConflictError creates a conflict error for an export target.
func NewConflictError(message, location string) error {
	return &DetailError{
		Type:     "conflict",
		Message:  message,
		Location: location,
		Hint:     "Pass a different --merge-strategy or export into an empty directory",
		Cause:    ErrConflict,
	}
}

// ExitError wraps an error with an exit code.
type ExitError struct {
	// Code is the process exit code.
	Code int
	// Err is the underlying error.
	Err error
	// Printed indicates the error was already printed by the command layer.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrValidation):
		return ExitValidationError
	case errors.Is(err, ErrConfig), errors.Is(err, ErrAmbiguous):
		return ExitConfigError
	case errors.Is(err, ErrEvaluation):
		return ExitEvaluationError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrConflict):
		return ExitConflict
	default:
		return ExitGeneralError
	}
}
