package validation

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	// ErrNotText indicates a value that was expected to be textual.
	ErrNotText = errors.New("value is not text")

	// ErrNotSequence indicates a container that was expected to be a
	// sequence (slice or array).
	ErrNotSequence = errors.New("value is not a sequence")

	// ErrArgumentNotAllowed indicates an argument rejected by the
	// configured argument constraints.
	ErrArgumentNotAllowed = errors.New("argument not allowed")

	// ErrKindMismatch indicates a value of the wrong kind.
	ErrKindMismatch = errors.New("value kind mismatch")
)

// ValidationError carries the context of a single failed check.
type ValidationError struct {
	// Field names what was being validated ("program", "args[2]", ...).
	Field string

	// Value is the offending value, rendered for messages.
	Value string

	// Rule names the check that failed.
	Rule string

	// Err is the underlying sentinel.
	Err error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s %q: %v", e.Rule, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Rule, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *ValidationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
