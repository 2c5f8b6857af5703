// Package validation provides the input checks that guard command
// construction: program names, argument containers, and generic
// value-kind checks for callers that accumulate several at once.
package validation

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/victoralfred/goshell/cmdline"
)

// Validator is one named admission check run against a command before it
// is dispatched.
type Validator interface {
	// Name identifies the validator in error messages.
	Name() string

	// Validate reports why the command must be refused, nil to admit.
	Validate(ctx context.Context, cmd *cmdline.Command) error

	// Priority orders execution, lower running earlier.
	Priority() int
}

// Registry holds the validators a dispatcher consults, in run order.
type Registry struct {
	mu         sync.RWMutex
	validators []Validator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a validator, keeping the run order sorted by priority.
// Validators with equal priority run in registration order.
func (r *Registry) Register(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.validators = append(r.validators, v)
	slices.SortStableFunc(r.validators, func(a, b Validator) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
}

// Unregister removes the first validator registered under name, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.validators, func(v Validator) bool {
		return v.Name() == name
	})
	if i >= 0 {
		r.validators = slices.Delete(r.validators, i, i+1)
	}
}

// ValidateAll runs every registered validator against the command. It
// does not stop at the first failure: one refusal carries everything the
// validators found, each finding prefixed with its validator's name.
func (r *Registry) ValidateAll(ctx context.Context, cmd *cmdline.Command) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, v := range r.validators {
		if err := v.Validate(ctx, cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Name(), err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &Errors{Errors: errs}
}

// Errors aggregates the findings of one ValidateAll pass.
type Errors struct {
	Errors []error
}

// Error renders a single finding verbatim and summarizes several.
func (e *Errors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap exposes every finding, so errors.Is and errors.As see through
// the aggregation no matter which validator produced the match.
func (e *Errors) Unwrap() []error {
	return e.Errors
}

// DefaultRegistry returns a registry holding the program name and
// argument validators every dispatcher starts from.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewProgramValidator())
	r.Register(NewArgumentValidator(nil))
	return r
}
