package validation

import (
	"context"
	"fmt"

	"github.com/victoralfred/goshell/cmdline"
)

// Program reports whether name may occupy the unquoted program position
// of a command line: the same check cmdline.Build applies. Empty names,
// shell metacharacters and whitespace are rejected with an error naming
// the offending character. A nil return means the name is safe.
//
// Unsafe names are rejected, never quoted.
func Program(name string) error {
	return cmdline.ValidateProgram(name)
}

// ProgramValue is Program for input of unknown type. Anything that is
// not a string fails with ErrNotText. It never panics, whatever v holds.
func ProgramValue(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: program name must be a string, got %T", ErrNotText, v)
	}
	return Program(s)
}

// ProgramValidator is the registry form of Program. It runs first so a
// bad program name is reported before any argument-level findings.
type ProgramValidator struct{}

// NewProgramValidator creates a new program name validator.
func NewProgramValidator() *ProgramValidator {
	return &ProgramValidator{}
}

// Name returns the validator name.
func (v *ProgramValidator) Name() string {
	return "program_validator"
}

// Priority returns the execution priority.
func (v *ProgramValidator) Priority() int {
	return 10
}

// Validate validates the command's program name.
func (v *ProgramValidator) Validate(_ context.Context, cmd *cmdline.Command) error {
	return Program(cmd.Program)
}
