package validation

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/victoralfred/goshell/cmdline"
)

// Args reports whether a typed argument slice may be handed to the
// command builder. Every element of a []string is textual and every
// argument is quoted whole, so there is nothing to reject here: Args
// always returns nil. It exists for API symmetry with ArgValues, which
// carries the real checks for untyped containers; size and content
// constraints are layered on top by ArgumentValidator.
func Args([]string) error {
	return nil
}

// ArgValues is Args for an argument container of unknown type. It fails
// when args is not a sequence (slice or array), or when any element is
// not a string. Only the sequence portion of a container is examined: a
// map is not a sequence and is rejected as such, without any inspection
// of its keys.
func ArgValues(args any) error {
	rv := reflect.ValueOf(args)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return fmt.Errorf("%w: got %T", ErrNotSequence, args)
	}

	for i := 0; i < rv.Len(); i++ {
		if err := Check(rv.Index(i).Interface(), KindString, fmt.Sprintf("args[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// ArgumentConfig configures the argument validator.
type ArgumentConfig struct {
	// MaxArgs caps the number of arguments per command.
	MaxArgs int

	// MaxArgLength caps the byte length of a single argument.
	MaxArgLength int

	// AllowNUL permits embedded NUL bytes. Quoting passes NUL through
	// unescaped and shell behavior around it is undefined, so the
	// default is to reject it here.
	AllowNUL bool
}

// ArgumentValidator applies configured size and content constraints to
// command arguments. Shell metacharacters are deliberately not on its
// list: arguments are quoted whole, so they reach the program as literal
// text.
type ArgumentValidator struct {
	config *ArgumentConfig
}

// NewArgumentValidator creates a new argument validator.
func NewArgumentValidator(config *ArgumentConfig) *ArgumentValidator {
	if config == nil {
		config = &ArgumentConfig{
			MaxArgs:      100,
			MaxArgLength: 4096,
		}
	}
	return &ArgumentValidator{config: config}
}

// Name returns the validator name.
func (v *ArgumentValidator) Name() string {
	return "argument_validator"
}

// Priority returns the execution priority.
func (v *ArgumentValidator) Priority() int {
	return 20
}

// Validate validates command arguments.
func (v *ArgumentValidator) Validate(_ context.Context, cmd *cmdline.Command) error {
	if v.config.MaxArgs > 0 && len(cmd.Args) > v.config.MaxArgs {
		return fmt.Errorf("%w: too many arguments (%d > %d)",
			ErrArgumentNotAllowed, len(cmd.Args), v.config.MaxArgs)
	}

	for i, arg := range cmd.Args {
		if err := v.validateArgument(arg, i); err != nil {
			return err
		}
	}

	return nil
}

// validateArgument validates a single argument.
func (v *ArgumentValidator) validateArgument(arg string, position int) error {
	if v.config.MaxArgLength > 0 && len(arg) > v.config.MaxArgLength {
		return fmt.Errorf("%w: argument %d too long (%d > %d)",
			ErrArgumentNotAllowed, position, len(arg), v.config.MaxArgLength)
	}

	if !v.config.AllowNUL && strings.ContainsRune(arg, 0) {
		return fmt.Errorf("%w: argument %d contains null byte",
			ErrArgumentNotAllowed, position)
	}

	return nil
}

var (
	_ Validator = (*ProgramValidator)(nil)
	_ Validator = (*ArgumentValidator)(nil)
)
