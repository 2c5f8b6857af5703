package cmdline

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Command represents a command to be built into a shell line. Once
// built it is shared read-only; use Clone to derive variants.
type Command struct {
	// Program is the program identifier. It occupies the unquoted first
	// position of the built line, so it must pass ValidateProgram.
	Program string

	// Args are the command arguments. Each one is single-quoted in the
	// built line, so arbitrary bytes are safe here (NUL excepted).
	Args []string

	// Env is extra environment for the command. Nil falls back to the
	// backend's minimal baseline.
	Env map[string]string

	// WorkingDir is where the interpreter starts. Empty inherits the
	// backend's directory.
	WorkingDir string

	// Timeout bounds the dispatch. Zero defers to the dispatcher
	// default.
	Timeout time.Duration

	// Metadata rides along into audit records and spans.
	Metadata map[string]string
}

// Builder provides a fluent API for constructing commands.
type Builder struct {
	cmd *Command
	err error
}

// NewBuilder creates a new Builder with the specified program and arguments.
func NewBuilder(program string, args ...string) *Builder {
	return &Builder{
		cmd: &Command{
			Program:  program,
			Args:     args,
			Env:      make(map[string]string),
			Metadata: make(map[string]string),
		},
	}
}

// WithArgs appends arguments.
func (b *Builder) WithArgs(args ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.cmd.Args = append(b.cmd.Args, args...)
	return b
}

// WithValues appends arguments coerced from arbitrary values.
func (b *Builder) WithValues(args ...interface{}) *Builder {
	if b.err != nil {
		return b
	}
	for _, arg := range args {
		b.cmd.Args = append(b.cmd.Args, fmt.Sprint(arg))
	}
	return b
}

// WithWorkingDir sets the working directory.
func (b *Builder) WithWorkingDir(dir string) *Builder {
	if b.err != nil {
		return b
	}
	b.cmd.WorkingDir = dir
	return b
}

// WithTimeout sets the execution timeout.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if timeout <= 0 {
		b.err = fmt.Errorf("%w: timeout must be positive", ErrInvalidCommand)
		return b
	}
	b.cmd.Timeout = timeout
	return b
}

// WithEnv adds an environment variable.
func (b *Builder) WithEnv(key, value string) *Builder {
	if b.err != nil {
		return b
	}
	b.cmd.Env[key] = value
	return b
}

// WithEnvMap adds multiple environment variables.
func (b *Builder) WithEnvMap(env map[string]string) *Builder {
	if b.err != nil {
		return b
	}
	maps.Copy(b.cmd.Env, env)
	return b
}

// WithMetadata attaches a key that rides into audit records and spans.
func (b *Builder) WithMetadata(key, value string) *Builder {
	if b.err != nil {
		return b
	}
	b.cmd.Metadata[key] = value
	return b
}

// Build validates the program name and returns the command.
// Validation failures are returned as errors, never raised.
func (b *Builder) Build() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}

	if err := ValidateProgram(b.cmd.Program); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProgram, err)
	}

	return b.cmd, nil
}

// MustBuild is Build for known-good program names; it panics instead of
// returning the error. An invalid name reaching it is a programming
// defect: callers holding untrusted names must check them with
// ValidateProgram first, or call Build to receive the error instead.
func (b *Builder) MustBuild() *Command {
	cmd, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cmd
}

// Line returns the built command line for the command: the program
// followed by each argument quoted with Quote, space separated.
func (c *Command) Line() string {
	return Join(c.Program, c.Args)
}

// Clone returns a deep copy sharing no state with the original. Nil
// maps and slices stay nil.
func (c *Command) Clone() *Command {
	clone := *c
	clone.Args = slices.Clone(c.Args)
	clone.Env = maps.Clone(c.Env)
	clone.Metadata = maps.Clone(c.Metadata)
	return &clone
}

// String returns the built command line.
func (c *Command) String() string {
	return c.Line()
}

// Build assembles a command line from a program name and arguments.
// The program is validated with ValidateProgram; each argument is quoted
// with Quote. With no arguments the program is returned unchanged.
//
// Arguments are not independently validated here: quoting makes any byte
// sequence safe. Callers that accept untrusted argument containers should
// run validation.ArgValues first.
func Build(program string, args ...string) (string, error) {
	if err := ValidateProgram(program); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidProgram, err)
	}
	return Join(program, args), nil
}

// MustBuild is Build that panics on an invalid program name.
// It is the fail-fast construction path; see Builder.MustBuild for the
// contract.
func MustBuild(program string, args ...string) string {
	line, err := Build(program, args...)
	if err != nil {
		panic(err)
	}
	return line
}
