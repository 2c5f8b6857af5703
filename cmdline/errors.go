package cmdline

import "errors"

// Sentinel errors for command construction.
var (
	// ErrInvalidCommand indicates invalid command configuration.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidProgram indicates the program name failed validation.
	ErrInvalidProgram = errors.New("invalid program name")

	// ErrEmptyProgram indicates an empty program name.
	ErrEmptyProgram = errors.New("program name is empty")

	// ErrMetacharacter indicates the program name contains a shell
	// metacharacter or whitespace.
	ErrMetacharacter = errors.New("program name contains shell metacharacter")
)
