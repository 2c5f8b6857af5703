package cmdline

import (
	"fmt"
	"strings"
)

// programDenylist holds the shell metacharacters that are never safe in
// the program position. The program is the one part of a built line that
// is not quoted, so a name containing any of these would be parsed by the
// shell as syntax rather than as the program to run.
const programDenylist = ";&|`$(){}[]<>!#~\"'\\"

// ValidateProgram reports whether name may occupy the unquoted program
// position of a command line. Unsafe names are rejected, never quoted: a
// program name containing shell syntax is a caller bug, not something to
// paper over with escaping.
//
// The empty string is rejected, as is any name containing a character
// from the metacharacter denylist or whitespace (space, tab, carriage
// return, newline). The returned error names the first offending
// character.
func ValidateProgram(name string) error {
	if name == "" {
		return ErrEmptyProgram
	}

	for _, r := range name {
		switch {
		case strings.ContainsRune(programDenylist, r):
			return fmt.Errorf("%w %q", ErrMetacharacter, r)
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			return fmt.Errorf("%w %q (whitespace)", ErrMetacharacter, r)
		}
	}

	return nil
}
