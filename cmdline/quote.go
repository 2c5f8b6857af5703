// Package cmdline builds shell command lines that a POSIX-compatible
// interpreter parses as exactly the tokens the caller supplied.
package cmdline

import (
	"fmt"
	"strings"
)

// Quote wraps a value in single quotes so the shell treats it as one
// literal token. Every embedded single quote becomes the four-character
// sequence '\'' (close quote, escaped literal quote, reopen quote). No
// other byte is touched: newlines, tabs, $, backticks and globs all pass
// through literally inside POSIX single quotes.
//
// The result is always wrapped, even for empty or alphanumeric input.
// Quote is not idempotent: quoting twice quotes the quote characters.
//
// NUL bytes pass through unescaped. Shell behavior around embedded NUL
// is undefined and this layer does not attempt to fix it.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteValue coerces v to its textual representation and quotes it.
// Strings pass through unchanged before quoting.
func QuoteValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return Quote(s)
	}
	return Quote(fmt.Sprint(v))
}

// Join assembles a command line from a program name and its arguments.
// The program is emitted unquoted and unchanged; each argument is quoted
// with Quote and appended with a single space separator. With no
// arguments the program is returned as-is.
//
// Join does not validate the program. The program position is never
// quoted, so callers must reject unsafe names first (ValidateProgram);
// Build and the Builder do this for you.
func Join(program string, args []string) string {
	if len(args) == 0 {
		return program
	}

	var sb strings.Builder
	sb.WriteString(program)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(Quote(arg))
	}
	return sb.String()
}

// JoinValues is Join for untyped arguments: each element is coerced to
// its textual representation before quoting.
func JoinValues(program string, args []interface{}) string {
	if len(args) == 0 {
		return program
	}

	var sb strings.Builder
	sb.WriteString(program)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(QuoteValue(arg))
	}
	return sb.String()
}
