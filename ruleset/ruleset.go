// Package ruleset provides YAML rules-as-code for command dispatch:
// which programs may run, with what arguments, and under what timeout.
package ruleset

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/victoralfred/goshell/cmdline"
	"github.com/victoralfred/goshell/dispatch"
)

// CompiledRule is the evaluated form of one program rule, with effective
// limits resolved against the ruleset defaults.
type CompiledRule struct {
	// Name is the rule's program name or wildcard pattern.
	Name string

	// Enabled indicates if the program may dispatch at all.
	Enabled bool

	// MaxArgs caps the argument count. Zero means no cap.
	MaxArgs int

	// MaxArgLength caps the byte length of one argument. Zero means no cap.
	MaxArgLength int64

	// DeniedSubstrings refuse any argument containing one of them.
	DeniedSubstrings []string

	// Timeout is the dispatch timeout for this program.
	Timeout time.Duration

	// pattern is the compiled wildcard matcher; nil for exact names.
	pattern *regexp.Regexp
}

// matches reports whether the rule covers the program name.
func (r *CompiledRule) matches(program string) bool {
	if r.pattern != nil {
		return r.pattern.MatchString(program)
	}
	return r.Name == program
}

// Compiled is a validated, indexed ruleset ready for evaluation.
type Compiled struct {
	raw       *Config
	version   string
	hash      string
	index     map[string]*CompiledRule
	wildcards []*CompiledRule
	defaults  Defaults
	loadedAt  time.Time
	mu        sync.RWMutex
}

// Compile builds an evaluable ruleset from configuration. Exact program
// names are indexed; wildcard names are kept in declaration order and
// the first match wins.
func Compile(config *Config) (*Compiled, error) {
	c := &Compiled{
		raw:      config,
		version:  config.Version,
		index:    make(map[string]*CompiledRule),
		defaults: config.Defaults,
		loadedAt: time.Now(),
	}

	for i := range config.Programs {
		pr := &config.Programs[i]

		rule := &CompiledRule{
			Name:             pr.Name,
			Enabled:          pr.Enabled,
			MaxArgs:          pr.MaxArgs,
			MaxArgLength:     pr.MaxArgLength.Bytes,
			DeniedSubstrings: pr.DeniedSubstrings,
			Timeout:          pr.Timeout.Duration,
		}

		// Resolve effective limits against the defaults.
		if rule.MaxArgs == 0 {
			rule.MaxArgs = config.Defaults.MaxArgs
		}
		if rule.MaxArgLength == 0 {
			rule.MaxArgLength = config.Defaults.MaxArgLength.Bytes
		}
		if rule.Timeout == 0 {
			rule.Timeout = config.Defaults.Timeout.Duration
		}

		if strings.Contains(pr.Name, "*") {
			pattern, err := compileWildcard(pr.Name)
			if err != nil {
				return nil, fmt.Errorf("compiling rule for %s: %w", pr.Name, err)
			}
			rule.pattern = pattern
			c.wildcards = append(c.wildcards, rule)
		} else {
			c.index[pr.Name] = rule
		}
	}

	return c, nil
}

// compileWildcard converts a wildcard name to an anchored matcher, with
// '*' matching any sequence.
func compileWildcard(name string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(name)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	return regexp.Compile("^" + escaped + "$")
}

// Evaluate implements dispatch.Rules.
func (c *Compiled) Evaluate(_ context.Context, cmd *cmdline.Command) (*dispatch.Verdict, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	verdict := &dispatch.Verdict{Allowed: true, Version: c.version}

	rule, ok := c.lookup(cmd.Program)
	if !ok {
		if c.defaults.AllowUnlisted {
			// Unlisted programs still honor the default argument limits.
			if violations := checkArgs(cmd.Args, c.defaults.MaxArgs, c.defaults.MaxArgLength.Bytes, nil); len(violations) > 0 {
				verdict.Allowed = false
				verdict.Reason = "argument validation failed"
				verdict.Violations = violations
			}
			return verdict, nil
		}

		verdict.Allowed = false
		verdict.Reason = "program not in ruleset"
		verdict.Violations = append(verdict.Violations, dispatch.Violation{
			Code:     "PROGRAM_NOT_ALLOWED",
			Field:    "program",
			Message:  fmt.Sprintf("program %s is not in the ruleset", cmd.Program),
			Severity: dispatch.SeverityError,
		})
		return verdict, nil
	}

	if !rule.Enabled {
		verdict.Allowed = false
		verdict.Reason = "program is disabled"
		verdict.Violations = append(verdict.Violations, dispatch.Violation{
			Code:     "PROGRAM_DISABLED",
			Field:    "program",
			Message:  fmt.Sprintf("program %s is disabled in the ruleset", cmd.Program),
			Severity: dispatch.SeverityError,
		})
		return verdict, nil
	}

	if violations := checkArgs(cmd.Args, rule.MaxArgs, rule.MaxArgLength, rule.DeniedSubstrings); len(violations) > 0 {
		verdict.Allowed = false
		verdict.Reason = "argument validation failed"
		verdict.Violations = violations
	}

	return verdict, nil
}

// checkArgs applies the argument constraints and collects violations.
func checkArgs(args []string, maxArgs int, maxArgLength int64, denied []string) []dispatch.Violation {
	var violations []dispatch.Violation

	if maxArgs > 0 && len(args) > maxArgs {
		violations = append(violations, dispatch.Violation{
			Code:     "TOO_MANY_ARGS",
			Field:    "args",
			Message:  fmt.Sprintf("%d arguments exceed the limit of %d", len(args), maxArgs),
			Severity: dispatch.SeverityError,
		})
	}

	for i, arg := range args {
		if maxArgLength > 0 && int64(len(arg)) > maxArgLength {
			violations = append(violations, dispatch.Violation{
				Code:     "ARG_TOO_LONG",
				Field:    fmt.Sprintf("args[%d]", i),
				Message:  fmt.Sprintf("argument of %d bytes exceeds the limit of %d", len(arg), maxArgLength),
				Severity: dispatch.SeverityError,
			})
		}

		for _, sub := range denied {
			if strings.Contains(arg, sub) {
				violations = append(violations, dispatch.Violation{
					Code:     "ARG_DENIED",
					Field:    fmt.Sprintf("args[%d]", i),
					Message:  fmt.Sprintf("argument contains denied substring %q", sub),
					Severity: dispatch.SeverityError,
				})
			}
		}
	}

	return violations
}

// lookup finds the rule covering a program: exact names first, then
// wildcards in declaration order.
func (c *Compiled) lookup(program string) (*CompiledRule, bool) {
	if rule, ok := c.index[program]; ok {
		return rule, true
	}
	for _, rule := range c.wildcards {
		if rule.matches(program) {
			return rule, true
		}
	}
	return nil, false
}

// Rule returns the rule covering a program, if any.
func (c *Compiled) Rule(program string) (*CompiledRule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(program)
}

// Version returns the ruleset version for audit purposes.
func (c *Compiled) Version() string {
	return c.version
}

// Hash returns the content hash of the loaded ruleset file, when the
// ruleset came from a loader.
func (c *Compiled) Hash() string {
	return c.hash
}

// DefaultTimeout returns the ruleset's default dispatch timeout.
func (c *Compiled) DefaultTimeout() time.Duration {
	return c.defaults.Timeout.Duration
}

// TimeoutFor returns the effective timeout for a program: its rule's
// timeout when one is set, the ruleset default otherwise.
func (c *Compiled) TimeoutFor(program string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if rule, ok := c.lookup(program); ok && rule.Timeout > 0 {
		return rule.Timeout
	}
	return c.defaults.Timeout.Duration
}

// Shell returns the interpreter override, empty when the ruleset does
// not set one.
func (c *Compiled) Shell() string {
	return c.defaults.Shell
}

var _ dispatch.Rules = (*Compiled)(nil)

// Permissive returns a ruleset that allows everything.
// WARNING: Only use for testing.
func Permissive() dispatch.Rules {
	return &permissive{}
}

type permissive struct{}

func (p *permissive) Evaluate(_ context.Context, _ *cmdline.Command) (*dispatch.Verdict, error) {
	return &dispatch.Verdict{Allowed: true, Version: "permissive"}, nil
}
