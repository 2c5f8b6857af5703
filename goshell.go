// Package goshell provides safe construction and dispatch of shell command lines.
//
// GoShell is a production-grade Go library that centralizes shell-command
// construction behind a minimal API. Program names are validated against a
// metacharacter denylist, arguments are always single-quoted, and execution
// goes through an injected backend with ruleset checks, rate limiting,
// circuit breaking, hooks, and audit around every dispatch.
//
// # Quick Start
//
// The simplest way to use goshell:
//
//	// Build a command line with every argument quoted
//	line, err := goshell.Build("ls", "-la", "/tmp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// line == `ls '-la' '/tmp'`
//
//	// Dispatch through a dispatcher with default settings
//	d := goshell.New()
//	defer d.Shutdown(context.Background())
//
//	result, err := d.RunProgram(ctx, "git", "status")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.OK, result.Code)
//
// # With Ruleset Configuration
//
// For production use, configure dispatch rules:
//
//	// Load rules from a YAML file
//	loader, err := goshell.LoadRules("/etc/goshell", "rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rules, err := loader.Load(ctx)
//
//	// Create a dispatcher that enforces them
//	d := goshell.New(
//	    goshell.WithRules(rules),
//	    goshell.WithDefaultTimeout(30*time.Second),
//	)
//
// # Quoting Model
//
// Every argument is wrapped in single quotes, with embedded single quotes
// rewritten as the sequence '\''. Inside POSIX single quotes no other byte
// is special, so whatever an argument holds reaches the program as one
// literal token. The program position is the one part of a built line that
// is never quoted: a program name containing shell syntax is rejected,
// never escaped.
//
// # Architecture
//
// The library is organized into focused packages:
//
//   - goshell (this package): Main entry point and convenience functions
//   - cmdline: Quoting and command-line construction
//   - validation: Program-name and argument validation
//   - exitstatus: Canonical (ok, code) exit reports
//   - runner: Execution backends (system shell, scripted)
//   - dispatch: Dispatcher with rules, resilience, hooks, and audit
//   - ruleset: YAML rules loading and evaluation
//   - resilience: Rate limiting and circuit breaker
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: Extension points for custom behavior
//   - config: Configuration management
//
// # Thread Safety
//
// All types in this package are safe for concurrent use by multiple goroutines.
// The Dispatcher can be shared across goroutines without additional
// synchronization.
//
// # File I/O
//
// All file operations in this library use github.com/victoralfred/gowritter/safepath
// for secure path handling and I/O operations.
package goshell

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/victoralfred/goshell/cmdline"
	"github.com/victoralfred/goshell/config"
	"github.com/victoralfred/goshell/dispatch"
	"github.com/victoralfred/goshell/exitstatus"
	"github.com/victoralfred/goshell/observability"
	"github.com/victoralfred/goshell/resilience"
	"github.com/victoralfred/goshell/ruleset"
	"github.com/victoralfred/goshell/runner"
	"github.com/victoralfred/goshell/validation"
)

// =============================================================================
// Core Types
// =============================================================================

// Dispatcher runs validated commands through an injected execution backend.
// All dispatch MUST go through it so admission checks are applied
// consistently.
//
// The Dispatcher provides:
//   - Exit-status dispatch with Run and RunProgram
//   - Output capture with Capture and CaptureProgram
//   - Concurrent batches with RunBatch
//   - Graceful shutdown with Shutdown
type Dispatcher = dispatch.Dispatcher

// Option configures a Dispatcher. Use New(opts...) to apply them.
type Option = dispatch.Option

// Command represents a command to be built into a shell line.
// Use Cmd() to create commands.
type Command = cmdline.Command

// Builder creates commands with a fluent interface.
type Builder = cmdline.Builder

// Report describes one dispatch from admission to settlement. It is what
// post-dispatch hooks and the audit log receive.
type Report = dispatch.Report

// ExecResult is the canonical outcome of running a command line.
type ExecResult = runner.ExecResult

// CaptureResult is the canonical outcome of capturing a command's output.
type CaptureResult = runner.CaptureResult

// Status is the canonical exit report: whether the command succeeded and
// the numeric exit code behind that answer.
type Status = exitstatus.Status

// Backend runs built command lines. Implement it to replace how lines are
// executed; runner.NewSystem is the production implementation and
// runner.NewScripted the test one.
type Backend = runner.Backend

// Verdict contains the outcome of a ruleset evaluation.
type Verdict = dispatch.Verdict

// Violation represents a single ruleset violation.
type Violation = dispatch.Violation

// Severity represents violation severity.
type Severity = dispatch.Severity

// Severity constants.
const (
	SeverityWarning  = dispatch.SeverityWarning
	SeverityError    = dispatch.SeverityError
	SeverityCritical = dispatch.SeverityCritical
)

// =============================================================================
// Ruleset Types
// =============================================================================

// RulesLoader loads and manages rulesets from YAML files.
type RulesLoader = ruleset.Loader

// RulesConfig represents a loaded ruleset configuration.
type RulesConfig = ruleset.Config

// CompiledRules is a compiled and ready-to-evaluate ruleset.
type CompiledRules = ruleset.Compiled

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrInvalidCommand indicates an invalid command configuration.
	ErrInvalidCommand = cmdline.ErrInvalidCommand

	// ErrInvalidProgram indicates the program name failed validation.
	ErrInvalidProgram = cmdline.ErrInvalidProgram

	// ErrEmptyProgram indicates an empty program name.
	ErrEmptyProgram = cmdline.ErrEmptyProgram

	// ErrMetacharacter indicates the program name contains a shell
	// metacharacter or whitespace.
	ErrMetacharacter = cmdline.ErrMetacharacter

	// ErrNotText indicates a value that was expected to be textual.
	ErrNotText = validation.ErrNotText

	// ErrNotSequence indicates an argument container that is not a
	// sequence.
	ErrNotSequence = validation.ErrNotSequence

	// ErrArgumentNotAllowed indicates an argument was denied.
	ErrArgumentNotAllowed = validation.ErrArgumentNotAllowed

	// ErrRuleDenied indicates the command was denied by the ruleset.
	ErrRuleDenied = dispatch.ErrRuleDenied

	// ErrRateLimited indicates the rate limit was exceeded.
	ErrRateLimited = dispatch.ErrRateLimited

	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = dispatch.ErrCircuitOpen

	// ErrDispatcherShutdown indicates the dispatcher has been shut down.
	ErrDispatcherShutdown = dispatch.ErrDispatcherShutdown
)

// =============================================================================
// Refusal Codes
// =============================================================================

// ErrorCode classifies a refused dispatch.
type ErrorCode = dispatch.ErrorCode

// Refusal code values.
const (
	ErrCodeValidationFailed = dispatch.ErrCodeValidationFailed
	ErrCodeRuleDenied       = dispatch.ErrCodeRuleDenied
	ErrCodeRateLimited      = dispatch.ErrCodeRateLimited
	ErrCodeCircuitOpen      = dispatch.ErrCodeCircuitOpen
	ErrCodeShutdown         = dispatch.ErrCodeShutdown
)

// =============================================================================
// Dispatcher Options
// =============================================================================

// Dispatcher options, re-exported so a dispatcher can be configured with a
// single import. See the dispatch package for details.
var (
	// WithBackend injects the execution backend.
	WithBackend = dispatch.WithBackend

	// WithValidators replaces the structural validator registry.
	WithValidators = dispatch.WithValidators

	// WithRules sets the ruleset.
	WithRules = dispatch.WithRules

	// WithRateLimiter sets the rate limiter.
	WithRateLimiter = dispatch.WithRateLimiter

	// WithCircuitBreaker sets the circuit breaker.
	WithCircuitBreaker = dispatch.WithCircuitBreaker

	// WithHooks adds dispatch hooks.
	WithHooks = dispatch.WithHooks

	// WithTelemetry sets the telemetry provider.
	WithTelemetry = dispatch.WithTelemetry

	// WithAudit sets the audit log.
	WithAudit = dispatch.WithAudit

	// WithDefaultTimeout sets the timeout applied to commands without one.
	WithDefaultTimeout = dispatch.WithDefaultTimeout
)

// =============================================================================
// Factory Functions
// =============================================================================

// New creates a Dispatcher. Without options it validates with the default
// registry and executes through the system backend running /bin/sh.
//
// Example:
//
//	d := goshell.New(
//	    goshell.WithRules(rules),
//	    goshell.WithDefaultTimeout(30*time.Second),
//	)
//	defer d.Shutdown(context.Background())
func New(opts ...Option) *Dispatcher {
	return dispatch.New(opts...)
}

// FromConfig assembles a Dispatcher from an aggregate configuration,
// constructing and wiring each enabled component: backend shell, argument
// limits, ruleset, rate limiter, circuit breaker, telemetry, and audit log.
//
// Example:
//
//	cfg := config.ProductionConfig()
//	d, err := goshell.FromConfig(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Shutdown(context.Background())
func FromConfig(cfg config.Config) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	var sysOpts []runner.SystemOption
	if cfg.Dispatcher.Shell != "" {
		sysOpts = append(sysOpts, runner.WithShell(cfg.Dispatcher.Shell))
	}

	registry := validation.NewRegistry()
	registry.Register(validation.NewProgramValidator())
	registry.Register(validation.NewArgumentValidator(&cfg.Arguments))

	opts := []Option{
		WithBackend(runner.NewSystem(sysOpts...)),
		WithValidators(registry),
		WithDefaultTimeout(cfg.Dispatcher.DefaultTimeout),
	}

	if cfg.Dispatcher.EnableRules {
		loader, err := ruleset.NewLoader(cfg.RulesBasePath, cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("creating ruleset loader: %w", err)
		}
		rules, err := loader.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading ruleset: %w", err)
		}
		opts = append(opts, WithRules(rules))
	}

	if cfg.Dispatcher.EnableRateLimit {
		opts = append(opts, WithRateLimiter(resilience.NewRateLimiter(cfg.RateLimiter)))
	}

	if cfg.Dispatcher.EnableCircuitBreaker {
		opts = append(opts, WithCircuitBreaker(resilience.NewCircuitBreaker(cfg.CircuitBreaker)))
	}

	if cfg.Dispatcher.EnableTelemetry {
		telemetry, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("creating telemetry: %w", err)
		}
		opts = append(opts, WithTelemetry(telemetry))
	}

	if cfg.Dispatcher.EnableAudit && cfg.Audit.Enabled {
		audit, err := observability.NewFileLog(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("creating audit log: %w", err)
		}
		opts = append(opts, WithAudit(audit))
	}

	return New(opts...), nil
}

// =============================================================================
// Command Construction
// =============================================================================

// Quote wraps a string in single quotes so the shell treats it as one
// literal token. Every embedded single quote becomes the sequence '\''.
// The result is always wrapped, even for empty or alphanumeric input, and
// quoting is not idempotent.
func Quote(s string) string {
	return cmdline.Quote(s)
}

// QuoteValue coerces a value to its textual representation and quotes it.
//
// Example:
//
//	goshell.QuoteValue(42)   // "'42'"
//	goshell.QuoteValue("hi") // "'hi'"
func QuoteValue(v interface{}) string {
	return cmdline.QuoteValue(v)
}

// Build assembles a command line from a program name and arguments. The
// program is validated and emitted unquoted; each argument is quoted.
//
// Example:
//
//	line, err := goshell.Build("git", "log", "--author=O'Brien")
//	// line == `git 'log' '--author=O'\''Brien'`
func Build(program string, args ...string) (string, error) {
	return cmdline.Build(program, args...)
}

// MustBuild is Build that panics on an invalid program name.
// Use only when the program name is known to be valid.
func MustBuild(program string, args ...string) string {
	return cmdline.MustBuild(program, args...)
}

// Cmd creates a new Builder with the specified program and arguments.
// Call Build() on the returned builder to get the final Command.
//
// Example:
//
//	cmd, err := goshell.Cmd("git", "status").WithTimeout(10 * time.Second).Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := d.Run(ctx, cmd)
func Cmd(program string, args ...string) *Builder {
	return cmdline.NewBuilder(program, args...)
}

// MustCmd creates a command and panics on error.
// Use only when the program name is known to be valid.
//
// Example:
//
//	cmd := goshell.MustCmd("ls", "-la")
func MustCmd(program string, args ...string) *Command {
	return cmdline.NewBuilder(program, args...).MustBuild()
}

// =============================================================================
// Ruleset Loading
// =============================================================================

// LoadRules creates a loader for a YAML ruleset file. The basePath is the
// directory containing the ruleset file; rulesFile is resolved inside it.
//
// Example rules.yaml:
//
//	version: "1.0"
//	defaults:
//	  timeout: 30s
//	  max_args: 64
//	programs:
//	  - name: git
//	    enabled: true
//	    denied_substrings: ["--exec", "--upload-pack"]
//
// Example:
//
//	loader, err := goshell.LoadRules("/etc/goshell", "rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rules, err := loader.Load(ctx)
func LoadRules(basePath, rulesFile string) (*RulesLoader, error) {
	return ruleset.NewLoader(basePath, rulesFile)
}

// LoadRulesWithValidation creates a ruleset loader with custom validators.
//
// Example:
//
//	loader, err := goshell.LoadRulesWithValidation(
//	    "/etc/goshell", "rules.yaml",
//	    ruleset.WithValidator(&ruleset.DefaultConfigValidator{}),
//	)
func LoadRulesWithValidation(basePath, rulesFile string, opts ...ruleset.LoaderOption) (*RulesLoader, error) {
	return ruleset.NewLoader(basePath, rulesFile, opts...)
}

// LoadRulesFromPath creates a ruleset loader from a full file path.
// This is a convenience function that splits the path into directory and filename.
//
// Example:
//
//	loader, err := goshell.LoadRulesFromPath("/etc/goshell/rules.yaml")
func LoadRulesFromPath(path string) (*RulesLoader, error) {
	dir := filepath.Dir(path)
	file := filepath.Base(path)
	return ruleset.NewLoader(dir, file)
}

// ExampleRules returns an example ruleset configuration.
// Use this as a starting point for creating your own rules.
func ExampleRules() *RulesConfig {
	return ruleset.ExampleRules()
}

// =============================================================================
// Validation
// =============================================================================

// ValidateProgram reports whether a name may occupy the unquoted program
// position of a command line. Unsafe names are rejected, never quoted.
func ValidateProgram(name string) error {
	return validation.Program(name)
}

// ValidateProgramValue is ValidateProgram for input of unknown type.
// Anything that is not a string fails with ErrNotText. It never panics.
func ValidateProgramValue(v any) error {
	return validation.ProgramValue(v)
}

// ValidateArgs validates a typed argument slice. Every element of a
// []string is textual and every argument is quoted whole, so this always
// returns nil; size and content limits are enforced by the dispatcher's
// argument validator.
func ValidateArgs(args []string) error {
	return validation.Args(args)
}

// ValidateArgValues validates an argument container of unknown type. It
// fails when the container is not a sequence or when any element is not
// a string.
func ValidateArgValues(args any) error {
	return validation.ArgValues(args)
}

// =============================================================================
// Exit Status
// =============================================================================

// Normalize reduces an exit report of unknown shape to a Status. It never
// guesses success: only a report it can positively read as a successful
// exit produces OK. See exitstatus.Normalize for the shape rules.
func Normalize(report ...any) Status {
	return exitstatus.Normalize(report...)
}

// FromCode maps a plain exit code to a Status: ok exactly when the code
// is zero.
func FromCode(code int) Status {
	return exitstatus.FromCode(code)
}

// =============================================================================
// Convenience Functions
// =============================================================================

// Run is a convenience function for one-off dispatch of a single command.
// For repeated dispatches, create a Dispatcher instance instead.
//
// Example:
//
//	result, err := goshell.Run(ctx, "ls", "-la")
func Run(ctx context.Context, program string, args ...string) (ExecResult, error) {
	d := New()
	defer func() {
		// Ignore shutdown errors in defer - cleanup failure doesn't affect result
		//nolint:errcheck // Shutdown errors are non-critical in cleanup context
		_ = d.Shutdown(context.Background())
	}()

	return d.RunProgram(ctx, program, args...)
}

// RunWithTimeout is a convenience function with an explicit timeout.
//
// Example:
//
//	result, err := goshell.RunWithTimeout(ctx, 30*time.Second, "ls", "-la")
func RunWithTimeout(ctx context.Context, timeout time.Duration, program string, args ...string) (ExecResult, error) {
	d := New(WithDefaultTimeout(timeout))
	defer func() {
		// Ignore shutdown errors in defer - cleanup failure doesn't affect result
		//nolint:errcheck // Shutdown errors are non-critical in cleanup context
		_ = d.Shutdown(context.Background())
	}()

	return d.RunProgram(ctx, program, args...)
}

// Capture is a convenience function for one-off capture of a command's
// standard output.
//
// Example:
//
//	result, err := goshell.Capture(ctx, "git", "rev-parse", "HEAD")
//	fmt.Println(result.Output)
func Capture(ctx context.Context, program string, args ...string) (CaptureResult, error) {
	d := New()
	defer func() {
		// Ignore shutdown errors in defer - cleanup failure doesn't affect result
		//nolint:errcheck // Shutdown errors are non-critical in cleanup context
		_ = d.Shutdown(context.Background())
	}()

	return d.CaptureProgram(ctx, program, args...)
}

// =============================================================================
// Version Information
// =============================================================================

// Version returns the library version.
func Version() string {
	return "1.0.0"
}

// =============================================================================
// Package Accessors
// =============================================================================

// These functions provide access to subpackage functionality.
// For advanced use cases, import the subpackages directly:
//
//   - github.com/victoralfred/goshell/cmdline       - Quoting & line construction
//   - github.com/victoralfred/goshell/validation    - Input validation
//   - github.com/victoralfred/goshell/exitstatus    - Exit-status normalization
//   - github.com/victoralfred/goshell/runner        - Execution backends
//   - github.com/victoralfred/goshell/dispatch      - Dispatcher & admission checks
//   - github.com/victoralfred/goshell/ruleset       - YAML ruleset loading
//   - github.com/victoralfred/goshell/resilience    - Rate limiting & circuit breaker
//   - github.com/victoralfred/goshell/observability - Metrics, tracing & audit
//   - github.com/victoralfred/goshell/hooks         - Extension points
//   - github.com/victoralfred/goshell/config        - Configuration
