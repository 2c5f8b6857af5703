// Package goshell provides safe construction and dispatch of shell command lines.
//
// GoShell is a production-grade Go library that centralizes shell-command
// construction behind a minimal API. Program names are validated against a
// metacharacter denylist, arguments are always single-quoted, and execution
// goes through an injected backend with ruleset checks, rate limiting,
// circuit breaking, hooks, and audit around every dispatch.
//
// # Key Features
//
//   - Single-quote escaping that keeps every argument a literal token
//   - Program-position validation: unsafe names are rejected, never quoted
//   - Injected execution backends: the host shell in production, a scripted
//     backend in tests
//   - Canonical (ok, exit code) results; execution failure is a result,
//     never an error
//   - Rules-as-code configuration via YAML for auditable dispatch rules
//   - OpenTelemetry integration for metrics and tracing
//   - Rate limiting and circuit breaker for resilience
//
// # Basic Usage
//
//	line, _ := goshell.Build("ls", "-la", "/tmp")
//	// line == `ls '-la' '/tmp'`
//
//	d := goshell.New()
//	defer d.Shutdown(context.Background())
//
//	result, err := d.RunProgram(ctx, "git", "status")
//
// # With Dispatch Rules
//
//	loader, _ := goshell.LoadRules("/etc/goshell", "rules.yaml")
//	rules, _ := loader.Load(ctx)
//
//	d := goshell.New(
//	    goshell.WithRules(rules),
//	    goshell.WithDefaultTimeout(30*time.Second),
//	)
//
// # Quoting Model
//
// Arguments are wrapped in single quotes with embedded quotes rewritten as
// '\'', so the shell hands each argument to the program as one literal
// token. Metacharacters, globs, and whitespace inside arguments carry no
// meaning. The program position is never quoted: a program name containing
// shell syntax is a caller bug and is rejected with an error.
//
// # File I/O
//
// All file operations use github.com/victoralfred/gowritter/safepath
// for secure path handling. Direct use of os.ReadFile, os.WriteFile,
// os.Open, os.Create, or io/ioutil is prohibited within this library.
//
// # Package Structure
//
//   - goshell: Main entry point and convenience functions
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
package goshell
