// Package runner defines the execution backend seam: the strategy that
// takes a fully built command line and runs it. Backends are injected at
// construction time, never installed through package-level state, so one
// dispatcher's scripted backend can never leak into another's.
package runner

import (
	"context"

	"github.com/victoralfred/goshell/exitstatus"
)

// Op identifies which backend operation produced a call or result.
type Op string

const (
	// OpRun executes a command line for its exit status.
	OpRun Op = "run"

	// OpCapture executes a command line and collects its standard output.
	OpCapture Op = "capture"
)

// ExecResult is the canonical outcome of running a command line.
// It is produced once per invocation and never mutated afterwards.
type ExecResult struct {
	// OK reports whether the command ran and exited successfully.
	OK bool

	// Code is the exit code, or 1 when no code was observable.
	Code int
}

// Status returns the result as a canonical exit status.
func (r ExecResult) Status() exitstatus.Status {
	return exitstatus.Status{OK: r.OK, Code: r.Code}
}

// CaptureResult is the canonical outcome of capturing a command's output.
type CaptureResult struct {
	// OK reports whether the output pipe was opened, read, and released.
	// A command that runs but exits non-zero still captures OK; only a
	// pipe that could not be opened or read reports false.
	OK bool

	// Output is everything the command wrote to standard output. It is
	// meaningful only when OK is true.
	Output string
}

// Status returns the capture outcome as a canonical exit status.
func (r CaptureResult) Status() exitstatus.Status {
	if r.OK {
		return exitstatus.Status{OK: true, Code: 0}
	}
	return exitstatus.Failure()
}

// ExecFailure returns the conservative result reported when a command
// line never reached a real process: not OK, exit code 1.
func ExecFailure() ExecResult {
	f := exitstatus.Failure()
	return ExecResult{OK: f.OK, Code: f.Code}
}

// CaptureFailure returns the conservative capture result: not OK, no output.
func CaptureFailure() CaptureResult {
	return CaptureResult{OK: false}
}

// Backend runs built command lines. Run and Capture are independently
// replaceable strategies: each is a pure function of the command line to
// a result, reporting failure through the result rather than panicking.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Run executes the command line and reports its exit status.
	Run(ctx context.Context, line string) ExecResult

	// Capture executes the command line and collects its standard output.
	Capture(ctx context.Context, line string) CaptureResult
}

// Placer is implemented by backends that can derive a variant bound to a
// specific environment and working directory. Place returns the derived
// backend; the receiver is unchanged. Backends without it run every line
// in their construction-time environment.
type Placer interface {
	Place(env map[string]string, dir string) Backend
}
