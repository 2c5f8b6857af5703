package dispatch

import (
	"time"

	"github.com/victoralfred/goshell/exitstatus"
	"github.com/victoralfred/goshell/runner"
)

// Report describes one dispatch from admission to settlement. It is what
// post-dispatch hooks and the audit log receive; the caller-facing result
// stays the lean runner type.
type Report struct {
	// ID is the unique invocation id.
	ID string

	// Op is the backend operation that was requested.
	Op runner.Op

	// Program is the program named by the command.
	Program string

	// Line is the full built command line. Empty when the dispatch was
	// refused before the line was built.
	Line string

	// Status is the canonical outcome.
	Status exitstatus.Status

	// Output is the captured standard output, for capture dispatches.
	Output string

	// Refusal is the structured error code when the dispatch was refused
	// before execution, empty otherwise.
	Refusal ErrorCode

	// Err is the refusal or hook error, if any.
	Err error

	// Duration is the wall clock time spent executing the line.
	Duration time.Duration

	// Metadata is the command's tracing metadata.
	Metadata map[string]string
}

// Refused reports whether the dispatch was refused before execution.
func (r *Report) Refused() bool {
	return r.Refusal != ""
}

// StatusLabel is the low-cardinality outcome label used for telemetry
// and audit: "refused", "ok", or "failed".
func (r *Report) StatusLabel() string {
	if r.Refused() {
		return "refused"
	}
	if r.Status.OK {
		return "ok"
	}
	return "failed"
}
