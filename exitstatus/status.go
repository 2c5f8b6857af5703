// Package exitstatus reduces the shapes a process exit report can take
// to one canonical (ok, code) pair.
//
// Host execution facilities disagree about what they return: some hand
// back a bare exit code, others a (success, reason, code) triple, and a
// few nothing usable at all. Everything downstream of this package works
// with Status and nothing else.
package exitstatus

import "fmt"

// Status is the canonical exit report: whether the command succeeded and
// the numeric exit code behind that answer.
type Status struct {
	// OK is true only for an observed, successful exit.
	OK bool

	// Code is the process exit code, or 1 when no code was observable.
	Code int
}

// String renders the status for logs.
func (s Status) String() string {
	return fmt.Sprintf("ok=%t code=%d", s.OK, s.Code)
}

// Failure is the conservative fallback: not ok, exit code 1. Normalize
// returns it for any report it cannot read as an observed exit.
func Failure() Status {
	return Status{OK: false, Code: 1}
}

// FromCode maps a plain exit code to a Status: ok exactly when the code
// is zero.
func FromCode(code int) Status {
	return Status{OK: code == 0, Code: code}
}

// Normalize reduces an exit report of unknown shape to a Status. It
// never guesses success: only a report it can positively read as a
// successful exit produces OK.
//
//   - Three or more values: the first is the success indicator (only a
//     literal true counts; nil, false and anything else do not), the
//     third is the exit code when numeric. A non-numeric third value
//     becomes 0 on success and 1 on failure.
//   - Exactly one numeric value: (code == 0, code).
//   - Exactly one boolean: (b, 0) or (b, 1).
//   - Anything else (an empty report, two values, unrecognized types)
//     is Failure().
func Normalize(report ...any) Status {
	switch {
	case len(report) >= 3:
		ok, _ := report[0].(bool)
		if code, isNum := numeric(report[2]); isNum {
			return Status{OK: ok, Code: code}
		}
		if ok {
			return Status{OK: true, Code: 0}
		}
		return Failure()

	case len(report) == 1:
		if code, isNum := numeric(report[0]); isNum {
			return FromCode(code)
		}
		if ok, isBool := report[0].(bool); isBool {
			if ok {
				return Status{OK: true, Code: 0}
			}
			return Failure()
		}
	}

	return Failure()
}

// numeric extracts an exit code from the numeric types a report might
// carry. Fractional floats are not exit codes and are rejected.
func numeric(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		if float32(int(n)) == n {
			return int(n), true
		}
	case float64:
		if float64(int(n)) == n {
			return int(n), true
		}
	}
	return 0, false
}
