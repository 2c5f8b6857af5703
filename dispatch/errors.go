package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for common refusal conditions.
var (
	// ErrRuleDenied indicates the command was denied by the ruleset.
	ErrRuleDenied = errors.New("command denied by ruleset")

	// ErrRateLimited indicates the rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrDispatcherShutdown indicates the dispatcher is shut down.
	ErrDispatcherShutdown = errors.New("dispatcher shut down")
)

// ErrorCode provides structured refusal classification.
type ErrorCode string

const (
	// ErrCodeValidationFailed marks refusals from the validator chain.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeRuleDenied marks refusals from the loaded ruleset.
	ErrCodeRuleDenied ErrorCode = "RULE_DENIED"

	// ErrCodeRateLimited marks dispatches shed by the rate limiter.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeCircuitOpen marks dispatches shed by an open circuit.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"

	// ErrCodeShutdown marks dispatches refused during shutdown.
	ErrCodeShutdown ErrorCode = "SHUTDOWN"

	// ErrCodeInternalError covers everything that carries no dispatch
	// code of its own.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// DispatchError provides detailed refusal information.
type DispatchError struct {
	// Op is the dispatch stage that refused.
	Op string

	// Program is the program being dispatched.
	Program string

	// Err is the refusal cause, matched by errors.Is.
	Err error

	// Code classifies the refusal for machine consumers.
	Code ErrorCode

	// Details is prose for humans reading logs.
	Details string

	// Suggestion tells the caller what might unblock a retry.
	Suggestion string

	// Retryable marks refusals that may clear on their own.
	Retryable bool
}

// Error renders the stage, the program, and the most specific cause
// available.
func (e *DispatchError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Program, e.Details)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Program, e.Err)
}

// Unwrap exposes the cause to the errors package.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is matches against the refusal cause.
func (e *DispatchError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// RuleViolationError carries the individual ruleset violations behind a
// denial.
type RuleViolationError struct {
	DispatchError
	Violations     []Violation
	RulesetVersion string
}

// Violation describes one specific ruleset violation.
type Violation struct {
	// Code is the machine-readable violation code.
	Code string

	// Field is the part of the command that violated the rule.
	Field string

	// Message is the human-readable finding.
	Message string

	// Severity grades how strongly the violation blocks dispatch.
	Severity Severity
}

// Severity grades ruleset violations.
type Severity int

const (
	// SeverityWarning is advisory; it does not block dispatch.
	SeverityWarning Severity = iota
	// SeverityError blocks the dispatch.
	SeverityError
	// SeverityCritical blocks the dispatch and warrants operator
	// attention.
	SeverityCritical
)

// String renders the severity for reports and logs.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// The constructors below keep every stage's refusals shaped the same
// way.

// NewRuleError builds the refusal for a ruleset denial, carrying the
// individual violations and the version of the ruleset that denied.
func NewRuleError(program, version string, violations []Violation) error {
	return &RuleViolationError{
		DispatchError: DispatchError{
			Op:        "rule_check",
			Program:   program,
			Err:       ErrRuleDenied,
			Code:      ErrCodeRuleDenied,
			Retryable: false,
		},
		Violations:     violations,
		RulesetVersion: version,
	}
}

// NewValidationError wraps a structural validation failure.
func NewValidationError(program string, err error) error {
	return &DispatchError{
		Op:        "validate",
		Program:   program,
		Err:       err,
		Code:      ErrCodeValidationFailed,
		Retryable: false,
	}
}

// NewRateLimitError reports that the program ran out of dispatch
// budget.
func NewRateLimitError(program string) error {
	return &DispatchError{
		Op:         "rate_limit",
		Program:    program,
		Err:        ErrRateLimited,
		Code:       ErrCodeRateLimited,
		Details:    "too many dispatches in a short window",
		Suggestion: "retry after a pause",
		Retryable:  true,
	}
}

// NewCircuitOpenError reports that the program's circuit is shedding
// dispatches.
func NewCircuitOpenError(program string) error {
	return &DispatchError{
		Op:         "circuit_breaker",
		Program:    program,
		Err:        ErrCircuitOpen,
		Code:       ErrCodeCircuitOpen,
		Details:    "recent dispatches kept failing; the circuit is open",
		Suggestion: "retry once the cool-down passes",
		Retryable:  true,
	}
}

// IsRetryable reports whether the refusal may clear if the caller tries
// again.
// RuleViolationError embeds DispatchError by value, so errors.As never
// reaches the embedded struct through it; the derived type is checked
// explicitly first here and in GetErrorCode.
func IsRetryable(err error) bool {
	var ruleErr *RuleViolationError
	if errors.As(err, &ruleErr) {
		return ruleErr.Retryable
	}
	var dispErr *DispatchError
	if errors.As(err, &dispErr) {
		return dispErr.Retryable
	}
	return false
}

// GetErrorCode classifies any error into an ErrorCode; errors that
// carry no dispatch code map to ErrCodeInternalError.
func GetErrorCode(err error) ErrorCode {
	var ruleErr *RuleViolationError
	if errors.As(err, &ruleErr) {
		return ruleErr.Code
	}
	var dispErr *DispatchError
	if errors.As(err, &dispErr) {
		return dispErr.Code
	}
	if errors.Is(err, ErrDispatcherShutdown) {
		return ErrCodeShutdown
	}
	return ErrCodeInternalError
}
