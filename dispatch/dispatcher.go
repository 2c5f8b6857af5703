// Package dispatch runs validated commands through an injected execution
// backend, with ruleset checks, rate limiting, circuit breaking, hooks,
// and audit around every invocation.
//
// The dispatcher refuses before execution and reports after it: an error
// return means the command line never reached the backend; once the
// backend ran, the outcome travels in the result, never in the error.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/victoralfred/goshell/cmdline"
	"github.com/victoralfred/goshell/runner"
	"github.com/victoralfred/goshell/validation"
)

// DefaultTimeout bounds command lines that carry no timeout of their own.
const DefaultTimeout = 30 * time.Second

// Rules decides whether a command is allowed to dispatch.
type Rules interface {
	// Evaluate checks the command against the ruleset.
	Evaluate(ctx context.Context, cmd *cmdline.Command) (*Verdict, error)
}

// Verdict contains the outcome of a ruleset evaluation.
type Verdict struct {
	Reason     string
	Version    string
	Violations []Violation
	Allowed    bool
}

// RateLimiter controls dispatch rate.
type RateLimiter interface {
	// Allow checks if a dispatch is allowed right now.
	Allow(program string) bool
	// Wait blocks until a dispatch is allowed.
	Wait(ctx context.Context, program string) error
}

// CircuitBreaker sheds dispatches to repeatedly failing programs.
type CircuitBreaker interface {
	// Allow checks if a dispatch is allowed.
	Allow(program string) bool
	// RecordSuccess records a successful dispatch.
	RecordSuccess(program string)
	// RecordFailure records a failed dispatch.
	RecordFailure(program string)
}

// Hook defines extension points around a dispatch.
type Hook interface {
	// PreDispatch is called before admission checks. It may return a
	// rewritten command, or an error to veto the dispatch.
	PreDispatch(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error)
	// PostDispatch is called after the dispatch settles, including
	// refusals.
	PostDispatch(ctx context.Context, rep *Report) error
}

// Telemetry provides observability.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func())
	// RecordDispatch records a settled dispatch.
	RecordDispatch(op, program, status string, seconds float64)
	// RecordRefusal records a dispatch refused before execution.
	RecordRefusal(op, program, reason string)
}

// Audit persists a record per dispatch, refusals included.
type Audit interface {
	Record(ctx context.Context, rep *Report) error
}

// Dispatcher coordinates validation, rules, resilience, and the backend.
// Construct one with New; the zero value is not usable.
type Dispatcher struct {
	backend        runner.Backend
	validators     *validation.Registry
	rules          Rules
	rateLimiter    RateLimiter
	circuitBreaker CircuitBreaker
	telemetry      Telemetry
	audit          Audit
	hooks          []Hook
	wg             sync.WaitGroup
	mu             sync.RWMutex // protects shutdown check and wg.Add
	defaultTimeout time.Duration
	shutdown       int32
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBackend injects the execution backend. The default is the system
// backend running /bin/sh.
func WithBackend(b runner.Backend) Option {
	return func(d *Dispatcher) {
		d.backend = b
	}
}

// WithValidators replaces the structural validator registry.
func WithValidators(reg *validation.Registry) Option {
	return func(d *Dispatcher) {
		d.validators = reg
	}
}

// WithRules sets the ruleset.
func WithRules(r Rules) Option {
	return func(d *Dispatcher) {
		d.rules = r
	}
}

// WithRateLimiter sets the rate limiter.
func WithRateLimiter(limiter RateLimiter) Option {
	return func(d *Dispatcher) {
		d.rateLimiter = limiter
	}
}

// WithCircuitBreaker sets the circuit breaker.
func WithCircuitBreaker(cb CircuitBreaker) Option {
	return func(d *Dispatcher) {
		d.circuitBreaker = cb
	}
}

// WithHooks adds dispatch hooks, run in the order given.
func WithHooks(hooks ...Hook) Option {
	return func(d *Dispatcher) {
		d.hooks = append(d.hooks, hooks...)
	}
}

// WithTelemetry sets the telemetry provider.
func WithTelemetry(t Telemetry) Option {
	return func(d *Dispatcher) {
		d.telemetry = t
	}
}

// WithAudit sets the audit log.
func WithAudit(a Audit) Option {
	return func(d *Dispatcher) {
		d.audit = a
	}
}

// WithDefaultTimeout sets the timeout applied to commands without one.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.defaultTimeout = timeout
		}
	}
}

// New creates a dispatcher. Without options it validates with the default
// registry and executes through the system backend.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:        runner.NewSystem(),
		validators:     validation.DefaultRegistry(),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Backend returns the injected execution backend.
func (d *Dispatcher) Backend() runner.Backend {
	return d.backend
}

// Run dispatches a command for its exit status. The error return covers
// refusals before execution (validation, ruleset denial, rate limit, open
// breaker, shutdown) and hook failures; once the backend ran, failure is
// reported through the result.
func (d *Dispatcher) Run(ctx context.Context, cmd *cmdline.Command) (runner.ExecResult, error) {
	if cmd == nil {
		return runner.ExecFailure(), cmdline.ErrInvalidCommand
	}

	if err := d.enter(); err != nil {
		return runner.ExecFailure(), err
	}
	defer d.wg.Done()

	rep := d.newReport(runner.OpRun, cmd)

	if d.telemetry != nil {
		var end func()
		ctx, end = d.telemetry.StartSpan(ctx, "dispatch.Run", map[string]string{
			"program":       cmd.Program,
			"invocation_id": rep.ID,
		})
		defer end()
	}

	cmd, err := d.admit(ctx, rep, cmd)
	if err != nil {
		return runner.ExecFailure(), err
	}

	execCtx, cancel := d.withTimeout(ctx, cmd)
	defer cancel()

	rep.Line = cmd.Line()

	start := time.Now()
	res := d.placed(cmd).Run(execCtx, rep.Line)
	rep.Duration = time.Since(start)
	rep.Status = res.Status()

	if hookErr := d.settle(ctx, rep, cmd); hookErr != nil {
		return res, hookErr
	}
	return res, nil
}

// RunProgram builds a command from a program name and arguments and
// dispatches it.
func (d *Dispatcher) RunProgram(ctx context.Context, program string, args ...string) (runner.ExecResult, error) {
	cmd, err := cmdline.NewBuilder(program, args...).Build()
	if err != nil {
		return runner.ExecFailure(), NewValidationError(program, err)
	}
	return d.Run(ctx, cmd)
}

// Capture dispatches a command and collects its standard output. The
// error return has the same refusal-only contract as Run.
func (d *Dispatcher) Capture(ctx context.Context, cmd *cmdline.Command) (runner.CaptureResult, error) {
	if cmd == nil {
		return runner.CaptureFailure(), cmdline.ErrInvalidCommand
	}

	if err := d.enter(); err != nil {
		return runner.CaptureFailure(), err
	}
	defer d.wg.Done()

	rep := d.newReport(runner.OpCapture, cmd)

	if d.telemetry != nil {
		var end func()
		ctx, end = d.telemetry.StartSpan(ctx, "dispatch.Capture", map[string]string{
			"program":       cmd.Program,
			"invocation_id": rep.ID,
		})
		defer end()
	}

	cmd, err := d.admit(ctx, rep, cmd)
	if err != nil {
		return runner.CaptureFailure(), err
	}

	execCtx, cancel := d.withTimeout(ctx, cmd)
	defer cancel()

	rep.Line = cmd.Line()

	start := time.Now()
	res := d.placed(cmd).Capture(execCtx, rep.Line)
	rep.Duration = time.Since(start)
	rep.Status = res.Status()
	rep.Output = res.Output

	if hookErr := d.settle(ctx, rep, cmd); hookErr != nil {
		return res, hookErr
	}
	return res, nil
}

// CaptureProgram builds a command from a program name and arguments and
// captures its output.
func (d *Dispatcher) CaptureProgram(ctx context.Context, program string, args ...string) (runner.CaptureResult, error) {
	cmd, err := cmdline.NewBuilder(program, args...).Build()
	if err != nil {
		return runner.CaptureFailure(), NewValidationError(program, err)
	}
	return d.Capture(ctx, cmd)
}

// RunBatch dispatches multiple commands concurrently. Results are indexed
// like the input; the first error encountered is returned alongside them.
func (d *Dispatcher) RunBatch(ctx context.Context, cmds []*cmdline.Command) ([]runner.ExecResult, error) {
	results := make([]runner.ExecResult, len(cmds))
	errs := make([]error, len(cmds))

	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(idx int, c *cmdline.Command) {
			defer wg.Done()
			results[idx], errs[idx] = d.Run(ctx, c)
		}(i, cmd)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Shutdown refuses new dispatches and waits for in-flight ones to settle.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	// Acquire write lock to prevent new dispatches from starting.
	// Any Run/Capture calls will block on RLock until we release.
	d.mu.Lock()
	atomic.StoreInt32(&d.shutdown, 1)
	d.mu.Unlock()

	// Now wait for any in-flight dispatches to complete.
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enter atomically checks the shutdown gate and registers the dispatch.
// The mutex prevents a race where Shutdown starts wg.Wait() between our
// check and Add.
func (d *Dispatcher) enter() error {
	d.mu.RLock()
	if atomic.LoadInt32(&d.shutdown) == 1 {
		d.mu.RUnlock()
		return ErrDispatcherShutdown
	}
	d.wg.Add(1)
	d.mu.RUnlock()
	return nil
}

func (d *Dispatcher) newReport(op runner.Op, cmd *cmdline.Command) *Report {
	return &Report{
		ID:       uuid.New().String(),
		Op:       op,
		Program:  cmd.Program,
		Metadata: cmd.Metadata,
	}
}

// admit runs pre-dispatch hooks and every admission check. A non-nil
// error means the dispatch was refused; the refusal has already been
// reported to telemetry, audit, and post-dispatch hooks.
func (d *Dispatcher) admit(ctx context.Context, rep *Report, cmd *cmdline.Command) (*cmdline.Command, error) {
	current := cmd
	for _, hook := range d.hooks {
		modified, err := hook.PreDispatch(ctx, current)
		if err != nil {
			return nil, d.refuse(ctx, rep, err)
		}
		if modified != nil {
			current = modified
		}
	}
	rep.Program = current.Program

	if d.validators != nil {
		if err := d.validators.ValidateAll(ctx, current); err != nil {
			return nil, d.refuse(ctx, rep, NewValidationError(current.Program, err))
		}
	}

	if d.rules != nil {
		verdict, err := d.rules.Evaluate(ctx, current)
		if err != nil {
			return nil, d.refuse(ctx, rep, err)
		}
		if !verdict.Allowed {
			return nil, d.refuse(ctx, rep, NewRuleError(current.Program, verdict.Version, verdict.Violations))
		}
	}

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, current.Program); err != nil {
			return nil, d.refuse(ctx, rep, NewRateLimitError(current.Program))
		}
	}

	if d.circuitBreaker != nil && !d.circuitBreaker.Allow(current.Program) {
		return nil, d.refuse(ctx, rep, NewCircuitOpenError(current.Program))
	}

	return current, nil
}

// refuse settles a dispatch that never reached the backend.
func (d *Dispatcher) refuse(ctx context.Context, rep *Report, err error) error {
	rep.Err = err
	rep.Refusal = GetErrorCode(err)
	rep.Status = runner.ExecFailure().Status()

	if d.telemetry != nil {
		d.telemetry.RecordRefusal(string(rep.Op), rep.Program, string(rep.Refusal))
	}
	d.record(ctx, rep)
	for _, hook := range d.hooks {
		// The dispatch is already refused; hook errors cannot unrefuse it.
		_ = hook.PostDispatch(ctx, rep)
	}
	return err
}

// settle records breaker state, telemetry, audit, and post-dispatch hooks
// for a dispatch that executed.
func (d *Dispatcher) settle(ctx context.Context, rep *Report, cmd *cmdline.Command) error {
	if d.circuitBreaker != nil {
		if rep.Status.OK {
			d.circuitBreaker.RecordSuccess(cmd.Program)
		} else {
			d.circuitBreaker.RecordFailure(cmd.Program)
		}
	}

	if d.telemetry != nil {
		d.telemetry.RecordDispatch(string(rep.Op), cmd.Program, rep.StatusLabel(), rep.Duration.Seconds())
	}

	d.record(ctx, rep)

	for _, hook := range d.hooks {
		if err := hook.PostDispatch(ctx, rep); err != nil {
			return err
		}
	}
	return nil
}

// record appends the audit entry. Audit failure never fails the dispatch;
// the result has already been determined by the backend.
func (d *Dispatcher) record(ctx context.Context, rep *Report) {
	if d.audit == nil {
		return
	}
	_ = d.audit.Record(ctx, rep)
}

// withTimeout applies the command's timeout, or the dispatcher default.
// Every dispatch runs under a deadline.
func (d *Dispatcher) withTimeout(ctx context.Context, cmd *cmdline.Command) (context.Context, context.CancelFunc) {
	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = d.defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// placed derives a backend bound to the command's environment and working
// directory when the backend supports placement.
func (d *Dispatcher) placed(cmd *cmdline.Command) runner.Backend {
	if len(cmd.Env) == 0 && cmd.WorkingDir == "" {
		return d.backend
	}
	if placer, ok := d.backend.(runner.Placer); ok {
		return placer.Place(cmd.Env, cmd.WorkingDir)
	}
	return d.backend
}
