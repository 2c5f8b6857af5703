package dispatch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/victoralfred/goshell/cmdline"
	"github.com/victoralfred/goshell/runner"
)

// mockRules is a mock ruleset for testing.
type mockRules struct {
	evaluateFunc func(ctx context.Context, cmd *cmdline.Command) (*Verdict, error)
}

func (m *mockRules) Evaluate(ctx context.Context, cmd *cmdline.Command) (*Verdict, error) {
	if m.evaluateFunc != nil {
		return m.evaluateFunc(ctx, cmd)
	}
	return &Verdict{Allowed: true}, nil
}

// mockRateLimiter is a mock rate limiter for testing.
type mockRateLimiter struct {
	allowFunc func(program string) bool
	waitFunc  func(ctx context.Context, program string) error
}

func (m *mockRateLimiter) Allow(program string) bool {
	if m.allowFunc != nil {
		return m.allowFunc(program)
	}
	return true
}

func (m *mockRateLimiter) Wait(ctx context.Context, program string) error {
	if m.waitFunc != nil {
		return m.waitFunc(ctx, program)
	}
	return nil
}

// mockCircuitBreaker is a mock circuit breaker for testing.
type mockCircuitBreaker struct {
	allowFunc func(program string) bool
	successes []string
	failures  []string
}

func (m *mockCircuitBreaker) Allow(program string) bool {
	if m.allowFunc != nil {
		return m.allowFunc(program)
	}
	return true
}

func (m *mockCircuitBreaker) RecordSuccess(program string) {
	m.successes = append(m.successes, program)
}

func (m *mockCircuitBreaker) RecordFailure(program string) {
	m.failures = append(m.failures, program)
}

// mockTelemetry is a mock telemetry provider for testing.
type mockTelemetry struct {
	spans      []string
	dispatches []string
	refusals   []string
}

func (m *mockTelemetry) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	m.spans = append(m.spans, name)
	return ctx, func() {}
}

func (m *mockTelemetry) RecordDispatch(op, program, status string, seconds float64) {
	m.dispatches = append(m.dispatches, op+":"+program+":"+status)
}

func (m *mockTelemetry) RecordRefusal(op, program, reason string) {
	m.refusals = append(m.refusals, op+":"+program+":"+reason)
}

// mockAudit is a mock audit log for testing.
type mockAudit struct {
	reports []*Report
}

func (m *mockAudit) Record(ctx context.Context, rep *Report) error {
	m.reports = append(m.reports, rep)
	return nil
}

// mockHook is a mock hook for testing.
type mockHook struct {
	preFunc  func(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error)
	postFunc func(ctx context.Context, rep *Report) error
}

func (m *mockHook) PreDispatch(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error) {
	if m.preFunc != nil {
		return m.preFunc(ctx, cmd)
	}
	return cmd, nil
}

func (m *mockHook) PostDispatch(ctx context.Context, rep *Report) error {
	if m.postFunc != nil {
		return m.postFunc(ctx, rep)
	}
	return nil
}

func mustCmd(t *testing.T, program string, args ...string) *cmdline.Command {
	t.Helper()
	cmd, err := cmdline.NewBuilder(program, args...).Build()
	if err != nil {
		t.Fatalf("Build(%q): %v", program, err)
	}
	return cmd
}

func TestDispatcher_Run_Success(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(runner.ExecResult{OK: true, Code: 0})

	d := New(WithBackend(backend))

	res, err := d.Run(context.Background(), mustCmd(t, "echo", "hello world"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK || res.Code != 0 {
		t.Errorf("Run = %+v, want {OK:true Code:0}", res)
	}

	wantLines := []string{"echo 'hello world'"}
	if got := backend.Lines(); !reflect.DeepEqual(got, wantLines) {
		t.Errorf("Backend lines = %v, want %v", got, wantLines)
	}
}

func TestDispatcher_Run_ScriptedResponsesInOrder(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(
		runner.ExecResult{OK: true, Code: 0},
		runner.ExecResult{OK: false, Code: 1},
	)

	d := New(WithBackend(backend))
	ctx := context.Background()

	first, err := d.Run(ctx, mustCmd(t, "make", "build"))
	if err != nil {
		t.Fatalf("First run: %v", err)
	}
	second, err := d.Run(ctx, mustCmd(t, "make", "test"))
	if err != nil {
		t.Fatalf("Second run: %v", err)
	}

	if !first.OK || first.Code != 0 {
		t.Errorf("First = %+v, want {OK:true Code:0}", first)
	}
	if second.OK || second.Code != 1 {
		t.Errorf("Second = %+v, want {OK:false Code:1}", second)
	}

	wantLines := []string{"make 'build'", "make 'test'"}
	if got := backend.Lines(); !reflect.DeepEqual(got, wantLines) {
		t.Errorf("Backend lines = %v, want %v", got, wantLines)
	}
}

func TestDispatcher_Run_ValidationRefusal(t *testing.T) {
	backend := runner.NewScripted()
	d := New(WithBackend(backend))

	// Bypass the builder so the hostile program reaches the dispatcher.
	bad := &cmdline.Command{Program: "ls; rm -rf /"}

	res, err := d.Run(context.Background(), bad)
	if err == nil {
		t.Fatal("Expected refusal for metacharacter program")
	}
	if !errors.Is(err, cmdline.ErrMetacharacter) {
		t.Errorf("Expected ErrMetacharacter in chain, got %v", err)
	}
	if got := GetErrorCode(err); got != ErrCodeValidationFailed {
		t.Errorf("GetErrorCode = %s, want %s", got, ErrCodeValidationFailed)
	}
	if res.OK || res.Code != 1 {
		t.Errorf("Refused result = %+v, want conservative {OK:false Code:1}", res)
	}
	if backend.CallCount() != 0 {
		t.Errorf("Backend was invoked %d times, want 0", backend.CallCount())
	}
}

func TestDispatcher_Run_RuleDenied(t *testing.T) {
	backend := runner.NewScripted()
	rules := &mockRules{
		evaluateFunc: func(ctx context.Context, cmd *cmdline.Command) (*Verdict, error) {
			return &Verdict{
				Allowed: false,
				Version: "1.0",
				Violations: []Violation{
					{Code: "PROGRAM_NOT_ALLOWED", Field: "program", Message: "rm is not allowed", Severity: SeverityError},
				},
			}, nil
		},
	}

	d := New(WithBackend(backend), WithRules(rules))

	_, err := d.Run(context.Background(), mustCmd(t, "rm", "-rf", "/tmp/x"))
	if err == nil {
		t.Fatal("Expected rule denial")
	}
	if !errors.Is(err, ErrRuleDenied) {
		t.Errorf("Expected ErrRuleDenied, got %v", err)
	}

	var ruleErr *RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("Expected RuleViolationError, got %T", err)
	}
	if ruleErr.RulesetVersion != "1.0" {
		t.Errorf("RulesetVersion = %q, want %q", ruleErr.RulesetVersion, "1.0")
	}
	if len(ruleErr.Violations) != 1 || ruleErr.Violations[0].Code != "PROGRAM_NOT_ALLOWED" {
		t.Errorf("Violations = %+v, want one PROGRAM_NOT_ALLOWED", ruleErr.Violations)
	}
	if backend.CallCount() != 0 {
		t.Errorf("Backend was invoked %d times, want 0", backend.CallCount())
	}
}

func TestDispatcher_Run_RuleEvaluationError(t *testing.T) {
	wantErr := errors.New("ruleset unavailable")
	rules := &mockRules{
		evaluateFunc: func(ctx context.Context, cmd *cmdline.Command) (*Verdict, error) {
			return nil, wantErr
		},
	}

	d := New(WithBackend(runner.NewScripted()), WithRules(rules))

	_, err := d.Run(context.Background(), mustCmd(t, "echo"))
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected evaluation error, got %v", err)
	}
}

func TestDispatcher_Run_RateLimited(t *testing.T) {
	limiter := &mockRateLimiter{
		waitFunc: func(ctx context.Context, program string) error {
			return errors.New("limit exhausted")
		},
	}

	d := New(WithBackend(runner.NewScripted()), WithRateLimiter(limiter))

	_, err := d.Run(context.Background(), mustCmd(t, "echo"))
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("Rate limit refusals should be retryable")
	}
}

func TestDispatcher_Run_CircuitOpen(t *testing.T) {
	breaker := &mockCircuitBreaker{
		allowFunc: func(program string) bool { return false },
	}

	d := New(WithBackend(runner.NewScripted()), WithCircuitBreaker(breaker))

	_, err := d.Run(context.Background(), mustCmd(t, "flaky"))
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if got := GetErrorCode(err); got != ErrCodeCircuitOpen {
		t.Errorf("GetErrorCode = %s, want %s", got, ErrCodeCircuitOpen)
	}
}

func TestDispatcher_Run_BreakerRecordsOutcomes(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(
		runner.ExecResult{OK: true, Code: 0},
		runner.ExecResult{OK: false, Code: 2},
	)
	breaker := &mockCircuitBreaker{}

	d := New(WithBackend(backend), WithCircuitBreaker(breaker))
	ctx := context.Background()

	if _, err := d.Run(ctx, mustCmd(t, "git", "status")); err != nil {
		t.Fatalf("First run: %v", err)
	}
	if _, err := d.Run(ctx, mustCmd(t, "git", "push")); err != nil {
		t.Fatalf("Second run: %v", err)
	}

	if !reflect.DeepEqual(breaker.successes, []string{"git"}) {
		t.Errorf("Successes = %v, want [git]", breaker.successes)
	}
	if !reflect.DeepEqual(breaker.failures, []string{"git"}) {
		t.Errorf("Failures = %v, want [git]", breaker.failures)
	}
}

func TestDispatcher_Run_PreHookRewritesCommand(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(runner.ExecResult{OK: true, Code: 0})

	hook := &mockHook{
		preFunc: func(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error) {
			rewritten := cmd.Clone()
			rewritten.Args = append(rewritten.Args, "--verbose")
			return rewritten, nil
		},
	}

	d := New(WithBackend(backend), WithHooks(hook))

	if _, err := d.Run(context.Background(), mustCmd(t, "build", "all")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantLines := []string{"build 'all' '--verbose'"}
	if got := backend.Lines(); !reflect.DeepEqual(got, wantLines) {
		t.Errorf("Backend lines = %v, want %v", got, wantLines)
	}
}

func TestDispatcher_Run_PreHookVeto(t *testing.T) {
	backend := runner.NewScripted()
	veto := errors.New("vetoed by policy hook")
	var seenReports []*Report

	hook := &mockHook{
		preFunc: func(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error) {
			return nil, veto
		},
		postFunc: func(ctx context.Context, rep *Report) error {
			seenReports = append(seenReports, rep)
			return nil
		},
	}

	d := New(WithBackend(backend), WithHooks(hook))

	_, err := d.Run(context.Background(), mustCmd(t, "echo"))
	if !errors.Is(err, veto) {
		t.Errorf("Expected veto error, got %v", err)
	}
	if backend.CallCount() != 0 {
		t.Errorf("Backend was invoked %d times, want 0", backend.CallCount())
	}
	if len(seenReports) != 1 || !seenReports[0].Refused() {
		t.Errorf("Post hooks should observe the refused report, got %+v", seenReports)
	}
}

func TestDispatcher_Run_PostHookReceivesReport(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(runner.ExecResult{OK: false, Code: 3})

	var got *Report
	hook := &mockHook{
		postFunc: func(ctx context.Context, rep *Report) error {
			got = rep
			return nil
		},
	}

	d := New(WithBackend(backend), WithHooks(hook))

	cmd := cmdline.NewBuilder("deploy", "prod").
		WithMetadata("ticket", "OPS-41").
		MustBuild()

	if _, err := d.Run(context.Background(), cmd); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got == nil {
		t.Fatal("Post hook was not called")
	}
	if got.ID == "" {
		t.Error("Report ID should be set")
	}
	if got.Op != runner.OpRun {
		t.Errorf("Report op = %s, want %s", got.Op, runner.OpRun)
	}
	if got.Program != "deploy" {
		t.Errorf("Report program = %q, want %q", got.Program, "deploy")
	}
	if got.Line != "deploy 'prod'" {
		t.Errorf("Report line = %q, want %q", got.Line, "deploy 'prod'")
	}
	if got.Status.OK || got.Status.Code != 3 {
		t.Errorf("Report status = %+v, want {OK:false Code:3}", got.Status)
	}
	if got.Refused() {
		t.Error("Executed dispatch should not be marked refused")
	}
	if got.Metadata["ticket"] != "OPS-41" {
		t.Errorf("Report metadata = %v, want ticket=OPS-41", got.Metadata)
	}
}

func TestDispatcher_Run_PostHookErrorSurfaces(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(runner.ExecResult{OK: true, Code: 0})

	hookErr := errors.New("post hook failed")
	hook := &mockHook{
		postFunc: func(ctx context.Context, rep *Report) error { return hookErr },
	}

	d := New(WithBackend(backend), WithHooks(hook))

	res, err := d.Run(context.Background(), mustCmd(t, "echo"))
	if !errors.Is(err, hookErr) {
		t.Errorf("Expected hook error, got %v", err)
	}
	// The command already executed; its result is still reported.
	if !res.OK {
		t.Errorf("Result = %+v, want the executed outcome", res)
	}
}

func TestDispatcher_Capture_Success(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueCapture(runner.CaptureResult{OK: true, Output: "v2.1.0\n"})

	d := New(WithBackend(backend))

	res, err := d.Capture(context.Background(), mustCmd(t, "git", "describe", "--tags"))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !res.OK || res.Output != "v2.1.0\n" {
		t.Errorf("Capture = %+v, want {OK:true Output:%q}", res, "v2.1.0\n")
	}

	calls := backend.Calls()
	if len(calls) != 1 || calls[0].Op != runner.OpCapture {
		t.Fatalf("Calls = %v, want one capture", calls)
	}
	if calls[0].Line != "git 'describe' '--tags'" {
		t.Errorf("Line = %q, want %q", calls[0].Line, "git 'describe' '--tags'")
	}
}

func TestDispatcher_Capture_Refused(t *testing.T) {
	rules := &mockRules{
		evaluateFunc: func(ctx context.Context, cmd *cmdline.Command) (*Verdict, error) {
			return &Verdict{Allowed: false}, nil
		},
	}

	d := New(WithBackend(runner.NewScripted()), WithRules(rules))

	res, err := d.Capture(context.Background(), mustCmd(t, "curl", "http://example.com"))
	if !errors.Is(err, ErrRuleDenied) {
		t.Errorf("Expected ErrRuleDenied, got %v", err)
	}
	if res.OK || res.Output != "" {
		t.Errorf("Refused capture = %+v, want {OK:false Output:\"\"}", res)
	}
}

func TestDispatcher_RunProgram_InvalidProgram(t *testing.T) {
	d := New(WithBackend(runner.NewScripted()))

	_, err := d.RunProgram(context.Background(), "ls|cat")
	if err == nil {
		t.Fatal("Expected error for metacharacter program")
	}
	if !errors.Is(err, cmdline.ErrInvalidProgram) {
		t.Errorf("Expected ErrInvalidProgram, got %v", err)
	}
	if got := GetErrorCode(err); got != ErrCodeValidationFailed {
		t.Errorf("GetErrorCode = %s, want %s", got, ErrCodeValidationFailed)
	}
}

func TestDispatcher_CaptureProgram(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueCapture(runner.CaptureResult{OK: true, Output: "Linux\n"})

	d := New(WithBackend(backend))

	res, err := d.CaptureProgram(context.Background(), "uname", "-s")
	if err != nil {
		t.Fatalf("CaptureProgram: %v", err)
	}
	if res.Output != "Linux\n" {
		t.Errorf("Output = %q, want %q", res.Output, "Linux\n")
	}
}

func TestDispatcher_RunBatch(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(
		runner.ExecResult{OK: true, Code: 0},
		runner.ExecResult{OK: true, Code: 0},
		runner.ExecResult{OK: true, Code: 0},
	)

	d := New(WithBackend(backend))

	cmds := []*cmdline.Command{
		mustCmd(t, "echo", "one"),
		mustCmd(t, "echo", "two"),
		mustCmd(t, "echo", "three"),
	}

	results, err := d.RunBatch(context.Background(), cmds)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Got %d results, want 3", len(results))
	}
	for i, res := range results {
		if !res.OK {
			t.Errorf("Result %d = %+v, want OK", i, res)
		}
	}
	if backend.CallCount() != 3 {
		t.Errorf("Backend invoked %d times, want 3", backend.CallCount())
	}
}

func TestDispatcher_RunBatch_FirstErrorReturned(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(
		runner.ExecResult{OK: true, Code: 0},
		runner.ExecResult{OK: true, Code: 0},
	)

	d := New(WithBackend(backend))

	cmds := []*cmdline.Command{
		mustCmd(t, "echo", "fine"),
		{Program: "rm; echo"},
		mustCmd(t, "echo", "also fine"),
	}

	results, err := d.RunBatch(context.Background(), cmds)
	if err == nil {
		t.Fatal("Expected error from the invalid command")
	}
	if len(results) != 3 {
		t.Fatalf("Got %d results, want 3", len(results))
	}
	if results[1].OK {
		t.Errorf("Invalid command result = %+v, want failure", results[1])
	}
}

func TestDispatcher_Shutdown(t *testing.T) {
	d := New(WithBackend(runner.NewScripted()))

	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	_, err := d.Run(context.Background(), mustCmd(t, "echo"))
	if !errors.Is(err, ErrDispatcherShutdown) {
		t.Errorf("Expected ErrDispatcherShutdown, got %v", err)
	}
	if got := GetErrorCode(err); got != ErrCodeShutdown {
		t.Errorf("GetErrorCode = %s, want %s", got, ErrCodeShutdown)
	}

	_, err = d.Capture(context.Background(), mustCmd(t, "echo"))
	if !errors.Is(err, ErrDispatcherShutdown) {
		t.Errorf("Capture after shutdown: expected ErrDispatcherShutdown, got %v", err)
	}
}

// blockingBackend blocks in Run until released, to exercise the shutdown
// drain path.
type blockingBackend struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Run(ctx context.Context, line string) runner.ExecResult {
	close(b.started)
	<-b.release
	return runner.ExecResult{OK: true, Code: 0}
}

func (b *blockingBackend) Capture(ctx context.Context, line string) runner.CaptureResult {
	return runner.CaptureFailure()
}

func TestDispatcher_Shutdown_WaitsForInflight(t *testing.T) {
	backend := &blockingBackend{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := New(WithBackend(backend))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.Run(context.Background(), mustCmd(t, "slow"))
	}()

	<-backend.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := d.Shutdown(ctx); err == nil {
		t.Fatal("Shutdown should not complete while a dispatch is in flight")
	}

	close(backend.release)
	<-done

	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown after drain: %v", err)
	}
}

func TestDispatcher_TelemetryAndAudit(t *testing.T) {
	backend := runner.NewScripted()
	backend.QueueRun(runner.ExecResult{OK: true, Code: 0})

	telemetry := &mockTelemetry{}
	audit := &mockAudit{}
	rules := &mockRules{
		evaluateFunc: func(ctx context.Context, cmd *cmdline.Command) (*Verdict, error) {
			return &Verdict{Allowed: cmd.Program != "blocked"}, nil
		},
	}

	d := New(
		WithBackend(backend),
		WithTelemetry(telemetry),
		WithAudit(audit),
		WithRules(rules),
	)
	ctx := context.Background()

	if _, err := d.Run(ctx, mustCmd(t, "echo", "ok")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := d.Run(ctx, mustCmd(t, "blocked")); err == nil {
		t.Fatal("Expected rule denial")
	}

	if len(telemetry.spans) != 2 {
		t.Errorf("Spans = %v, want 2 entries", telemetry.spans)
	}
	if len(telemetry.dispatches) != 1 || !strings.HasPrefix(telemetry.dispatches[0], "run:echo:ok") {
		t.Errorf("Dispatches = %v, want one run:echo:ok", telemetry.dispatches)
	}
	if len(telemetry.refusals) != 1 || telemetry.refusals[0] != "run:blocked:RULE_DENIED" {
		t.Errorf("Refusals = %v, want [run:blocked:RULE_DENIED]", telemetry.refusals)
	}

	if len(audit.reports) != 2 {
		t.Fatalf("Audit reports = %d, want 2", len(audit.reports))
	}
	if audit.reports[0].Refused() {
		t.Error("First report should be the executed dispatch")
	}
	if !audit.reports[1].Refused() || audit.reports[1].Refusal != ErrCodeRuleDenied {
		t.Errorf("Second report = %+v, want a RULE_DENIED refusal", audit.reports[1])
	}
}

// placerBackend records placement requests and delegates to the inner
// backend.
type placerBackend struct {
	*runner.Scripted
	placedEnv map[string]string
	placedDir string
}

func (p *placerBackend) Place(env map[string]string, dir string) runner.Backend {
	p.placedEnv = env
	p.placedDir = dir
	return p.Scripted
}

func TestDispatcher_PlacesEnvAndWorkingDir(t *testing.T) {
	inner := runner.NewScripted()
	inner.QueueRun(runner.ExecResult{OK: true, Code: 0})
	backend := &placerBackend{Scripted: inner}

	d := New(WithBackend(backend))

	cmd := cmdline.NewBuilder("env").
		WithEnv("FOO", "bar").
		WithWorkingDir("/tmp").
		MustBuild()

	if _, err := d.Run(context.Background(), cmd); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if backend.placedDir != "/tmp" {
		t.Errorf("Placed dir = %q, want /tmp", backend.placedDir)
	}
	if backend.placedEnv["FOO"] != "bar" {
		t.Errorf("Placed env = %v, want FOO=bar", backend.placedEnv)
	}
}

// deadlineBackend records whether the invocation context had a deadline.
type deadlineBackend struct {
	hadDeadline bool
}

func (b *deadlineBackend) Run(ctx context.Context, line string) runner.ExecResult {
	_, b.hadDeadline = ctx.Deadline()
	return runner.ExecResult{OK: true, Code: 0}
}

func (b *deadlineBackend) Capture(ctx context.Context, line string) runner.CaptureResult {
	_, b.hadDeadline = ctx.Deadline()
	return runner.CaptureResult{OK: true}
}

func TestDispatcher_AlwaysAppliesDeadline(t *testing.T) {
	backend := &deadlineBackend{}
	d := New(WithBackend(backend))

	if _, err := d.Run(context.Background(), mustCmd(t, "echo")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !backend.hadDeadline {
		t.Error("Run context should carry the default deadline")
	}

	backend.hadDeadline = false
	if _, err := d.Capture(context.Background(), mustCmd(t, "echo")); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !backend.hadDeadline {
		t.Error("Capture context should carry the default deadline")
	}
}

func TestDispatcher_NilCommand(t *testing.T) {
	d := New(WithBackend(runner.NewScripted()))

	if _, err := d.Run(context.Background(), nil); !errors.Is(err, cmdline.ErrInvalidCommand) {
		t.Errorf("Run(nil): expected ErrInvalidCommand, got %v", err)
	}
	if _, err := d.Capture(context.Background(), nil); !errors.Is(err, cmdline.ErrInvalidCommand) {
		t.Errorf("Capture(nil): expected ErrInvalidCommand, got %v", err)
	}
}
