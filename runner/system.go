package runner

import (
	"context"
	"io"
	"os"

	"github.com/victoralfred/goshell/exitstatus"
	"github.com/victoralfred/goshell/internal/envutil"
	"github.com/victoralfred/goshell/internal/shell"
)

// System is the production backend. It hands command lines to the host
// shell and reports canonical results. Run streams the command's output
// to the configured writers (the process streams by default); Capture
// collects standard output through a pipe.
//
// A System is immutable after construction and safe for concurrent use.
type System struct {
	interp  *shell.Interpreter
	env     map[string]string
	environ []string
	dir     string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SystemOption configures a System backend.
type SystemOption func(*System)

// WithShell selects the interpreter binary. The default is /bin/sh.
func WithShell(path string) SystemOption {
	return func(s *System) {
		s.interp = shell.New(path)
	}
}

// WithEnv overlays variables on the minimal safe environment every
// command line runs with.
func WithEnv(env map[string]string) SystemOption {
	return func(s *System) {
		s.env = envutil.MergeEnvironment(s.env, env)
	}
}

// WithWorkingDir sets the directory command lines run in.
func WithWorkingDir(dir string) SystemOption {
	return func(s *System) {
		s.dir = dir
	}
}

// WithStdin provides input to executed command lines.
func WithStdin(r io.Reader) SystemOption {
	return func(s *System) {
		s.stdin = r
	}
}

// WithStdout redirects Run output away from the process standard output.
func WithStdout(w io.Writer) SystemOption {
	return func(s *System) {
		s.stdout = w
	}
}

// WithStderr redirects standard error for both Run and Capture.
func WithStderr(w io.Writer) SystemOption {
	return func(s *System) {
		s.stderr = w
	}
}

// NewSystem creates the production backend.
func NewSystem(opts ...SystemOption) *System {
	s := &System{
		interp: shell.New(""),
		env:    map[string]string{},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.environ = envutil.Render(envutil.MergeEnvironment(envutil.MinimalEnvironment(), s.env))
	return s
}

// Shell returns the interpreter path this backend invokes.
func (s *System) Shell() string {
	return s.interp.Path()
}

// Place derives a backend with extra environment variables and a working
// directory applied. The receiver is unchanged.
func (s *System) Place(env map[string]string, dir string) Backend {
	clone := *s
	clone.env = envutil.MergeEnvironment(s.env, env)
	clone.environ = envutil.Render(envutil.MergeEnvironment(envutil.MinimalEnvironment(), clone.env))
	if dir != "" {
		clone.dir = dir
	}
	return &clone
}

// Run executes the command line and maps the process outcome onto the
// canonical (ok, code) pair. A command that could not be started at all
// reports the conservative failure. The process error itself is folded
// into the exit state rather than surfaced: execution failure is a
// result, not an exception.
func (s *System) Run(ctx context.Context, line string) ExecResult {
	outcome, _ := s.interp.Run(ctx, &shell.Invocation{
		Line:   line,
		Env:    s.environ,
		Dir:    s.dir,
		Stdin:  s.stdin,
		Stdout: s.stdout,
		Stderr: s.stderr,
	})
	if outcome == nil {
		return ExecFailure()
	}

	switch {
	case outcome.ExitCode >= 0:
		st := exitstatus.FromCode(outcome.ExitCode)
		return ExecResult{OK: st.OK, Code: st.Code}
	case outcome.Signal != 0:
		// Shell convention for a signaled process.
		return ExecResult{OK: false, Code: 128 + int(outcome.Signal)}
	default:
		return ExecFailure()
	}
}

// Capture executes the command line with standard output connected to a
// read pipe. OK is false only when the pipe could not be opened, the
// interpreter could not be started, or the pipe could not be read; a
// command that runs and exits non-zero still captures whatever it wrote.
func (s *System) Capture(ctx context.Context, line string) CaptureResult {
	outcome, err := s.interp.Capture(ctx, &shell.Invocation{
		Line:   line,
		Env:    s.environ,
		Dir:    s.dir,
		Stdin:  s.stdin,
		Stderr: s.stderr,
	})
	if err != nil || outcome == nil {
		return CaptureFailure()
	}
	return CaptureResult{OK: true, Output: string(outcome.Stdout)}
}

var (
	_ Backend = (*System)(nil)
	_ Placer  = (*System)(nil)
)
