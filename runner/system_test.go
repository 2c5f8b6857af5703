package runner

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/victoralfred/goshell/cmdline"
)

func newQuietSystem(opts ...SystemOption) *System {
	base := []SystemOption{WithStdout(io.Discard), WithStderr(io.Discard)}
	return NewSystem(append(base, opts...)...)
}

func requirePosixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestSystem_Run_Success(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem()
	got := sys.Run(context.Background(), "echo 'hello'")

	if !got.OK || got.Code != 0 {
		t.Errorf("Run = %+v, want {OK:true Code:0}", got)
	}
}

func TestSystem_Run_ExitCode(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem()
	got := sys.Run(context.Background(), "exit 3")

	if got.OK || got.Code != 3 {
		t.Errorf("Run = %+v, want {OK:false Code:3}", got)
	}
}

func TestSystem_Run_CommandNotFound(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem()
	got := sys.Run(context.Background(), "definitely-not-a-real-command-4f1a")

	// POSIX shells report an unresolvable command as 127.
	if got.OK || got.Code != 127 {
		t.Errorf("Run = %+v, want {OK:false Code:127}", got)
	}
}

func TestSystem_Run_ShellMissing(t *testing.T) {
	sys := newQuietSystem(WithShell("/nonexistent/shell-xyz"))
	got := sys.Run(context.Background(), "echo 'hello'")

	if got.OK || got.Code != 1 {
		t.Errorf("Run = %+v, want conservative {OK:false Code:1}", got)
	}
}

func TestSystem_Run_StreamsToConfiguredWriter(t *testing.T) {
	requirePosixShell(t)

	var out bytes.Buffer
	sys := NewSystem(WithStdout(&out), WithStderr(io.Discard))

	got := sys.Run(context.Background(), "echo 'streamed'")
	if !got.OK {
		t.Fatalf("Run = %+v, want OK", got)
	}
	if out.String() != "streamed\n" {
		t.Errorf("Streamed output = %q, want %q", out.String(), "streamed\n")
	}
}

func TestSystem_Run_ContextTimeout(t *testing.T) {
	requirePosixShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sys := newQuietSystem()
	got := sys.Run(ctx, "sleep 10")

	if got.OK {
		t.Errorf("Run = %+v, want failure after timeout", got)
	}
	if got.Code == 0 {
		t.Errorf("Run code = 0, want non-zero after timeout")
	}
}

func TestSystem_Capture_Output(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem()
	got := sys.Capture(context.Background(), "echo 'captured'")

	if !got.OK {
		t.Fatalf("Capture = %+v, want OK", got)
	}
	if got.Output != "captured\n" {
		t.Errorf("Output = %q, want %q", got.Output, "captured\n")
	}
}

func TestSystem_Capture_EmptyOutput(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem()
	got := sys.Capture(context.Background(), "true")

	if !got.OK || got.Output != "" {
		t.Errorf("Capture = %+v, want {OK:true Output:\"\"}", got)
	}
}

func TestSystem_Capture_NonZeroExitStillCaptures(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem()
	got := sys.Capture(context.Background(), "echo 'partial'; exit 2")

	// The pipe opened, the output was read, the pipe was released: the
	// capture itself succeeded even though the command failed.
	if !got.OK {
		t.Fatalf("Capture = %+v, want OK despite non-zero exit", got)
	}
	if got.Output != "partial\n" {
		t.Errorf("Output = %q, want %q", got.Output, "partial\n")
	}
}

func TestSystem_Capture_ShellMissing(t *testing.T) {
	sys := newQuietSystem(WithShell("/nonexistent/shell-xyz"))
	got := sys.Capture(context.Background(), "echo 'hello'")

	if got.OK || got.Output != "" {
		t.Errorf("Capture = %+v, want {OK:false Output:\"\"}", got)
	}
}

func TestSystem_QuotedArgumentsStayLiteral(t *testing.T) {
	requirePosixShell(t)

	line := cmdline.Join("echo", []string{"hello; rm -rf /"})
	sys := newQuietSystem()

	got := sys.Capture(context.Background(), line)
	if !got.OK {
		t.Fatalf("Capture = %+v, want OK", got)
	}
	if got.Output != "hello; rm -rf /\n" {
		t.Errorf("Output = %q, want the metacharacters preserved literally", got.Output)
	}
}

func TestSystem_WithEnv(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem(WithEnv(map[string]string{"GREETING": "salut"}))
	got := sys.Capture(context.Background(), `printf '%s' "$GREETING"`)

	if !got.OK || got.Output != "salut" {
		t.Errorf("Capture = %+v, want {OK:true Output:\"salut\"}", got)
	}
}

func TestSystem_Place_Environment(t *testing.T) {
	requirePosixShell(t)

	base := newQuietSystem(WithEnv(map[string]string{"A": "base", "B": "base"}))
	placed := base.Place(map[string]string{"B": "override"}, "")

	got := placed.Capture(context.Background(), `printf '%s:%s' "$A" "$B"`)
	if !got.OK || got.Output != "base:override" {
		t.Errorf("Capture = %+v, want {OK:true Output:\"base:override\"}", got)
	}

	// The original backend is unchanged.
	orig := base.Capture(context.Background(), `printf '%s:%s' "$A" "$B"`)
	if !orig.OK || orig.Output != "base:base" {
		t.Errorf("Original capture = %+v, want {OK:true Output:\"base:base\"}", orig)
	}
}

func TestSystem_Place_WorkingDir(t *testing.T) {
	requirePosixShell(t)

	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks(%q): %v", dir, err)
	}

	sys := newQuietSystem()
	placed := sys.Place(nil, dir)

	got := placed.Capture(context.Background(), "pwd")
	if !got.OK {
		t.Fatalf("Capture = %+v, want OK", got)
	}
	if strings.TrimSpace(got.Output) != resolved {
		t.Errorf("pwd = %q, want %q", strings.TrimSpace(got.Output), resolved)
	}
}

func TestSystem_Shell(t *testing.T) {
	if got := NewSystem().Shell(); got != "/bin/sh" {
		t.Errorf("Shell() = %q, want /bin/sh", got)
	}
	if got := NewSystem(WithShell("/bin/bash")).Shell(); got != "/bin/bash" {
		t.Errorf("Shell() = %q, want /bin/bash", got)
	}
}

func TestSystem_WithStdin(t *testing.T) {
	requirePosixShell(t)

	sys := newQuietSystem(WithStdin(strings.NewReader("from stdin\n")))
	got := sys.Capture(context.Background(), "cat")

	if !got.OK || got.Output != "from stdin\n" {
		t.Errorf("Capture = %+v, want stdin echoed back", got)
	}
}
