// Package shell invokes the host command interpreter.
// This is the ONLY package in the entire library that imports os/exec.
// All command execution MUST go through this package.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/victoralfred/goshell/internal/envutil"
)

// DefaultPath is the interpreter used when none is configured.
const DefaultPath = "/bin/sh"

// waitDelay bounds how long Wait lingers on I/O pipes held open by
// background children after the interpreter exits or the context is
// canceled.
const waitDelay = 10 * time.Second

// Interpreter runs command lines through a shell using
// os/exec.CommandContext. This is the sole abstraction for process
// invocation.
type Interpreter struct {
	// path is the shell binary handed the command line via -c.
	path string

	// minimalEnv contains the minimal safe environment variables.
	minimalEnv []string
}

// New creates an interpreter for the given shell path. An empty path
// selects DefaultPath.
func New(path string) *Interpreter {
	if path == "" {
		path = DefaultPath
	}
	return &Interpreter{
		path:       path,
		minimalEnv: envutil.Render(envutil.MinimalEnvironment()),
	}
}

// Path returns the shell binary this interpreter invokes.
func (i *Interpreter) Path() string {
	return i.path
}

// Invocation describes one command line handed to the interpreter.
type Invocation struct {
	// Line is the full command line. Callers are responsible for having
	// built it from a validated program and quoted arguments.
	Line string

	// Env is the environment variables. If nil, the minimal safe
	// environment is used.
	Env []string

	// Dir is the working directory.
	Dir string

	// Stdin provides input to the command.
	Stdin io.Reader

	// Stdout receives standard output. If nil, output is captured.
	Stdout io.Writer

	// Stderr receives standard error. If nil, output is captured.
	Stderr io.Writer
}

// Outcome describes how an invocation finished.
type Outcome struct {
	// ExitCode is the interpreter's exit code, or -1 when the process
	// was signaled before exiting.
	ExitCode int

	// Signal is the signal that terminated the process, if any.
	Signal syscall.Signal

	// Stdout contains captured standard output (if not streaming).
	Stdout []byte

	// Stderr contains captured standard error (if not streaming).
	Stderr []byte

	// Duration is the wall clock time of the invocation.
	Duration time.Duration

	// Pid is the interpreter's process id, when it started.
	Pid int
}

// Run executes a command line to completion. The returned error is the
// underlying process error (including exit-status errors); callers decide
// how to interpret non-zero exits. An Outcome is returned alongside the
// error whenever the process actually ran.
func (i *Interpreter) Run(ctx context.Context, inv *Invocation) (*Outcome, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := i.command(ctx, inv)

	var stdoutBuf, stderrBuf bytes.Buffer
	if inv.Stdout != nil {
		cmd.Stdout = inv.Stdout
	} else {
		cmd.Stdout = &stdoutBuf
	}
	if inv.Stderr != nil {
		cmd.Stderr = inv.Stderr
	} else {
		cmd.Stderr = &stderrBuf
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	outcome := &Outcome{
		ExitCode: -1,
		Duration: duration,
	}
	if inv.Stdout == nil {
		outcome.Stdout = stdoutBuf.Bytes()
	}
	if inv.Stderr == nil {
		outcome.Stderr = stderrBuf.Bytes()
	}
	i.fill(outcome, cmd)

	if cmd.ProcessState == nil {
		// The interpreter never started.
		return outcome, err
	}
	return outcome, err
}

// Capture executes a command line with its standard output connected to a
// read pipe and returns everything the command wrote. The pipe is released
// on every path: open failure, start failure, read failure, and normal
// completion (Wait closes it).
//
// The returned error is non-nil only when the pipe could not be opened,
// the interpreter could not be started, or the pipe could not be read.
// A command that runs and exits non-zero is not an error here; the exit
// status is reported through the Outcome.
func (i *Interpreter) Capture(ctx context.Context, inv *Invocation) (*Outcome, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := i.command(ctx, inv)
	if inv.Stderr != nil {
		cmd.Stderr = inv.Stderr
	}

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		// Start closes the parent side of the pipe on failure.
		return nil, fmt.Errorf("start %s: %w", i.path, err)
	}

	output, readErr := io.ReadAll(pipe)

	// Wait reaps the process and closes the pipe regardless of the read
	// outcome, so the process is never leaked.
	waitErr := cmd.Wait()
	duration := time.Since(start)

	if readErr != nil {
		return nil, fmt.Errorf("read pipe: %w", readErr)
	}

	outcome := &Outcome{
		ExitCode: -1,
		Stdout:   output,
		Duration: duration,
	}
	i.fill(outcome, cmd)

	if cmd.ProcessState == nil {
		return nil, waitErr
	}
	return outcome, nil
}

// command builds the exec.Cmd shared by Run and Capture.
func (i *Interpreter) command(ctx context.Context, inv *Invocation) *exec.Cmd {
	// G204: the command line is constructed by the cmdline package from a
	// validated program name and single-quoted arguments before it reaches
	// this point; the interpreter path is configuration, not request data.
	// #nosec G204 -- command lines are validated and quoted upstream
	cmd := exec.CommandContext(ctx, i.path, "-c", inv.Line)

	if len(inv.Env) > 0 {
		cmd.Env = inv.Env
	} else {
		cmd.Env = i.minimalEnv
	}

	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}

	if inv.Stdin != nil {
		cmd.Stdin = inv.Stdin
	}

	cmd.SysProcAttr = defaultSysProcAttr()
	cmd.WaitDelay = waitDelay
	return cmd
}

// fill copies process state onto the outcome once the command has run.
func (i *Interpreter) fill(outcome *Outcome, cmd *exec.Cmd) {
	state := cmd.ProcessState
	if state == nil {
		return
	}

	outcome.ExitCode = state.ExitCode()
	outcome.Pid = state.Pid()

	if sig, ok := extractSignal(state.Sys()); ok {
		outcome.Signal = sig
	}
}
