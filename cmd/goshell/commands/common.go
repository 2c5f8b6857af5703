package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/victoralfred/goshell"
	"github.com/victoralfred/goshell/ruleset"
	"github.com/victoralfred/goshell/runner"
)

// fallbackTimeout bounds dispatches when neither --timeout nor a ruleset
// timeout applies.
const fallbackTimeout = 30 * time.Second

// options carries the persistent flags shared by the dispatching
// subcommands.
type options struct {
	rules   string
	timeout time.Duration
	shell   string
}

// loadRules loads and compiles the ruleset named by --rules. A nil ruleset
// with a nil error means no ruleset was requested.
func (o *options) loadRules(cmd *cobra.Command) (*ruleset.Compiled, error) {
	if o.rules == "" {
		return nil, nil
	}

	loader, err := goshell.LoadRulesFromPath(o.rules)
	if err != nil {
		return nil, fmt.Errorf("opening ruleset: %w", err)
	}

	compiled, err := loader.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}

	return compiled, nil
}

// dispatcher assembles a dispatcher wired to the command's streams, with
// the ruleset from --rules enforced when one was given. The interpreter is
// resolved as --shell, then the ruleset's shell override, then the default.
func (o *options) dispatcher(cmd *cobra.Command) (*goshell.Dispatcher, *ruleset.Compiled, error) {
	rules, err := o.loadRules(cmd)
	if err != nil {
		return nil, nil, err
	}

	shell := o.shell
	if shell == "" && rules != nil {
		shell = rules.Shell()
	}

	sysOpts := []runner.SystemOption{
		runner.WithStdin(cmd.InOrStdin()),
		runner.WithStdout(cmd.OutOrStdout()),
		runner.WithStderr(cmd.ErrOrStderr()),
	}
	if shell != "" {
		sysOpts = append(sysOpts, runner.WithShell(shell))
	}

	dispatchOpts := []goshell.Option{
		goshell.WithBackend(runner.NewSystem(sysOpts...)),
	}
	if rules != nil {
		dispatchOpts = append(dispatchOpts, goshell.WithRules(rules))
	}

	return goshell.New(dispatchOpts...), rules, nil
}

// effectiveTimeout resolves the timeout for one program: the --timeout
// flag wins, then the ruleset's per-program timeout, then the fallback.
func (o *options) effectiveTimeout(rules *ruleset.Compiled, program string) time.Duration {
	if o.timeout > 0 {
		return o.timeout
	}
	if rules != nil {
		if t := rules.TimeoutFor(program); t > 0 {
			return t
		}
	}
	return fallbackTimeout
}

// buildCommand assembles the command a dispatching subcommand will hand to
// the dispatcher.
func buildCommand(program string, args []string, env map[string]string, dir string, timeout time.Duration) (*goshell.Command, error) {
	builder := goshell.Cmd(program, args...).WithEnvMap(env)
	if dir != "" {
		builder = builder.WithWorkingDir(dir)
	}
	if timeout > 0 {
		builder = builder.WithTimeout(timeout)
	}
	return builder.Build()
}

// parseEnv parses KEY=VALUE pairs into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid env var %q: must be KEY=VALUE", pair)
		}
		env[parts[0]] = parts[1]
	}
	return env, nil
}

// ExitError carries the exit code the process should exit with.
type ExitError struct {
	Code int
}

// Error returns the error message.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode maps an Execute error to the process exit code: 0 for nil, the
// carried code for an ExitError, 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
