package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func runCmd(opts *options) *cobra.Command {
	var (
		envVars []string
		dir     string
	)

	cmd := &cobra.Command{
		Use:   "run <program> [args...]",
		Short: "Dispatch a command and propagate its exit code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnv(envVars)
			if err != nil {
				return err
			}

			d, rules, err := opts.dispatcher(cmd)
			if err != nil {
				return err
			}
			defer func() {
				//nolint:errcheck // Shutdown errors are non-critical in cleanup context
				_ = d.Shutdown(context.Background())
			}()

			command, err := buildCommand(args[0], args[1:], env, dir, opts.effectiveTimeout(rules, args[0]))
			if err != nil {
				return err
			}

			res, err := d.Run(cmd.Context(), command)
			if err != nil {
				return err
			}
			if !res.OK {
				return &ExitError{Code: res.Code}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&envVars, "env", "e", nil, "Extra env vars: -e KEY=VALUE")
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "Working directory for the command")

	// Arguments may begin with a dash; stop flag parsing at the program.
	cmd.Flags().SetInterspersed(false)

	return cmd
}
