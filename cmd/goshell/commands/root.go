package commands

import (
	"github.com/spf13/cobra"
)

// Root returns the root cobra command with all subcommands attached.
func Root() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "goshell",
		Short: "Build and dispatch shell commands safely",
		Long: "GoShell builds shell command lines with every argument quoted and " +
			"dispatches them through validation and ruleset checks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.rules, "rules", "", "Path to a YAML ruleset enforced before dispatch")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Timeout per dispatch (default: ruleset timeout, then 30s)")
	cmd.PersistentFlags().StringVar(&opts.shell, "shell", "", "Interpreter to run command lines with (default: /bin/sh)")

	cmd.AddCommand(quoteCmd())
	cmd.AddCommand(checkCmd(opts))
	cmd.AddCommand(buildCmd())
	cmd.AddCommand(runCmd(opts))
	cmd.AddCommand(captureCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}
