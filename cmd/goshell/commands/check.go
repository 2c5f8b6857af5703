package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/victoralfred/goshell"
)

func checkCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <program> [args...]",
		Short: "Validate a command without dispatching it",
		Long: "Check validates the program name, and when --rules is given also " +
			"evaluates the command against the ruleset, printing each violation.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := goshell.Cmd(args[0], args[1:]...).Build()
			if err != nil {
				return err
			}

			rules, err := opts.loadRules(cmd)
			if err != nil {
				return err
			}

			if rules != nil {
				verdict, err := rules.Evaluate(cmd.Context(), command)
				if err != nil {
					return err
				}
				if !verdict.Allowed {
					for _, v := range verdict.Violations {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", v.Code, v.Field, v.Message)
					}
					return fmt.Errorf("refused by ruleset %s: %s", verdict.Version, verdict.Reason)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	// Arguments may begin with a dash; stop flag parsing at the program.
	cmd.Flags().SetInterspersed(false)

	return cmd
}
