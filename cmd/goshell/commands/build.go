package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/victoralfred/goshell"
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <program> [args...]",
		Short: "Print the built command line without dispatching it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := goshell.Build(args[0], args[1:]...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}

	// Arguments may begin with a dash; stop flag parsing at the program.
	cmd.Flags().SetInterspersed(false)

	return cmd
}
