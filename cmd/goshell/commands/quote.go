package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/victoralfred/goshell"
)

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <value>...",
		Short: "Quote values for safe use in a shell line",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			quoted := make([]string, len(args))
			for i, arg := range args {
				quoted[i] = goshell.Quote(arg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(quoted, " "))
		},
	}

	// Values may begin with a dash; stop flag parsing at the first one.
	cmd.Flags().SetInterspersed(false)

	return cmd
}
