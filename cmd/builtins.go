package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gynamics/pish/core/interp"
)

// builtinsCmd lists the shell builtins without starting a shell.
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the shell's builtin commands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, b := range interp.Builtins() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.Name, b.Help[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
