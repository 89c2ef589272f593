package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uyuni-project/lcdconf/translate"
)

// modesCmd represents the modes command
var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "Lists the supported modes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, mode := range translate.Modes() {
			fmt.Fprintln(cmd.OutOrStdout(), mode)
		}
	},
}

func init() {
	RootCmd.AddCommand(modesCmd)
}
