package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version will be set at build time using -ldflags
var Version = "development"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stencil",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stencil version %s\n", Version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
