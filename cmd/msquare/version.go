package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/msquare"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of msquare",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "msquare version %s\n", strings.TrimSpace(msquare.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
