package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gashu"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gashu",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gashu version %s\n", strings.TrimSpace(gashu.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
