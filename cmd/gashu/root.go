package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gashu/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gashu",
	Short: "Gashu is a conversational transit assistant",
	Long: `Gashu guides a rider from a destination and a departure point to a bus
itinerary and live arrival times, one chat turn at a time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file (default: gashu.yaml if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and lifecycle tracing")
}

func globalOptions(cmd *cobra.Command) cli.GlobalOptions {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.GlobalOptions{ConfigPath: path, Debug: debug}
}
