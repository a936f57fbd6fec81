package main

import (
	"github.com/aretw0/gashu/internal/cli"
	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Convert a saved directions response into itineraries",
	Long: `Reads a raw transit directions response (a file, or stdin when omitted or "-")
and prints the normalized itineraries as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := "-"
		if len(args) > 0 {
			input = args[0]
		}
		return cli.RunNormalize(cli.NormalizeOptions{GlobalOptions: globalOptions(cmd), Input: input}, cmd.OutOrStdout())
	},
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage the bus stop database",
}

var stationsImportCmd = &cobra.Command{
	Use:   "import <csv>",
	Short: "Load bus stops from a CSV export into SQLite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ImportStations(cli.ImportOptions{GlobalOptions: globalOptions(cmd), CSV: args[0]}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.AddCommand(stationsImportCmd)
}
