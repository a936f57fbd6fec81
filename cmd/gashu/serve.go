package main

import (
	"github.com/aretw0/gashu/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	Long: `Serves POST /init and POST /message for chat clients, plus session
administration, an SSE change stream and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return cli.RunServe(cli.ServeOptions{GlobalOptions: globalOptions(cmd), Addr: addr})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
}
