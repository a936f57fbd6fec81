package main

import (
	"github.com/aretw0/gashu/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the assistant as MCP tools so agents can hold a conversation.

Supported Transports:
- stdio (default): Uses Standard Input/Output.
- sse: Uses Server-Sent Events over HTTP when --port is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		return cli.RunMCP(cli.MCPOptions{GlobalOptions: globalOptions(cmd), Port: port})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().IntP("port", "p", 0, "Serve SSE on this port instead of stdio")
}
