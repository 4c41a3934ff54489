package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theapemachine/senseable-go/pkg/mcpsrv"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the rewrite tools over MCP stdio",
	Long:  longMCP,
	RunE: func(cmd *cobra.Command, args []string) error {
		system, err := bootstrap()
		if err != nil {
			return err
		}

		return mcpsrv.NewServer(system.pipeline).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var longMCP = `
Expose the rewrite and analyze operations as MCP tools over stdio, for use
by agent frameworks and editors that speak the protocol.
`
