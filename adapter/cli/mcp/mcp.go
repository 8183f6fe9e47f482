package mcp

import "github.com/spf13/cobra"

// NewCmd builds the MCP command group.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage the Tempo MCP interface",
	}
	cmd.AddCommand(newServeCmd())
	return cmd
}
