package cli

import (
	"fmt"

	"github.com/mvp-joe/phpintel/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for coding agents",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
query the project: completion candidates, declaration locations, resolved
types, namespace imports, PSR-4 namespaces and the class hierarchy.

The server communicates via stdio (standard MCP transport); logs go to stderr.

Example:
  phpintel mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	server, err := mcp.NewMCPServer(svc, Version)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
