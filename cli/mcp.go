// ABOUTME: MCP server subcommand
// ABOUTME: Serves the governance tools, resources and prompts over stdio
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds a server with every governance handler registered.
func NewMCPServer(svc *governance.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lifecycle-gate",
		Version: version,
	}, nil)
	handlers.Register(server, svc)
	return server
}

// MCPCommand runs the MCP server on stdio until ctx ends or the client leaves.
func MCPCommand(ctx context.Context, svc *governance.Service, version string, logger *log.Logger) error {
	logger.Info("starting MCP server", "version", version)
	return NewMCPServer(svc, version).Run(ctx, &mcp.StdioTransport{})
}
