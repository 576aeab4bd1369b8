// Package mcp exposes project queries as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
)

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	queries Queries
	mcp     *server.MCPServer
}

// NewMCPServer creates an MCP server with every phpintel tool registered.
func NewMCPServer(queries Queries, version string) (*MCPServer, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries are required")
	}

	mcpServer := server.NewMCPServer(
		"phpintel",
		version,
		server.WithToolCapabilities(true),
	)
	AddTools(mcpServer, queries)

	return &MCPServer{
		queries: queries,
		mcp:     mcpServer,
	}, nil
}

// Server returns the underlying MCP server.
func (s *MCPServer) Server() *server.MCPServer {
	return s.mcp
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
