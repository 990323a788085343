// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Exposes search, ask, and guided chat tools over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/flowbrave/copilot/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the copilot as an MCP (Model Context Protocol) server, exposing
document search, grounded question answering, and guided sessions
over stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by an MCP client)
  copilot mcp

  # Configure in an MCP client config:
  # {
  #   "mcpServers": {
  #     "copilot": {
  #       "command": "copilot",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	logger := newLogger()
	eng, err := buildEngines(logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	// expire abandoned guided sessions in the background
	eng.guided.Registry().StartSweeper(ctx, eng.cfg.SweepInterval, eng.cfg.SessionWindow, logger)

	server := mcpserver.NewMCPServer(
		"Copilot Engine",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, eng.search, eng.answerer, eng.guided)

	if !quiet {
		logger.Info("mcp server starting on stdio")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			logger.Info("shutdown signal received")
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
