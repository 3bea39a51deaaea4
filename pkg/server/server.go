// Package server assembles the MCP server that exposes the map tools.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mapmcp/mapmcp/pkg/config"
	"github.com/mapmcp/mapmcp/pkg/osm"
	"github.com/mapmcp/mapmcp/pkg/tools"
	"github.com/mapmcp/mapmcp/pkg/tools/prompts"
	"github.com/mapmcp/mapmcp/pkg/version"
)

// ServerName is the name this server reports to MCP clients.
const ServerName = "map-mcp-server"

// Server wires the map tools into an MCP server speaking over stdio.
type Server struct {
	srv        *server.MCPServer
	dispatcher *tools.Dispatcher
	logger     *slog.Logger
}

// NewServer builds a server from the given configuration: one shared
// service client, every map tool registered, and the guidance prompts
// attached.
func NewServer(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initializing map MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	client := osm.NewClient(cfg, logger)

	registry := tools.NewRegistry(logger)
	osmTools := tools.NewOSMServer(client, logger)
	osrmTools := tools.NewOSRMServer(client, logger)
	if err := registry.Register(osmTools.Definitions()...); err != nil {
		return nil, fmt.Errorf("register osm tools: %w", err)
	}
	if err := registry.Register(osrmTools.Definitions()...); err != nil {
		return nil, fmt.Errorf("register osrm tools: %w", err)
	}

	dispatcher := tools.NewDispatcher(registry, logger)

	srv := server.NewMCPServer(
		ServerName,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, def := range registry.Definitions() {
		srv.AddTool(def.MCPTool(), dispatcher.MCPHandler(def.Name))
	}
	prompts.RegisterMapPrompts(srv)

	return &Server{srv: srv, dispatcher: dispatcher, logger: logger}, nil
}

// Dispatcher returns the dispatcher behind the MCP surface so tools
// can be invoked directly, mainly from tests.
func (s *Server) Dispatcher() *tools.Dispatcher {
	return s.dispatcher
}

// Run serves MCP over stdin/stdout until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.srv)
}

// RunWithContext serves MCP over stdin/stdout until ctx is canceled or
// the client disconnects.
func (s *Server) RunWithContext(ctx context.Context) error {
	return server.NewStdioServer(s.srv).Listen(ctx, os.Stdin, os.Stdout)
}
