// Package mcp exposes the usage and billing operations as Model Context
// Protocol tools, together with the analyst prompt and a config resource.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bgdnvk/spendwise/internal/config"
	"github.com/bgdnvk/spendwise/internal/logger"
	"github.com/bgdnvk/spendwise/internal/tools"
)

// ServerName is advertised to MCP clients.
const ServerName = "aws_cloudwatch_logs"

const shutdownTimeout = 5 * time.Second

// Server wraps an MCP server bound to one tools.Service.
type Server struct {
	cfg       config.Config
	svc       *tools.Service
	mcpServer *mcpserver.MCPServer
	logger    *slog.Logger
}

// NewServer registers every tool, prompt and resource on a fresh MCP server.
func NewServer(svc *tools.Service, version string) *Server {
	s := &Server{
		cfg: svc.Config(),
		svc: svc,
		mcpServer: mcpserver.NewMCPServer(ServerName, version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithPromptCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
		logger: logger.For("mcp"),
	}
	s.registerTools()
	s.registerPrompts()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Serve runs the configured transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting mcp server", "transport", s.cfg.Transport, "addr", s.cfg.Addr)
	switch s.cfg.Transport {
	case "stdio":
		return mcpserver.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	case "sse":
		sse := mcpserver.NewSSEServer(s.mcpServer)
		return s.serveHTTP(ctx, sse.Start, sse.Shutdown)
	case "http":
		streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer)
		return s.serveHTTP(ctx, streamable.Start, streamable.Shutdown)
	default:
		return fmt.Errorf("unsupported transport %q", s.cfg.Transport)
	}
}

func (s *Server) serveHTTP(ctx context.Context, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down mcp server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return shutdown(shutdownCtx)
	}
}
