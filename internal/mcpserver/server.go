// Package mcpserver exposes a running wizard to MCP clients so an assistant
// can inspect progress, fill fields and check steps alongside the user.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/logger"
)

// Wizard is the part of *apply.Controller the tools drive.
type Wizard interface {
	Snapshot() apply.View
	Update(ref form.Ref, value string) error
	Check(n int) (map[string]string, error)
}

// Server is an embedded MCP HTTP server bound to one wizard session.
type Server struct {
	wizard Wizard
	// onChange is called after a tool changed a field.
	onChange func(form.Ref)

	mcpServer *server.MCPServer
	stdServer *http.Server
	port      int
	mu        sync.Mutex
}

// New creates a server for wizard. onChange may be nil.
// The server is not started until Start is called.
func New(wizard Wizard, onChange func(form.Ref)) *Server {
	return &Server{wizard: wizard, onChange: onChange}
}

// Start listens on a random loopback port and returns it.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"applywiz-form",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	// Keep the listener so the port cannot be taken between lookup and serve.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcpServer, server.WithStateLess(true)))
	s.stdServer = &http.Server{Handler: mux}

	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop shuts the HTTP server down. Stopping a stopped server is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}
	if err := s.stdServer.Shutdown(context.Background()); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}
	s.stdServer = nil
	s.mcpServer = nil
	logger.Debug("MCP server stopped")
	return nil
}

// URL returns the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
