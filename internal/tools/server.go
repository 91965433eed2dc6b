package tools

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/desertthunder/sptx/internal/auth"
	"github.com/desertthunder/sptx/internal/metadata"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
)

const (
	serverName    = "sptx"
	serverVersion = "1.0.0"

	// Cap on external metadata lookups per enhanced search, so one tool
	// call cannot burn minutes against rate-limited upstreams.
	defaultExternalCallLimit = 3
)

// Server exposes Spotify playback, search, playlist, and enrichment
// operations as MCP tools over stdio.
type Server struct {
	mcpServer *mcp.Server
	spotify   *services.SpotifyClient
	metadata  *metadata.Client
	auth      *auth.Manager
	logger    *log.Logger

	externalCallLimit int
}

// New creates a Server wired to the given clients and registers every tool.
func New(spotify *services.SpotifyClient, enrichment *metadata.Client, manager *auth.Manager, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Server{
		spotify:           spotify,
		metadata:          enrichment,
		auth:              manager,
		logger:            logger,
		externalCallLimit: defaultExternalCallLimit,
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		&mcp.ServerOptions{
			Capabilities: &mcp.ServerCapabilities{
				Tools: &mcp.ToolCapabilities{},
			},
		},
	)

	s.registerTools()

	return s
}

// RunStdio runs the server over stdio until ctx is canceled or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}

// RunHTTP runs the server over HTTP/SSE on the given address.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/", sseHandler)

	s.logger.Info("starting MCP server", "transport", "sse", "addr", addr)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	return srv.ListenAndServe()
}
