package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nokia/mcp-redfish/internal/config"
	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/internal/redfish"
	"github.com/nokia/mcp-redfish/internal/retry"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

const serverName = "mcp-redfish"

// resourceClient is the slice of the Redfish client the tool handlers
// use. Narrow on purpose: it lets tests swap in a fake without a BMC.
type resourceClient interface {
	Get(ctx context.Context, path string) (*redfish.Resource, error)
	Close()
}

type clientFactory func(ctx context.Context, entry hosts.Entry) (resourceClient, error)

// Server exposes the Redfish fleet as MCP tools. It owns the MCP
// protocol server and serves it over the configured transport.
type Server struct {
	registry  *hosts.Registry
	defaults  config.Defaults
	transport string
	host      string
	port      int

	mcpServer *server.MCPServer
	newClient clientFactory
}

// NewServer builds the MCP server and registers the tool set.
func NewServer(registry *hosts.Registry, cfg config.Config, version string) *Server {
	s := &Server{
		registry:  registry,
		defaults:  cfg.Defaults,
		transport: cfg.Transport,
		host:      cfg.Host,
		port:      cfg.Port,
	}
	s.newClient = s.dialHost

	s.mcpServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// dialHost builds a client for one logical operation. The retry
// configuration is read fresh from the environment on every call; it is
// deliberately not cached on the server.
func (s *Server) dialHost(ctx context.Context, entry hosts.Entry) (resourceClient, error) {
	policy := retry.NewPolicy(config.RetryFromEnv())
	return redfish.Connect(ctx, entry, s.defaults, policy)
}

func (s *Server) registerTools() {
	listServersTool := mcp.NewTool("list_servers",
		mcp.WithDescription("List all Redfish servers that can be accessed"),
	)
	s.mcpServer.AddTool(listServersTool, s.handleListServers)

	getResourceTool := mcp.NewTool("get_resource_data",
		mcp.WithDescription("Fetch a Redfish resource and return its headers and data as JSON. "+
			"Build the URL as https://<server address>/redfish/v1/<resource path>."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The Redfish URL of the resource, e.g. https://10.0.0.1/redfish/v1/Systems"),
		),
	)
	s.mcpServer.AddTool(getResourceTool, s.handleGetResourceData)
}

// Run serves the MCP protocol over the configured transport until ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	switch s.transport {
	case config.TransportSSE:
		logging.Info("Tools", "Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(
			s.mcpServer,
			server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		return runHTTP(ctx, func() error { return sseServer.Start(addr) }, sseServer.Shutdown)

	case config.TransportStreamableHTTP:
		logging.Info("Tools", "Starting MCP server with streamable-http transport on %s", addr)
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		return runHTTP(ctx, func() error { return httpServer.Start(addr) }, httpServer.Shutdown)

	default: // stdio
		logging.Info("Tools", "Starting MCP server with stdio transport")
		stdioServer := server.NewStdioServer(s.mcpServer)
		err := stdioServer.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func runHTTP(ctx context.Context, start func() error, shutdown func(context.Context) error) error {
	errc := make(chan error, 1)
	go func() { errc <- start() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logging.Error("Tools", err, "Error shutting down MCP transport")
		}
		return nil
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
