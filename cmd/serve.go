package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nokia/mcp-redfish/internal/app"
)

// serveTransport overrides the MCP transport from the configuration
// (stdio, sse or streamable-http).
var serveTransport string

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath optionally points at a YAML configuration file;
// environment variables still override its values.
var serveConfigPath string

// serveCmd starts the MCP server. This is the main command: it loads
// the host configuration, starts SSDP discovery when enabled and
// serves the Redfish tools over the selected transport.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Redfish MCP server",
	Long: `Starts the MCP server exposing the configured Redfish fleet.

Configuration comes from environment variables (REDFISH_HOSTS,
REDFISH_AUTH_METHOD, retry and discovery knobs, MCP_TRANSPORT), with an
optional YAML file via --config. Environment variables win over the
file. With the default stdio transport the process is driven by the
connected MCP client and stops when stdin closes or on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.NewApplication(app.Options{
		ConfigPath: serveConfigPath,
		Transport:  serveTransport,
		Debug:      serveDebug,
		Version:    rootCmd.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio, sse or streamable-http (default from MCP_TRANSPORT)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML configuration file")
}
