package app

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/nokia/mcp-redfish/internal/config"
	"github.com/nokia/mcp-redfish/internal/discovery"
	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/internal/tools"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

// Options are the command-line level settings of a server run. They
// override the corresponding configuration values.
type Options struct {
	// ConfigPath optionally points at a YAML configuration file.
	ConfigPath string
	// Transport overrides the configured MCP transport when non-empty.
	Transport string
	// Debug forces debug-level logging.
	Debug bool
	// Version is the build version injected by main.
	Version string
}

// Application wires the host registry, the discovery runner and the MCP
// tool server together and runs them until shutdown.
type Application struct {
	cfg      config.Config
	registry *hosts.Registry
	tools    *tools.Server
	runner   *discovery.Runner
}

// NewApplication performs the bootstrap sequence: logging,
// configuration, the registry with its static hosts, the tool server,
// and the discovery runner when enabled.
func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.Transport != "" {
		if !config.ValidTransport(opts.Transport) {
			return nil, fmt.Errorf("invalid transport %q", opts.Transport)
		}
		cfg.Transport = opts.Transport
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if opts.Debug {
		level = logging.LevelDebug
	}
	// Stderr keeps log lines off the stdio MCP transport.
	logging.Init(level, os.Stderr)

	registry := hosts.NewRegistry()
	registry.LoadStatic(cfg.HostsJSON)

	a := &Application{
		cfg:      cfg,
		registry: registry,
		tools:    tools.NewServer(registry, cfg, opts.Version),
	}
	if cfg.Discovery.Enabled {
		a.runner = discovery.NewRunner(registry, cfg.Discovery.Interval, cfg.Discovery.Timeout)
	}
	return a, nil
}

// Run serves until ctx is cancelled. The MCP transport and the
// discovery loop run as independent units; a transport failure stops
// the discovery loop through the shared group context.
func (a *Application) Run(ctx context.Context) error {
	logging.Info("Bootstrap", "Starting mcp-redfish (transport %s, %d static hosts, discovery enabled: %v)",
		a.cfg.Transport, len(a.registry.AllHosts()), a.runner != nil)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.tools.Run(ctx) })
	if a.runner != nil {
		g.Go(func() error { return a.runner.Run(ctx) })
	}
	return g.Wait()
}
