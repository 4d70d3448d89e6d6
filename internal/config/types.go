package config

import (
	"time"

	"github.com/nokia/mcp-redfish/internal/retry"
)

// MCP transports supported by the server.
const (
	// TransportStdio is the standard I/O transport.
	TransportStdio = "stdio"
	// TransportSSE is the Server-Sent Events transport.
	TransportSSE = "sse"
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
)

// Defaults are the fleet-wide connection settings applied to any host
// entry that does not override them.
type Defaults struct {
	Port            int    `yaml:"port,omitempty"`
	AuthMethod      string `yaml:"authMethod,omitempty"`
	Username        string `yaml:"username,omitempty"`
	Password        string `yaml:"password,omitempty"`
	TLSServerCACert string `yaml:"tlsServerCACert,omitempty"`
}

// DiscoveryConfig controls the periodic SSDP discovery loop.
type DiscoveryConfig struct {
	Enabled  bool          `yaml:"enabled,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Config is the complete server configuration, assembled from defaults,
// an optional YAML file and environment variables, in that order.
type Config struct {
	// HostsJSON is the raw static host list as a JSON array. It is
	// handed to the registry unparsed; the registry degrades malformed
	// input to an empty list instead of failing startup.
	HostsJSON string
	Defaults  Defaults
	Retry     retry.Config
	Discovery DiscoveryConfig
	Transport string
	// Host and Port are only used by the HTTP-based transports.
	Host     string
	Port     int
	LogLevel string
}

// defaultConfig mirrors the documented environment variable defaults.
func defaultConfig() Config {
	return Config{
		HostsJSON: `[{"address": "127.0.0.1"}]`,
		Defaults: Defaults{
			Port:       443,
			AuthMethod: "session",
		},
		Retry: retry.DefaultConfig(),
		Discovery: DiscoveryConfig{
			Enabled:  false,
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
		},
		Transport: TransportStdio,
		Host:      "localhost",
		Port:      8000,
		LogLevel:  "info",
	}
}

// ValidTransport reports whether t names a supported MCP transport.
func ValidTransport(t string) bool {
	switch t {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
		return true
	}
	return false
}
