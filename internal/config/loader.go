package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/internal/retry"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

// ConfigError reports an invalid configuration value, naming the knob
// that carried it.
type ConfigError struct {
	Knob    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Knob, e.Message)
}

// fileConfig is the YAML shape of an optional on-disk configuration
// file. Anything not set in the file keeps its default, and environment
// variables override the file.
type fileConfig struct {
	Hosts     []hosts.Entry `yaml:"hosts,omitempty"`
	Defaults  Defaults      `yaml:"defaults,omitempty"`
	Retry     fileRetry     `yaml:"retry,omitempty"`
	Discovery fileDiscovery `yaml:"discovery,omitempty"`
	Transport string        `yaml:"transport,omitempty"`
	Host      string        `yaml:"host,omitempty"`
	Port      int           `yaml:"port,omitempty"`
	LogLevel  string        `yaml:"logLevel,omitempty"`
}

// Delays are plain seconds in the file, matching the environment
// variables, so a file and an env var never disagree on units.
type fileRetry struct {
	MaxRetries    *int     `yaml:"maxRetries,omitempty"`
	InitialDelay  *float64 `yaml:"initialDelaySeconds,omitempty"`
	MaxDelay      *float64 `yaml:"maxDelaySeconds,omitempty"`
	BackoffFactor *float64 `yaml:"backoffFactor,omitempty"`
	Jitter        *bool    `yaml:"jitter,omitempty"`
}

type fileDiscovery struct {
	Enabled  *bool `yaml:"enabled,omitempty"`
	Interval *int  `yaml:"intervalSeconds,omitempty"`
	Timeout  *int  `yaml:"timeoutSeconds,omitempty"`
}

// Load assembles the configuration: defaults, then the YAML file at
// path (when non-empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		logging.Info("Config", "Loaded configuration file %s", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if !ValidTransport(cfg.Transport) {
		return Config{}, &ConfigError{
			Knob:    "MCP_TRANSPORT",
			Message: fmt.Sprintf("invalid transport %q, must be one of %s, %s, %s", cfg.Transport, TransportStdio, TransportSSE, TransportStreamableHTTP),
		}
	}
	return cfg, nil
}

// FromEnv loads the configuration from environment variables only.
func FromEnv() (Config, error) {
	return Load("")
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Knob: "config file", Message: err.Error()}
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &ConfigError{Knob: "config file", Message: fmt.Sprintf("%s: %v", path, err)}
	}

	if len(fc.Hosts) > 0 {
		// The registry consumes the static host list as JSON, so a file
		// host list is re-encoded into the same shape the env var uses.
		raw, err := json.Marshal(fc.Hosts)
		if err != nil {
			return &ConfigError{Knob: "config file", Message: fmt.Sprintf("encoding hosts: %v", err)}
		}
		cfg.HostsJSON = string(raw)
	}
	if fc.Defaults.Port != 0 {
		cfg.Defaults.Port = fc.Defaults.Port
	}
	if fc.Defaults.AuthMethod != "" {
		cfg.Defaults.AuthMethod = fc.Defaults.AuthMethod
	}
	if fc.Defaults.Username != "" {
		cfg.Defaults.Username = fc.Defaults.Username
	}
	if fc.Defaults.Password != "" {
		cfg.Defaults.Password = fc.Defaults.Password
	}
	if fc.Defaults.TLSServerCACert != "" {
		cfg.Defaults.TLSServerCACert = fc.Defaults.TLSServerCACert
	}
	if fc.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *fc.Retry.MaxRetries
	}
	if fc.Retry.InitialDelay != nil {
		cfg.Retry.InitialDelay = secondsToDuration(*fc.Retry.InitialDelay)
	}
	if fc.Retry.MaxDelay != nil {
		cfg.Retry.MaxDelay = secondsToDuration(*fc.Retry.MaxDelay)
	}
	if fc.Retry.BackoffFactor != nil {
		cfg.Retry.BackoffFactor = *fc.Retry.BackoffFactor
	}
	if fc.Retry.Jitter != nil {
		cfg.Retry.Jitter = *fc.Retry.Jitter
	}
	if fc.Discovery.Enabled != nil {
		cfg.Discovery.Enabled = *fc.Discovery.Enabled
	}
	if fc.Discovery.Interval != nil {
		cfg.Discovery.Interval = time.Duration(*fc.Discovery.Interval) * time.Second
	}
	if fc.Discovery.Timeout != nil {
		cfg.Discovery.Timeout = time.Duration(*fc.Discovery.Timeout) * time.Second
	}
	if fc.Transport != "" {
		cfg.Transport = fc.Transport
	}
	if fc.Host != "" {
		cfg.Host = fc.Host
	}
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("REDFISH_HOSTS"); ok {
		cfg.HostsJSON = v
	}
	var err error
	if cfg.Defaults.Port, err = envInt("REDFISH_PORT", cfg.Defaults.Port, 1, 65535); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("REDFISH_AUTH_METHOD"); ok {
		if v != hosts.AuthMethodBasic && v != hosts.AuthMethodSession {
			return &ConfigError{
				Knob:    "REDFISH_AUTH_METHOD",
				Message: fmt.Sprintf("invalid auth method %q, must be %q or %q", v, hosts.AuthMethodBasic, hosts.AuthMethodSession),
			}
		}
		cfg.Defaults.AuthMethod = v
	}
	cfg.Defaults.Username = envString("REDFISH_USERNAME", cfg.Defaults.Username)
	cfg.Defaults.Password = envString("REDFISH_PASSWORD", cfg.Defaults.Password)
	cfg.Defaults.TLSServerCACert = envString("REDFISH_SERVER_CA_CERT", cfg.Defaults.TLSServerCACert)

	if err := applyRetryEnv(&cfg.Retry); err != nil {
		return err
	}

	cfg.Discovery.Enabled = envBool("REDFISH_DISCOVERY_ENABLED", cfg.Discovery.Enabled)
	interval, err := envInt("REDFISH_DISCOVERY_INTERVAL", int(cfg.Discovery.Interval/time.Second), 1, 0)
	if err != nil {
		return err
	}
	cfg.Discovery.Interval = time.Duration(interval) * time.Second

	cfg.Transport = envString("MCP_TRANSPORT", cfg.Transport)
	cfg.Host = envString("MCP_REDFISH_HOST", cfg.Host)
	if cfg.Port, err = envInt("MCP_REDFISH_PORT", cfg.Port, 1, 65535); err != nil {
		return err
	}
	cfg.LogLevel = envString("MCP_REDFISH_LOG_LEVEL", cfg.LogLevel)
	return nil
}

func applyRetryEnv(rc *retry.Config) error {
	maxRetries, err := envInt("REDFISH_MAX_RETRIES", rc.MaxRetries, 0, 0)
	if err != nil {
		return err
	}
	rc.MaxRetries = maxRetries

	if rc.InitialDelay, err = envSeconds("REDFISH_INITIAL_DELAY", rc.InitialDelay); err != nil {
		return err
	}
	if rc.MaxDelay, err = envSeconds("REDFISH_MAX_DELAY", rc.MaxDelay); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("REDFISH_BACKOFF_FACTOR"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 1 {
			return &ConfigError{Knob: "REDFISH_BACKOFF_FACTOR", Message: fmt.Sprintf("must be a number greater than 1, got %q", v)}
		}
		rc.BackoffFactor = f
	}
	rc.Jitter = envBool("REDFISH_JITTER", rc.Jitter)

	if rc.MaxDelay < rc.InitialDelay {
		return &ConfigError{Knob: "REDFISH_MAX_DELAY", Message: "must be greater than or equal to REDFISH_INITIAL_DELAY"}
	}
	return nil
}

// RetryFromEnv reads the retry knobs fresh. Called every time a client
// is constructed; the configuration is intentionally not cached.
func RetryFromEnv() retry.Config {
	rc := retry.DefaultConfig()
	if err := applyRetryEnv(&rc); err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			logging.Warn("Config", "Ignoring invalid retry setting: %v", cerr)
		}
		return retry.DefaultConfig()
	}
	return rc
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// envInt parses an integer env var with a lower bound and an optional
// upper bound (max 0 means unbounded).
func envInt(key string, fallback, min, max int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ConfigError{Knob: key, Message: fmt.Sprintf("must be an integer, got %q", v)}
	}
	if n < min {
		return 0, &ConfigError{Knob: key, Message: fmt.Sprintf("must be >= %d, got %d", min, n)}
	}
	if max > 0 && n > max {
		return 0, &ConfigError{Knob: key, Message: fmt.Sprintf("must be <= %d, got %d", max, n)}
	}
	return n, nil
}

// envSeconds parses a float number of seconds into a duration.
func envSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		return 0, &ConfigError{Knob: key, Message: fmt.Sprintf("must be a non-negative number of seconds, got %q", v)}
	}
	return secondsToDuration(f), nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
