package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, `[{"address": "127.0.0.1"}]`, cfg.HostsJSON)
	assert.Equal(t, 443, cfg.Defaults.Port)
	assert.Equal(t, "session", cfg.Defaults.AuthMethod)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.False(t, cfg.Discovery.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Discovery.Interval)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 60*time.Second, cfg.Retry.MaxDelay)
	assert.True(t, cfg.Retry.Jitter)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REDFISH_HOSTS", `[{"address":"10.0.0.1"}]`)
	t.Setenv("REDFISH_PORT", "8443")
	t.Setenv("REDFISH_AUTH_METHOD", "basic")
	t.Setenv("REDFISH_USERNAME", "admin")
	t.Setenv("REDFISH_MAX_RETRIES", "5")
	t.Setenv("REDFISH_INITIAL_DELAY", "0.5")
	t.Setenv("REDFISH_MAX_DELAY", "10")
	t.Setenv("REDFISH_BACKOFF_FACTOR", "3")
	t.Setenv("REDFISH_JITTER", "false")
	t.Setenv("REDFISH_DISCOVERY_ENABLED", "true")
	t.Setenv("REDFISH_DISCOVERY_INTERVAL", "60")
	t.Setenv("MCP_TRANSPORT", "sse")
	t.Setenv("MCP_REDFISH_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, `[{"address":"10.0.0.1"}]`, cfg.HostsJSON)
	assert.Equal(t, 8443, cfg.Defaults.Port)
	assert.Equal(t, "basic", cfg.Defaults.AuthMethod)
	assert.Equal(t, "admin", cfg.Defaults.Username)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 3.0, cfg.Retry.BackoffFactor)
	assert.False(t, cfg.Retry.Jitter)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, 60*time.Second, cfg.Discovery.Interval)
	assert.Equal(t, TransportSSE, cfg.Transport)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad transport", "MCP_TRANSPORT", "websocket"},
		{"bad auth method", "REDFISH_AUTH_METHOD", "digest"},
		{"port not a number", "REDFISH_PORT", "https"},
		{"port out of range", "REDFISH_PORT", "99999"},
		{"negative retries", "REDFISH_MAX_RETRIES", "-2"},
		{"backoff factor too small", "REDFISH_BACKOFF_FACTOR", "1"},
		{"discovery interval zero", "REDFISH_DISCOVERY_INTERVAL", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.key, cerr.Knob)
		})
	}
}

func TestLoadMaxDelayMustCoverInitialDelay(t *testing.T) {
	t.Setenv("REDFISH_INITIAL_DELAY", "30")
	t.Setenv("REDFISH_MAX_DELAY", "5")

	_, err := FromEnv()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "REDFISH_MAX_DELAY", cerr.Knob)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
hosts:
  - address: 10.0.0.1
    username: fileuser
defaults:
  port: 444
retry:
  maxRetries: 7
  jitter: false
discovery:
  enabled: true
  intervalSeconds: 120
transport: streamable-http
logLevel: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Env overrides the file where both are set.
	t.Setenv("MCP_TRANSPORT", "stdio")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"address":"10.0.0.1","username":"fileuser"}]`, cfg.HostsJSON)
	assert.Equal(t, 444, cfg.Defaults.Port)
	assert.Equal(t, 7, cfg.Retry.MaxRetries)
	assert.False(t, cfg.Retry.Jitter)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Discovery.Interval)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, TransportStdio, cfg.Transport, "env must win over the file")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestRetryFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("REDFISH_MAX_RETRIES", "not-a-number")

	rc := RetryFromEnv()
	assert.Equal(t, 3, rc.MaxRetries, "invalid values fall back to defaults")
}

func TestRetryFromEnvReadsFresh(t *testing.T) {
	t.Setenv("REDFISH_MAX_RETRIES", "1")
	assert.Equal(t, 1, RetryFromEnv().MaxRetries)

	t.Setenv("REDFISH_MAX_RETRIES", "9")
	assert.Equal(t, 9, RetryFromEnv().MaxRetries, "retry config is re-read on every call, not cached")
}
