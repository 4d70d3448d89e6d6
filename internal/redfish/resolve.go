package redfish

import (
	"fmt"

	"github.com/nokia/mcp-redfish/internal/config"
	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/internal/retry"
)

// Resolved is a fully resolved connection configuration for one host:
// every field has its effective value after applying the fleet-wide
// defaults to the host entry's overrides.
type Resolved struct {
	Address         string
	Port            int
	Username        string
	Password        string
	AuthMethod      string
	TLSServerCACert string
}

// Endpoint returns the base URL of the host's Redfish service.
func (r Resolved) Endpoint() string {
	return fmt.Sprintf("https://%s:%d", r.Address, r.Port)
}

// Resolve merges a host entry with the fleet defaults, host values
// winning field by field. An unsupported auth method fails fast with a
// validation error; it is never worth a retry.
func Resolve(entry hosts.Entry, defaults config.Defaults) (Resolved, error) {
	if entry.Address == "" {
		return Resolved{}, retry.Validationf("host address cannot be empty")
	}

	r := Resolved{
		Address:         entry.Address,
		Port:            entry.Port,
		Username:        entry.Username,
		Password:        entry.Password,
		AuthMethod:      entry.AuthMethod,
		TLSServerCACert: entry.TLSServerCACert,
	}
	if r.Port == 0 {
		r.Port = defaults.Port
	}
	if r.Port == 0 {
		r.Port = 443
	}
	if r.Username == "" {
		r.Username = defaults.Username
	}
	if r.Password == "" {
		r.Password = defaults.Password
	}
	if r.AuthMethod == "" {
		r.AuthMethod = defaults.AuthMethod
	}
	if r.AuthMethod == "" {
		r.AuthMethod = hosts.AuthMethodSession
	}
	if r.TLSServerCACert == "" {
		r.TLSServerCACert = defaults.TLSServerCACert
	}

	if r.AuthMethod != hosts.AuthMethodBasic && r.AuthMethod != hosts.AuthMethodSession {
		return Resolved{}, retry.Validationf("invalid auth_method %q for host %s, allowed values: %q, %q",
			r.AuthMethod, r.Address, hosts.AuthMethodBasic, hosts.AuthMethodSession)
	}
	if r.Port < 1 || r.Port > 65535 {
		return Resolved{}, retry.Validationf("invalid port %d for host %s", r.Port, r.Address)
	}
	return r, nil
}
