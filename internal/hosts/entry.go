package hosts

import (
	"encoding/json"
	"fmt"
)

// Supported authentication methods against a Redfish endpoint.
const (
	AuthMethodBasic   = "basic"
	AuthMethodSession = "session"
)

// Entry describes one Redfish endpoint, either statically configured or
// found by SSDP discovery. Address is the unique key; everything else is
// optional and falls back to fleet-wide defaults at connect time.
type Entry struct {
	Address         string `json:"address" yaml:"address"`
	Port            int    `json:"port,omitempty" yaml:"port,omitempty"`
	Username        string `json:"username,omitempty" yaml:"username,omitempty"`
	Password        string `json:"password,omitempty" yaml:"password,omitempty"`
	AuthMethod      string `json:"auth_method,omitempty" yaml:"auth_method,omitempty"`
	TLSServerCACert string `json:"tls_server_ca_cert,omitempty" yaml:"tls_server_ca_cert,omitempty"`
	// ServiceRoot is the advertised service root URI. Only set on
	// discovered entries.
	ServiceRoot string `json:"service_root,omitempty" yaml:"service_root,omitempty"`
}

// Validate checks the structural invariants of an entry.
func (e Entry) Validate() error {
	if e.Address == "" {
		return fmt.Errorf("host address cannot be empty")
	}
	if e.Port != 0 && (e.Port < 1 || e.Port > 65535) {
		return fmt.Errorf("host %s: port must be between 1 and 65535, got %d", e.Address, e.Port)
	}
	if e.AuthMethod != "" && e.AuthMethod != AuthMethodBasic && e.AuthMethod != AuthMethodSession {
		return fmt.Errorf("host %s: invalid auth_method %q, must be %q or %q",
			e.Address, e.AuthMethod, AuthMethodBasic, AuthMethodSession)
	}
	return nil
}

// ParseEntries decodes a JSON array of host objects, validating each
// entry. The whole input is rejected on the first invalid entry so a
// typo cannot silently drop a host.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing host list: %w", err)
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("host entry %d: %w", i, err)
		}
	}
	return entries, nil
}
