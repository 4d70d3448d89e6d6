package hosts

import (
	"sync"

	"github.com/nokia/mcp-redfish/pkg/logging"
)

// Registry is the single shared view of all known Redfish endpoints.
// Static hosts are loaded once at startup; discovered hosts are swapped
// wholesale by each discovery cycle. On merge, a static entry always
// wins over a discovered entry with the same address.
type Registry struct {
	mu         sync.RWMutex
	static     []Entry
	discovered []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// LoadStatic parses the statically configured host list. Malformed
// input degrades to an empty static list with a logged error: a config
// typo must never take the registry down.
func (r *Registry) LoadStatic(jsonText string) {
	entries, err := ParseEntries([]byte(jsonText))
	if err != nil {
		logging.Error("Hosts", err, "Failed to parse static host configuration")
		entries = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.static = entries
}

// ReplaceDiscovered atomically swaps the discovered host set. Partial
// updates are never visible to readers.
func (r *Registry) ReplaceDiscovered(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovered = entries
}

// AllHosts returns the merged host list: static entries first, in
// insertion order, followed by discovered entries whose address is not
// already present. Discovered duplicates of the same address collapse
// to the first occurrence. Safe to call concurrently with
// ReplaceDiscovered.
func (r *Registry) AllHosts() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := make([]Entry, 0, len(r.static)+len(r.discovered))
	seen := make(map[string]struct{}, len(r.static)+len(r.discovered))
	for _, e := range r.static {
		if _, ok := seen[e.Address]; ok {
			continue
		}
		seen[e.Address] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range r.discovered {
		if _, ok := seen[e.Address]; ok {
			continue
		}
		seen[e.Address] = struct{}{}
		merged = append(merged, e)
	}
	return merged
}

// Find looks up an address in the merged view. Absence is not an error;
// the caller decides how to surface it.
func (r *Registry) Find(address string) (Entry, bool) {
	for _, e := range r.AllHosts() {
		if e.Address == address {
			return e, true
		}
	}
	return Entry{}, false
}
