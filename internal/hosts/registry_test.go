package hosts

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantLen int
	}{
		{"empty array", `[]`, false, 0},
		{"single host", `[{"address":"10.0.0.1"}]`, false, 1},
		{"full host", `[{"address":"10.0.0.1","port":8443,"username":"admin","password":"secret","auth_method":"basic","tls_server_ca_cert":"/etc/ca.pem"}]`, false, 1},
		{"not json", `{oops`, true, 0},
		{"object instead of array", `{"address":"10.0.0.1"}`, true, 0},
		{"missing address", `[{"port":443}]`, true, 0},
		{"port out of range", `[{"address":"10.0.0.1","port":70000}]`, true, 0},
		{"bad auth method", `[{"address":"10.0.0.1","auth_method":"digest"}]`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseEntries([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.wantLen)
		})
	}
}

func TestLoadStaticMalformedDegradesToEmpty(t *testing.T) {
	r := NewRegistry()
	r.LoadStatic(`[{"address":"10.0.0.1"}]`)
	require.Len(t, r.AllHosts(), 1)

	// Malformed input replaces the static set with an empty one rather
	// than returning an error or keeping stale data.
	r.LoadStatic(`not json at all`)
	assert.Empty(t, r.AllHosts())
}

func TestAllHostsStaticPrecedence(t *testing.T) {
	r := NewRegistry()
	r.LoadStatic(`[{"address":"10.0.0.1","username":"admin"},{"address":"10.0.0.3"}]`)
	r.ReplaceDiscovered([]Entry{
		{Address: "10.0.0.1", ServiceRoot: "https://10.0.0.1/redfish/v1/", Username: "discovered"},
		{Address: "10.0.0.2", ServiceRoot: "https://10.0.0.2/redfish/v1/"},
	})

	all := r.AllHosts()
	require.Len(t, all, 3)

	// Static entries first, in insertion order, then new discovered ones.
	assert.Equal(t, "10.0.0.1", all[0].Address)
	assert.Equal(t, "10.0.0.3", all[1].Address)
	assert.Equal(t, "10.0.0.2", all[2].Address)

	// The static entry's fields win on address conflict.
	assert.Equal(t, "admin", all[0].Username)
	assert.Empty(t, all[0].ServiceRoot)
}

func TestAllHostsToleratesDuplicateDiscoveries(t *testing.T) {
	// Discovery does not deduplicate same-address replies within one
	// cycle; the registry must collapse them on merge.
	r := NewRegistry()
	r.ReplaceDiscovered([]Entry{
		{Address: "10.0.0.5"},
		{Address: "10.0.0.5"},
		{Address: "10.0.0.6"},
	})

	all := r.AllHosts()
	require.Len(t, all, 2)
	assert.Equal(t, "10.0.0.5", all[0].Address)
	assert.Equal(t, "10.0.0.6", all[1].Address)
}

func TestAllHostsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.LoadStatic(`[{"address":"10.0.0.1"},{"address":"10.0.0.2"}]`)
	r.ReplaceDiscovered([]Entry{{Address: "10.0.0.3"}})

	first := r.AllHosts()
	second := r.AllHosts()
	assert.Equal(t, first, second)
}

func TestReplaceDiscoveredSwapsWholesale(t *testing.T) {
	r := NewRegistry()
	r.ReplaceDiscovered([]Entry{{Address: "10.0.0.1"}, {Address: "10.0.0.2"}})
	r.ReplaceDiscovered([]Entry{{Address: "10.0.0.9"}})

	all := r.AllHosts()
	require.Len(t, all, 1)
	assert.Equal(t, "10.0.0.9", all[0].Address)
}

func TestFind(t *testing.T) {
	r := NewRegistry()
	r.LoadStatic(`[{"address":"10.0.0.1","username":"admin"}]`)
	r.ReplaceDiscovered([]Entry{{Address: "10.0.0.2"}})

	e, ok := r.Find("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, "admin", e.Username)

	_, ok = r.Find("10.0.0.99")
	assert.False(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	r.LoadStatic(`[{"address":"10.0.0.1"}]`)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.ReplaceDiscovered([]Entry{{Address: fmt.Sprintf("10.0.1.%d", i)}})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				all := r.AllHosts()
				// The static host must always be visible, never a
				// partially applied update.
				require.NotEmpty(t, all)
				assert.Equal(t, "10.0.0.1", all[0].Address)
			}
		}()
	}
	wg.Wait()
}
