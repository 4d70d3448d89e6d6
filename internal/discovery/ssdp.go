package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

const (
	ssdpAddr = "239.255.255.250"
	ssdpPort = 1900
	ssdpMX   = 2
	// searchTarget identifies the Redfish discovery service in the
	// M-SEARCH probe.
	searchTarget = "urn:dmtf-org:service:redfish-rest:1"

	serviceRootPath = "/redfish/v1"
)

var alHeaderRe = regexp.MustCompile(`(?i)^AL:\s*(.*)`)

// Discoverer finds Redfish endpoints on the local network with a single
// SSDP M-SEARCH probe, collecting replies until Timeout elapses.
type Discoverer struct {
	Timeout time.Duration
}

// Discover sends one multicast probe and returns every endpoint that
// advertised a valid Redfish service root. Socket errors and malformed
// replies degrade to a partial (possibly empty) result; Discover never
// fails. Same-address duplicates within one cycle are preserved; the
// registry collapses them on merge.
func (d *Discoverer) Discover(ctx context.Context) []hosts.Entry {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	message := fmt.Sprintf("M-SEARCH * HTTP/1.1\r\n"+
		"HOST: %s:%d\r\n"+
		"MAN: \"ssdp:discover\"\r\n"+
		"MX: %d\r\n"+
		"ST: %s\r\n\r\n",
		ssdpAddr, ssdpPort, ssdpMX, searchTarget)

	logging.Info("Discovery", "Starting SSDP discovery (timeout %s)", timeout)

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		logging.Error("Discovery", err, "Failed to open SSDP socket")
		return nil
	}
	defer conn.Close()

	dest := &net.UDPAddr{IP: net.ParseIP(ssdpAddr), Port: ssdpPort}
	if _, err := conn.WriteTo([]byte(message), dest); err != nil {
		logging.Error("Discovery", err, "Failed to send SSDP probe")
		return nil
	}

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		logging.Error("Discovery", err, "Failed to set SSDP read deadline")
		return nil
	}

	var found []hosts.Entry
	buf := make([]byte, 1024)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				logging.Debug("Discovery", "SSDP discovery window elapsed")
				break
			}
			logging.Error("Discovery", err, "Error receiving SSDP response")
			continue
		}

		entry, ok := parseResponse(string(buf[:n]), addr)
		if !ok {
			continue
		}
		logging.Info("Discovery", "Discovered Redfish endpoint %s at %s", entry.Address, entry.ServiceRoot)
		found = append(found, entry)
	}
	return found
}

// parseResponse extracts a host entry from one SSDP reply. Replies
// without a valid AL header are dropped, logged at debug only.
func parseResponse(response string, from net.Addr) (hosts.Entry, bool) {
	uri := parseALHeader(response)
	if uri == "" {
		logging.Debug("Discovery", "SSDP response from %s carries no AL header", from)
		return hosts.Entry{}, false
	}
	if !validServiceRoot(uri) {
		logging.Debug("Discovery", "SSDP response from %s has invalid service root %q", from, uri)
		return hosts.Entry{}, false
	}

	address := from.String()
	if host, _, err := net.SplitHostPort(address); err == nil {
		address = host
	}
	return hosts.Entry{Address: address, ServiceRoot: uri}, true
}

// parseALHeader finds the AL header in an SSDP reply and returns its
// value, or "" when absent.
func parseALHeader(response string) string {
	for _, line := range strings.Split(response, "\n") {
		if m := alHeaderRe.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// validServiceRoot accepts only https URIs with an authority and the
// exact Redfish service root path, with an optional trailing slash.
func validServiceRoot(uri string) bool {
	parsed, err := url.Parse(uri)
	if err != nil {
		return false
	}
	if parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	return parsed.Path == serviceRootPath || parsed.Path == serviceRootPath+"/"
}
