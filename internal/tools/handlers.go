package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nokia/mcp-redfish/internal/retry"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

// handleListServers returns the addresses of every Redfish server in
// the merged registry view, static entries first.
func (s *Server) handleListServers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := s.registry.AllHosts()

	addresses := make([]string, 0, len(all))
	for _, e := range all {
		addresses = append(addresses, e.Address)
	}

	jsonData, err := json.Marshal(addresses)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format server list: %v", err)), nil
	}
	logging.Debug("Tools", "list_servers returned %d servers", len(addresses))
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleGetResourceData fetches one Redfish resource. The URL must
// resolve to a known host; unknown hosts fail validation before any
// network I/O happens.
func (s *Server) handleGetResourceData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url argument is required"), nil
	}
	logging.Info("Tools", "get_resource_data %s", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" || parsed.Path == "" {
		return mcp.NewToolResultError(fmt.Sprintf("validation error: invalid URL %q: missing server address or resource path", rawURL)), nil
	}

	entry, ok := s.registry.Find(parsed.Hostname())
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("validation error: server %s not found in configuration", parsed.Hostname())), nil
	}

	client, err := s.newClient(ctx, entry)
	if err != nil {
		return toolError(err), nil
	}
	defer client.Close()

	res, err := client.Get(ctx, parsed.Path)
	if err != nil {
		return toolError(err), nil
	}

	jsonData, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format resource data: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// toolError renders a typed client error so the caller can tell the
// categories apart: validation, retries exhausted, or anything else.
func toolError(err error) *mcp.CallToolResult {
	var verr *retry.ValidationError
	if errors.As(err, &verr) {
		return mcp.NewToolResultError("validation error: " + verr.Msg)
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return mcp.NewToolResultError(exhausted.Error())
	}
	return mcp.NewToolResultError(err.Error())
}
