// Package logging provides leveled, structured logging for mcp-redfish,
// built on the standard slog package.
//
// Every log entry carries a subsystem identifier so that output from the
// discovery loop, the Redfish client and the tool layer can be filtered
// independently:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Discovery", "found %d endpoints", n)
//	logging.Error("Client", err, "GET %s failed", path)
//
// Output always goes to the writer passed to Init; when serving MCP over
// stdio that writer must be stderr, because stdout carries the protocol.
package logging
