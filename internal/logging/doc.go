// Package logging provides structured logging helpers for workspace-mcp.
//
// Logging goes through the standard library's slog package with a shared set
// of attribute keys so log lines correlate across the credential store, the
// OAuth flow, and the tool layer. Account emails are hashed before logging and
// token values are never logged directly.
//
// The server speaks MCP over stdio, so log output always goes to stderr.
package logging
