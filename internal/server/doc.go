// Package server provides the MCP server context and the optional
// Prometheus metrics endpoint.
//
// ServerContext is the composition root for a running server: it owns
// the credential store, the token refresher, the account binder, and
// the interactive OAuth flow, and hands out per-account Google API
// clients with lazy initialization and caching. Clients are built over
// HTTP transports that refresh and persist tokens transparently, so
// tool handlers never touch token material directly.
//
// MetricsServer serves the instrumentation registry on a dedicated
// port, isolated from the MCP transport.
package server
