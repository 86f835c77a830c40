// Package common holds helpers shared by the MCP tool packages:
// account resolution from request arguments, instrumentation wrappers,
// and uniform mapping of auth errors to actionable tool results.
package common
