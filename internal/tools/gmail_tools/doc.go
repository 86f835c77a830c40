// Package gmail_tools registers the MCP tools for reading and sending
// Gmail messages.
package gmail_tools
