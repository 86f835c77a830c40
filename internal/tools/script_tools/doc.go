// Package script_tools registers the MCP tools for browsing Apps Script
// projects and their source.
package script_tools
