// Package docs_tools registers the MCP tools for reading and finding
// Google Docs.
package docs_tools
