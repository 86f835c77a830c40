// Package cmd implements the command-line interface for workspace-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio (the default command)
//   - auth: Manage Google account credentials (login, list, revoke)
//   - version: Display version information
//
// The serve command is the default when no subcommand is specified.
package cmd
