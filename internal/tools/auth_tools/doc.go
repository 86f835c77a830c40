// Package auth_tools registers the MCP tools for inspecting and driving
// Google account authentication: auth_status, start_google_auth, and
// list_accounts.
package auth_tools
