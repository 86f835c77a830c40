// Package gmail wraps the Gmail API for the MCP tool layer.
//
// The client is a collaborator of the credential subsystem: it is constructed
// from an HTTP client whose transport draws refreshed access tokens from the
// token refresher, and it never touches credential storage itself.
package gmail
