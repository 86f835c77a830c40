// Package google wires the server to Google's OAuth2 endpoints: the scope set
// the exposed tools require, the oauth2.Config used for the authorization-code
// exchange and token refresh, and authenticated HTTP clients for the Workspace
// API wrappers.
package google
