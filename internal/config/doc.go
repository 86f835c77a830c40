// Package config resolves the per-process configuration for the workspace-mcp
// server, most importantly the credentials directory that scopes all credential
// reads and writes for one server instance.
//
// The resolved Config is an immutable value produced once at startup and passed
// explicitly into the credential store and OAuth flow constructors. There is no
// process-wide mutable "current directory": two processes configured with
// different override directories never touch each other's files, and neither
// falls back to the shared default once an override is present.
package config
