// Package auth drives the OAuth token lifecycle for one server instance: the
// authorization-code flow with its short-lived local callback listener, lazy
// token refresh in front of every tool call, and the binding of the process to
// one account identity.
//
// One Flow instance covers one authorization attempt and moves through four
// phases: awaiting the browser callback, callback received, exchanging the
// code, and stored (or failed). The callback listener is acquired when the
// flow starts and released on every exit path, so the configured port can be
// bound again immediately after a timeout or cancellation.
package auth
