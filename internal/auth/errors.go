package auth

import "errors"

var (
	// ErrAuthRequired indicates the account has no usable credential and the
	// user must re-authenticate. The tool layer translates this into a
	// re-authentication prompt; it is never retried automatically.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthTimeout indicates no callback arrived within the flow's window.
	ErrAuthTimeout = errors.New("authorization timed out")

	// ErrStateMismatch indicates the callback carried a state token different
	// from the one issued when the flow started. No code is exchanged.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrTokenExchange indicates the authorization-code exchange failed.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrTokenRefresh indicates a transient refresh failure. The caller's
	// near-expiry token is not handed out; the call fails instead.
	ErrTokenRefresh = errors.New("token refresh failed")

	// ErrFlowInProgress indicates a flow is already active on this controller.
	ErrFlowInProgress = errors.New("authorization flow already in progress")

	// ErrAmbiguousAccount indicates the credentials directory holds more than
	// one record in single-user mode. This is a configuration error; the
	// binder never picks one arbitrarily.
	ErrAmbiguousAccount = errors.New("multiple accounts in credentials directory")
)
