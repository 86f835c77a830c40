package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/workspacelabs/workspace-mcp/internal/auth"
	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/server"
)

// AccountArg is the request argument naming the Google account a tool
// call should act as. Optional when a session account is bound.
const AccountArg = "user_google_email"

// ResolveAccount determines the account for a tool call: an explicit
// user_google_email argument wins, otherwise the bound session account.
// Returns auth.ErrAuthRequired when neither is available.
func ResolveAccount(ctx context.Context, sc *server.ServerContext, args map[string]interface{}) (string, error) {
	explicit := ""
	if v, ok := args[AccountArg].(string); ok {
		explicit = v
	}
	return sc.ResolveAccount(ctx, explicit)
}

// AuthErrorMessage renders an auth or credential error as an actionable
// message for the calling agent. Token material never appears in the
// output.
func AuthErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		return "Authentication required. Run the start_google_auth tool and complete the consent flow in your browser."
	case errors.Is(err, auth.ErrFlowInProgress):
		return "An authorization flow is already in progress. Complete it in your browser or wait for it to time out."
	case errors.Is(err, auth.ErrAmbiguousAccount):
		return fmt.Sprintf("Multiple stored accounts found. Pass %s to select one.", AccountArg)
	case errors.Is(err, credentials.ErrNotFound):
		return "No stored credentials for this account. Run the start_google_auth tool first."
	case errors.Is(err, credentials.ErrCorrupt):
		return "Stored credentials for this account are unreadable. Re-authenticate with the start_google_auth tool."
	default:
		return err.Error()
	}
}

// IsAuthError reports whether an error should be presented as an
// authentication problem rather than a service failure.
func IsAuthError(err error) bool {
	return errors.Is(err, auth.ErrAuthRequired) ||
		errors.Is(err, auth.ErrAmbiguousAccount) ||
		errors.Is(err, credentials.ErrNotFound) ||
		errors.Is(err, credentials.ErrCorrupt)
}
