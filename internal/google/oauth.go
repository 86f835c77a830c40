package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/workspacelabs/workspace-mcp/internal/config"
)

// OAuthConfig builds the oauth2 configuration for the authorization-code
// exchange and token refresh from the resolved process configuration.
func OAuthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.RedirectURL(),
		Scopes:       DefaultOAuthScopes,
	}
}

// TokenSource is the narrow contract the Workspace API wrappers consume: a
// source of valid, non-expired access tokens for one account. The token
// refresher satisfies it.
type TokenSource interface {
	Token(ctx context.Context, email string) (*oauth2.Token, error)
}

// Client returns an HTTP client whose transport draws tokens for email from
// ts on every request. Requests fail with the refresher's typed errors when
// the account needs re-authentication.
func Client(ctx context.Context, ts TokenSource, email string) *http.Client {
	return oauth2.NewClient(ctx, accountTokenSource{ctx: ctx, ts: ts, email: email})
}

type accountTokenSource struct {
	ctx   context.Context
	ts    TokenSource
	email string
}

func (a accountTokenSource) Token() (*oauth2.Token, error) {
	return a.ts.Token(a.ctx, a.email)
}
