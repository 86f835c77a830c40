package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/logging"
)

// DefaultRefreshSkew is how early before expiry a token is refreshed. It
// absorbs clock drift and request latency so a token handed to a tool never
// expires mid-call.
const DefaultRefreshSkew = 60 * time.Second

// RefreshRecorder receives the outcome of every refresh attempt. It is
// satisfied by instrumentation.Metrics.
type RefreshRecorder interface {
	RecordTokenRefresh(ctx context.Context, result string)
}

// Refresher hands out non-expired access tokens, refreshing lazily through
// the stored refresh token. It sits in front of every tool call.
type Refresher struct {
	store    *credentials.Store
	oauth    *oauth2.Config
	skew     time.Duration
	logger   *slog.Logger
	recorder RefreshRecorder
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshSkew sets the early-refresh window.
func WithRefreshSkew(d time.Duration) RefresherOption {
	return func(r *Refresher) { r.skew = d }
}

// WithRefresherLogger sets a custom logger.
func WithRefresherLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = logger }
}

// WithRefreshRecorder sets the recorder notified on every refresh attempt.
func WithRefreshRecorder(recorder RefreshRecorder) RefresherOption {
	return func(r *Refresher) { r.recorder = recorder }
}

// NewRefresher creates a refresher over the given store and oauth2
// configuration.
func NewRefresher(store *credentials.Store, oauthCfg *oauth2.Config, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		store:  store,
		oauth:  oauthCfg,
		skew:   DefaultRefreshSkew,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Token returns a valid access token for email. If the stored token expires
// within the skew window, at most one refresh is attempted: success persists
// the updated record (refresh token preserved), a provider invalid_grant
// surfaces ErrAuthRequired, and a transient failure surfaces ErrTokenRefresh
// without handing out the near-expiry token.
func (r *Refresher) Token(ctx context.Context, email string) (*oauth2.Token, error) {
	rec, err := r.store.Load(email)
	if err != nil {
		return nil, err
	}

	if !rec.ExpiredWithin(r.skew) {
		return rec.Token(), nil
	}

	if rec.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token for %s expired and no refresh token stored",
			ErrAuthRequired, logging.AnonymizeEmail(email))
	}

	newTok, err := r.refresh(ctx, rec)
	if r.recorder != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		r.recorder.RecordTokenRefresh(ctx, result)
	}
	if err != nil {
		return nil, err
	}

	updated := credentials.NewRecord(email, newTok, rec.Scopes)
	if updated.RefreshToken == "" {
		// Google omits the refresh token on refresh responses; keep ours.
		updated.RefreshToken = rec.RefreshToken
	}
	if err := r.store.Save(email, updated); err != nil {
		return nil, fmt.Errorf("persisting refreshed token: %w", err)
	}

	r.logger.Debug("refreshed access token",
		logging.UserHash(email),
		slog.Time("expiry", updated.Expiry))
	return updated.Token(), nil
}

// refresh performs a single refresh round-trip with the stored refresh token.
func (r *Refresher) refresh(ctx context.Context, rec credentials.Record) (*oauth2.Token, error) {
	// Hand TokenSource an expired copy so it always hits the token endpoint
	// exactly once rather than returning the cached access token.
	stale := rec.Token()
	stale.Expiry = time.Unix(1, 0)

	newTok, err := r.oauth.TokenSource(ctx, stale).Token()
	if err != nil {
		if isInvalidGrant(err) {
			return nil, fmt.Errorf("%w: refresh token revoked or expired for %s",
				ErrAuthRequired, logging.AnonymizeEmail(rec.Email))
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	return newTok, nil
}

// isInvalidGrant reports whether the provider rejected the refresh token
// itself, which re-authentication is the only cure for.
func isInvalidGrant(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	return retrieveErr.ErrorCode == "invalid_grant"
}
