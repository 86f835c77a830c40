package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/logging"
)

// IdentityResolver maps an inbound request to an account email. It is the
// extension point for a future multi-user mode; no resolver ships today, and
// without one the binder applies single-user semantics only.
type IdentityResolver func(ctx context.Context) (string, error)

// Binder associates a running process with one account identity. The binding
// is created at startup or by a completed authorization flow and lives for
// the process lifetime.
type Binder struct {
	store    *credentials.Store
	resolver IdentityResolver
	logger   *slog.Logger

	mu    sync.RWMutex
	email string
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithIdentityResolver installs a request-identity resolver consulted before
// the process-wide binding.
func WithIdentityResolver(resolver IdentityResolver) BinderOption {
	return func(b *Binder) { b.resolver = resolver }
}

// WithBinderLogger sets a custom logger.
func WithBinderLogger(logger *slog.Logger) BinderOption {
	return func(b *Binder) { b.logger = logger }
}

// NewBinder creates a binder over the given store.
func NewBinder(store *credentials.Store, opts ...BinderOption) *Binder {
	b := &Binder{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BindStartup binds the process to the sole account in the resolved
// directory. An empty directory leaves the process unbound until a flow
// completes. More than one record is a configuration error: the binder fails
// with ErrAmbiguousAccount rather than choosing one.
func (b *Binder) BindStartup() (string, error) {
	emails, err := b.store.List()
	if err != nil {
		return "", fmt.Errorf("listing accounts: %w", err)
	}

	switch len(emails) {
	case 0:
		b.logger.Info("no stored account, authorization required before first call")
		return "", nil
	case 1:
		b.Bind(emails[0])
		return emails[0], nil
	default:
		return "", fmt.Errorf("%w: found %d records (%s); point each server instance at its own credentials directory",
			ErrAmbiguousAccount, len(emails), strings.Join(anonymizeAll(emails), ", "))
	}
}

// Bind sets the process account. Called after a successful authorization
// flow replaces the previous binding.
func (b *Binder) Bind(email string) {
	b.mu.Lock()
	b.email = email
	b.mu.Unlock()
	b.logger.Info("bound process to account", logging.UserHash(email))
}

// Bound returns the currently bound account email, or empty when unbound.
func (b *Binder) Bound() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.email
}

// Account resolves the account for one call: the identity resolver first when
// installed, then the process binding. An unbound process surfaces
// ErrAuthRequired.
func (b *Binder) Account(ctx context.Context) (string, error) {
	if b.resolver != nil {
		email, err := b.resolver(ctx)
		if err != nil {
			return "", fmt.Errorf("resolving request identity: %w", err)
		}
		if email != "" {
			return email, nil
		}
	}

	if email := b.Bound(); email != "" {
		return email, nil
	}
	return "", fmt.Errorf("%w: no account bound to this server", ErrAuthRequired)
}

func anonymizeAll(emails []string) []string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = logging.AnonymizeEmail(e)
	}
	return out
}
