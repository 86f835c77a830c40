package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/workspacelabs/workspace-mcp/internal/auth"
	"github.com/workspacelabs/workspace-mcp/internal/config"
	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/gdocs"
	"github.com/workspacelabs/workspace-mcp/internal/gmail"
	"github.com/workspacelabs/workspace-mcp/internal/google"
	"github.com/workspacelabs/workspace-mcp/internal/gscript"
	"github.com/workspacelabs/workspace-mcp/internal/instrumentation"
	"github.com/workspacelabs/workspace-mcp/internal/logging"
)

// ServerContext holds the shared state for the MCP server: the credential
// store, token refresher, account binder, interactive authorization flow,
// and cached per-account API clients.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       config.Config
	store     *credentials.Store
	oauthCfg  *oauth2.Config
	refresher *auth.Refresher
	binder    *auth.Binder
	metrics   *instrumentation.Metrics
	logger    *slog.Logger

	flowOptions []auth.FlowOption

	mu            sync.Mutex
	flow          *auth.Flow
	gmailClients  map[string]*gmail.Client
	docsClients   map[string]*gdocs.Client
	scriptClients map[string]*gscript.Client
	shutdown      bool
}

// ServerContextOption configures optional ServerContext behavior.
type ServerContextOption func(*ServerContext)

// WithLogger sets the logger used by the server context and its components.
func WithLogger(logger *slog.Logger) ServerContextOption {
	return func(sc *ServerContext) { sc.logger = logger }
}

// WithMetrics sets the metrics recorder. A zero-value recorder is used
// when instrumentation is disabled.
func WithMetrics(metrics *instrumentation.Metrics) ServerContextOption {
	return func(sc *ServerContext) { sc.metrics = metrics }
}

// WithAuthFlowOptions passes options through to authorization flows
// started by this context.
func WithAuthFlowOptions(opts ...auth.FlowOption) ServerContextOption {
	return func(sc *ServerContext) { sc.flowOptions = opts }
}

// NewServerContext creates a server context over a resolved configuration.
// If exactly one stored account exists it is bound as the session account;
// multiple accounts leave the session unbound until an explicit selection.
func NewServerContext(ctx context.Context, cfg config.Config, opts ...ServerContextOption) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:           shutdownCtx,
		cancel:        cancel,
		cfg:           cfg,
		oauthCfg:      google.OAuthConfig(cfg),
		metrics:       &instrumentation.Metrics{},
		logger:        slog.Default(),
		gmailClients:  make(map[string]*gmail.Client),
		docsClients:   make(map[string]*gdocs.Client),
		scriptClients: make(map[string]*gscript.Client),
	}
	for _, opt := range opts {
		opt(sc)
	}

	store, err := credentials.NewStore(cfg.CredentialsDir,
		credentials.WithStoreRecorder(sc.metrics))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	store.SetLogger(sc.logger)
	sc.store = store

	sc.refresher = auth.NewRefresher(store, sc.oauthCfg,
		auth.WithRefresherLogger(sc.logger),
		auth.WithRefreshRecorder(sc.metrics))
	sc.binder = auth.NewBinder(store, auth.WithBinderLogger(sc.logger))

	if email, err := sc.binder.BindStartup(); err != nil {
		if cfg.SingleUser {
			cancel()
			return nil, fmt.Errorf("binding session account: %w", err)
		}
		// Multiple stored accounts: start unbound, tools must name one.
		sc.logger.Warn("session account not bound at startup", logging.Err(err))
	} else if email != "" {
		sc.logger.Info("session account bound", logging.UserHash(email))
	}

	return sc, nil
}

// Context returns the server's lifecycle context. It is cancelled on
// Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the resolved server configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Store returns the credential store.
func (sc *ServerContext) Store() *credentials.Store {
	return sc.store
}

// Binder returns the session account binder.
func (sc *ServerContext) Binder() *auth.Binder {
	return sc.binder
}

// Metrics returns the metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// ResolveAccount returns the account a tool call should act as: an
// explicit account argument wins, otherwise the bound session account.
func (sc *ServerContext) ResolveAccount(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return sc.binder.Account(ctx)
}

// StartAuthFlow begins an interactive authorization attempt and returns
// the URL the user must open. The flow completes in the background: on
// success the new account's credentials are stored and the account is
// bound as the session account. A second call while an attempt is
// active fails with auth.ErrFlowInProgress.
func (sc *ServerContext) StartAuthFlow() (string, error) {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return "", fmt.Errorf("server is shutting down")
	}
	if sc.flow == nil {
		sc.flow = auth.NewFlow(sc.oauthCfg, sc.store, sc.cfg.Port,
			append([]auth.FlowOption{auth.WithFlowLogger(sc.logger)}, sc.flowOptions...)...)
	}
	flow := sc.flow
	sc.mu.Unlock()

	authURL, done, err := flow.Begin(sc.ctx)
	if err != nil {
		return "", err
	}

	go sc.watchFlow(done)
	return authURL, nil
}

// FlowState reports the state of the most recent authorization attempt.
func (sc *ServerContext) FlowState() auth.FlowState {
	sc.mu.Lock()
	flow := sc.flow
	sc.mu.Unlock()
	if flow == nil {
		return auth.FlowStateInit
	}
	return flow.State()
}

// watchFlow consumes the terminal result of an authorization attempt.
func (sc *ServerContext) watchFlow(done <-chan auth.Result) {
	result, ok := <-done
	if !ok {
		return
	}
	if result.Err != nil {
		sc.metrics.RecordAuthFlow(sc.ctx, instrumentation.ResultError)
		sc.logger.Error("authorization flow failed",
			logging.Operation("auth_flow"), logging.Err(result.Err))
		return
	}

	sc.metrics.RecordAuthFlow(sc.ctx, instrumentation.ResultSuccess)
	sc.binder.Bind(result.Record.Email)
	sc.invalidateClients(result.Record.Email)
	sc.logger.Info("authorization flow completed",
		logging.Operation("auth_flow"),
		logging.UserHash(result.Record.Email))
}

// invalidateClients drops cached API clients for an account so the next
// use picks up freshly stored credentials.
func (sc *ServerContext) invalidateClients(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.gmailClients, account)
	delete(sc.docsClients, account)
	delete(sc.scriptClients, account)
}

// GmailClientFor returns the Gmail client for an account, creating and
// caching it on first use.
func (sc *ServerContext) GmailClientFor(account string) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}

	httpClient := google.Client(sc.ctx, sc.refresher, account)
	client, err := gmail.NewClient(sc.ctx, httpClient, account)
	if err != nil {
		return nil, err
	}
	sc.gmailClients[account] = client
	return client, nil
}

// DocsClientFor returns the Docs client for an account, creating and
// caching it on first use.
func (sc *ServerContext) DocsClientFor(account string) (*gdocs.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if client, ok := sc.docsClients[account]; ok {
		return client, nil
	}

	httpClient := google.Client(sc.ctx, sc.refresher, account)
	client, err := gdocs.NewClient(sc.ctx, httpClient, account)
	if err != nil {
		return nil, err
	}
	sc.docsClients[account] = client
	return client, nil
}

// ScriptClientFor returns the Apps Script client for an account,
// creating and caching it on first use.
func (sc *ServerContext) ScriptClientFor(account string) (*gscript.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if client, ok := sc.scriptClients[account]; ok {
		return client, nil
	}

	httpClient := google.Client(sc.ctx, sc.refresher, account)
	client, err := gscript.NewClient(sc.ctx, httpClient, account)
	if err != nil {
		return nil, err
	}
	sc.scriptClients[account] = client
	return client, nil
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Any in-flight authorization
// attempt is aborted and its callback listener released.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
