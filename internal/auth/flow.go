package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/logging"
)

// FlowState is the externally visible state of an authorization attempt.
type FlowState string

const (
	FlowStateInit             FlowState = "init"
	FlowStateAwaitingCallback FlowState = "awaiting_callback"
	FlowStateCallbackReceived FlowState = "callback_received"
	FlowStateExchanging       FlowState = "exchanging"
	FlowStateStored           FlowState = "stored"
	FlowStateFailed           FlowState = "failed"
)

// DefaultFlowTimeout bounds the wait for the browser callback.
const DefaultFlowTimeout = 5 * time.Minute

// CallbackPath is the local HTTP path the provider redirects back to.
const CallbackPath = "/oauth2callback"

// Result is the terminal outcome of one authorization attempt.
type Result struct {
	Record credentials.Record
	Err    error
}

// Flow drives one OAuth authorization-code exchange against a local callback
// listener. A Flow is scoped to one credential store and one callback port;
// only one attempt may be active at a time.
type Flow struct {
	oauth   *oauth2.Config
	store   *credentials.Store
	port    int
	timeout time.Duration
	logger  *slog.Logger

	// userinfoEndpoint overrides the Google userinfo API base URL in tests.
	userinfoEndpoint string

	mu         sync.Mutex
	state      FlowState
	stateToken string
	addr       string
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithFlowTimeout sets the callback wait window.
func WithFlowTimeout(d time.Duration) FlowOption {
	return func(f *Flow) { f.timeout = d }
}

// WithFlowLogger sets a custom logger.
func WithFlowLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) { f.logger = logger }
}

// WithUserinfoEndpoint overrides the userinfo API endpoint. Used in tests.
func WithUserinfoEndpoint(endpoint string) FlowOption {
	return func(f *Flow) { f.userinfoEndpoint = endpoint }
}

// NewFlow creates a flow controller bound to one oauth2 configuration, one
// credential store, and one callback port.
func NewFlow(oauthCfg *oauth2.Config, store *credentials.Store, port int, opts ...FlowOption) *Flow {
	f := &Flow{
		oauth:   oauthCfg,
		store:   store,
		port:    port,
		timeout: DefaultFlowTimeout,
		logger:  slog.Default(),
		state:   FlowStateInit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CallbackURL returns the URL of the active callback listener. Only valid
// after Begin has returned successfully.
func (f *Flow) CallbackURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("http://%s%s", f.addr, CallbackPath)
}

type callbackResult struct {
	code string
	err  error
}

// Begin starts an authorization attempt: it generates a fresh anti-forgery
// state token, binds the local callback listener, and returns the URL the
// user must open plus a channel that delivers the terminal Result. The
// listener socket is released on every exit path — success, timeout,
// cancellation, or error — before the Result is delivered.
//
// A second Begin while an attempt is active fails with ErrFlowInProgress.
func (f *Flow) Begin(ctx context.Context) (authURL string, done <-chan Result, err error) {
	f.mu.Lock()
	switch f.state {
	case FlowStateAwaitingCallback, FlowStateCallbackReceived, FlowStateExchanging:
		f.mu.Unlock()
		return "", nil, ErrFlowInProgress
	}

	stateToken, err := newStateToken()
	if err != nil {
		f.mu.Unlock()
		return "", nil, fmt.Errorf("generating state token: %w", err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.port))
	if err != nil {
		f.mu.Unlock()
		return "", nil, fmt.Errorf("binding callback listener on port %d: %w", f.port, err)
	}

	f.state = FlowStateAwaitingCallback
	f.stateToken = stateToken
	f.addr = ln.Addr().String()
	f.mu.Unlock()

	f.logger.Debug("authorization flow started",
		logging.FlowState(string(FlowStateAwaitingCallback)),
		slog.String("listener", ln.Addr().String()))

	callbackCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		f.handleCallback(w, r, stateToken, callbackCh)
	})
	srv := &http.Server{Handler: mux}

	go func() {
		// Serve returns when the listener is closed.
		_ = srv.Serve(ln)
	}()

	resultCh := make(chan Result, 1)
	go f.await(ctx, srv, callbackCh, resultCh)

	url := f.oauth.AuthCodeURL(stateToken,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	return url, resultCh, nil
}

// await waits for the callback, the timeout, or cancellation, then finishes
// the flow. The listener is always closed before the result is delivered.
func (f *Flow) await(ctx context.Context, srv *http.Server, callbackCh <-chan callbackResult, resultCh chan<- Result) {
	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	var res Result
	select {
	case cb := <-callbackCh:
		f.setState(FlowStateCallbackReceived)
		if cb.err != nil {
			res.Err = cb.err
		} else {
			res = f.exchange(ctx, cb.code)
		}
	case <-timer.C:
		res.Err = fmt.Errorf("%w after %s", ErrAuthTimeout, f.timeout)
	case <-ctx.Done():
		res.Err = fmt.Errorf("authorization canceled: %w", ctx.Err())
	}

	f.shutdownServer(srv)

	if res.Err != nil {
		f.setState(FlowStateFailed)
		f.logger.Warn("authorization flow failed",
			logging.FlowState(string(FlowStateFailed)),
			logging.Err(res.Err))
	} else {
		f.setState(FlowStateStored)
		f.logger.Info("authorization flow completed",
			logging.FlowState(string(FlowStateStored)),
			logging.UserHash(res.Record.Email))
	}
	resultCh <- res
}

// handleCallback validates the state token and hands the authorization code
// to the waiting flow. The response page never contains token material.
func (f *Flow) handleCallback(w http.ResponseWriter, r *http.Request, want string, callbackCh chan<- callbackResult) {
	q := r.URL.Query()

	var cb callbackResult
	switch {
	case q.Get("state") != want:
		cb.err = ErrStateMismatch
	case q.Get("error") != "":
		cb.err = fmt.Errorf("%w: provider returned %q", ErrTokenExchange, q.Get("error"))
	case q.Get("code") == "":
		cb.err = fmt.Errorf("%w: callback missing authorization code", ErrTokenExchange)
	default:
		cb.code = q.Get("code")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if cb.err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<html><body><h1>Authentication failed</h1><p>The request could not be verified. Return to the terminal and try again.</p></body></html>")
	} else {
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You can close this window and return to the application.</p></body></html>")
	}

	// Only the first callback decides the attempt.
	select {
	case callbackCh <- cb:
	default:
	}
}

// exchange trades the authorization code for tokens, resolves the account
// email, and persists the credential record.
func (f *Flow) exchange(ctx context.Context, code string) Result {
	f.setState(FlowStateExchanging)

	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrTokenExchange, err)}
	}

	email, err := f.resolveEmail(ctx, tok)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: resolving account identity: %v", ErrTokenExchange, err)}
	}

	rec := credentials.NewRecord(email, tok, f.oauth.Scopes)
	if err := f.store.Save(email, rec); err != nil {
		return Result{Err: fmt.Errorf("storing credential: %w", err)}
	}
	return Result{Record: rec}
}

// resolveEmail asks the userinfo API which account authorized the flow.
func (f *Flow) resolveEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(tok)),
	}
	if f.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(f.userinfoEndpoint))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("creating userinfo service: %w", err)
	}

	ui, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("fetching userinfo: %w", err)
	}
	if ui.Email == "" {
		return "", fmt.Errorf("userinfo response carried no email")
	}
	return ui.Email, nil
}

func (f *Flow) shutdownServer(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
	}
}

func (f *Flow) setState(state FlowState) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

func newStateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
