package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/workspacelabs/workspace-mcp/internal/auth"
	"github.com/workspacelabs/workspace-mcp/internal/config"
	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/server"
)

func newTestContext(t *testing.T, emails ...string) *server.ServerContext {
	t.Helper()
	dir := t.TempDir()
	store, err := credentials.NewStore(dir)
	require.NoError(t, err)
	for _, email := range emails {
		rec := credentials.NewRecord(email, &oauth2.Token{AccessToken: "access"}, nil)
		require.NoError(t, store.Save(email, rec))
	}

	sc, err := server.NewServerContext(context.Background(), config.Config{
		CredentialsDir: dir,
		ClientID:       "id",
		ClientSecret:   "secret",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestResolveAccount_ExplicitArgument(t *testing.T) {
	sc := newTestContext(t, "bound@example.com")

	account, err := ResolveAccount(context.Background(), sc, map[string]interface{}{
		AccountArg: "other@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", account)
}

func TestResolveAccount_BoundFallback(t *testing.T) {
	sc := newTestContext(t, "bound@example.com")

	account, err := ResolveAccount(context.Background(), sc, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "bound@example.com", account)
}

func TestResolveAccount_NonStringArgIgnored(t *testing.T) {
	sc := newTestContext(t, "bound@example.com")

	account, err := ResolveAccount(context.Background(), sc, map[string]interface{}{
		AccountArg: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "bound@example.com", account)
}

func TestResolveAccount_Unbound(t *testing.T) {
	sc := newTestContext(t)

	_, err := ResolveAccount(context.Background(), sc, nil)
	assert.ErrorIs(t, err, auth.ErrAuthRequired)
}

func TestAuthErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{auth.ErrAuthRequired, "start_google_auth"},
		{fmt.Errorf("wrapped: %w", auth.ErrAuthRequired), "start_google_auth"},
		{auth.ErrFlowInProgress, "already in progress"},
		{auth.ErrAmbiguousAccount, AccountArg},
		{credentials.ErrNotFound, "No stored credentials"},
		{credentials.ErrCorrupt, "unreadable"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Contains(t, AuthErrorMessage(tt.err), tt.want)
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(auth.ErrAuthRequired))
	assert.True(t, IsAuthError(credentials.ErrNotFound))
	assert.False(t, IsAuthError(errors.New("boom")))
}

func TestInstrumented_PassesThrough(t *testing.T) {
	sc := newTestContext(t)

	called := false
	handler := Instrumented("test_tool", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
}

func TestInstrumented_PropagatesError(t *testing.T) {
	sc := newTestContext(t)

	handler := Instrumented("test_tool", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("handler failed")
	})

	_, err := handler(context.Background(), mcp.CallToolRequest{})
	assert.EqualError(t, err, "handler failed")
}
