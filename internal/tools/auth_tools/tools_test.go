package auth_tools

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/workspacelabs/workspace-mcp/internal/config"
	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/server"
	"github.com/workspacelabs/workspace-mcp/internal/tools/common"
)

func newTestContext(t *testing.T, emails ...string) *server.ServerContext {
	t.Helper()
	dir := t.TempDir()
	store, err := credentials.NewStore(dir)
	require.NoError(t, err)
	for _, email := range emails {
		rec := credentials.NewRecord(email, &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(time.Hour),
		}, nil)
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

func request(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestHandleAuthStatus_Unbound(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleAuthStatus(context.Background(), request("auth_status", nil), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "none bound")
}

func TestHandleAuthStatus_BoundAccount(t *testing.T) {
	sc := newTestContext(t, "alice@example.com")

	result, err := handleAuthStatus(context.Background(), request("auth_status", nil), sc)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Session account: alice@example.com")
	assert.Contains(t, text, "valid until")
}

func TestHandleAuthStatus_ExplicitAccountNotStored(t *testing.T) {
	sc := newTestContext(t, "alice@example.com")

	result, err := handleAuthStatus(context.Background(), request("auth_status", map[string]interface{}{
		common.AccountArg: "missing@example.com",
	}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "not stored")
}

func TestHandleAuthStatus_NeverLeaksTokens(t *testing.T) {
	sc := newTestContext(t, "alice@example.com")

	result, err := handleAuthStatus(context.Background(), request("auth_status", nil), sc)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.NotContains(t, text, "access")
	assert.NotContains(t, text, "refresh")
}

func TestHandleListAccounts_Empty(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleListAccounts(context.Background(), request("list_accounts", nil), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No stored accounts")
}

func TestHandleListAccounts_MarksBound(t *testing.T) {
	sc := newTestContext(t, "alice@example.com")

	result, err := handleListAccounts(context.Background(), request("list_accounts", nil), sc)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "alice@example.com (bound)")
}

func TestHandleStartAuth_ReturnsURL(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleStartAuth(context.Background(), request("start_google_auth", nil), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Open this URL")
	assert.Contains(t, text, "state=")
}

func TestHandleStartAuth_SecondAttemptRejected(t *testing.T) {
	sc := newTestContext(t)

	_, err := handleStartAuth(context.Background(), request("start_google_auth", nil), sc)
	require.NoError(t, err)

	result, err := handleStartAuth(context.Background(), request("start_google_auth", nil), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
