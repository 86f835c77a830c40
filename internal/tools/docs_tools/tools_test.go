package docs_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspacelabs/workspace-mcp/internal/config"
	"github.com/workspacelabs/workspace-mcp/internal/server"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), config.Config{
		CredentialsDir: t.TempDir(),
		ClientID:       "id",
		ClientSecret:   "secret",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleGetContent_RequiresDocumentID(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleGetContent(context.Background(), request(nil), sc)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "documentId is required")
}

func TestHandleGetContent_RequiresAccount(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleGetContent(context.Background(), request(map[string]interface{}{
		"documentId": "doc-1",
	}), sc)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "start_google_auth")
}

func TestHandleListDocuments_RequiresAccount(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleListDocuments(context.Background(), request(nil), sc)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "start_google_auth")
}
