package auth_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/workspacelabs/workspace-mcp/internal/auth"
	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/server"
	"github.com/workspacelabs/workspace-mcp/internal/tools/common"
)

// RegisterAuthTools registers the authentication tools with the MCP server.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	startAuthTool := mcp.NewTool("start_google_auth",
		mcp.WithDescription("Start the Google OAuth consent flow. Returns a URL to open in a browser; the flow completes in the background and binds the authenticated account to this session."),
	)
	s.AddTool(startAuthTool, common.Instrumented("start_google_auth", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleStartAuth(ctx, request, sc)
		}))

	statusTool := mcp.NewTool("auth_status",
		mcp.WithDescription("Report the authentication status of this session: the bound account, stored accounts, and the state of any authorization flow in progress."),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email to check. Defaults to the bound session account."),
		),
	)
	s.AddTool(statusTool, common.Instrumented("auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	listTool := mcp.NewTool("list_accounts",
		mcp.WithDescription("List the Google accounts with stored credentials."),
	)
	s.AddTool(listTool, common.Instrumented("list_accounts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAccounts(ctx, request, sc)
		}))

	return nil
}

func handleStartAuth(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	authURL, err := sc.StartAuthFlow()
	if err != nil {
		if errors.Is(err, auth.ErrFlowInProgress) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start authorization flow: %v", err)), nil
	}

	result := fmt.Sprintf(`To authorize Google Workspace access:

1. Open this URL in your browser:
   %s

2. Sign in with your Google account and grant access.

The flow completes automatically once consent is given. Use the auth_status tool to check progress.`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleAuthStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var sb strings.Builder

	bound := sc.Binder().Bound()
	if bound == "" {
		sb.WriteString("Session account: none bound\n")
	} else {
		fmt.Fprintf(&sb, "Session account: %s\n", bound)
	}

	account := bound
	if v, ok := args[common.AccountArg].(string); ok && v != "" {
		account = v
	}
	if account != "" {
		rec, err := sc.Store().Load(account)
		switch {
		case errors.Is(err, credentials.ErrNotFound):
			fmt.Fprintf(&sb, "Credentials for %s: not stored\n", account)
		case err != nil:
			fmt.Fprintf(&sb, "Credentials for %s: unreadable (%s)\n", account, common.AuthErrorMessage(err))
		case !rec.Usable():
			fmt.Fprintf(&sb, "Credentials for %s: expired, re-authentication required\n", account)
		case rec.Expired():
			fmt.Fprintf(&sb, "Credentials for %s: stored, access token will be refreshed on next use\n", account)
		default:
			fmt.Fprintf(&sb, "Credentials for %s: valid until %s\n", account, rec.Expiry.Format("2006-01-02 15:04:05 MST"))
		}
	}

	if state := sc.FlowState(); state != auth.FlowStateInit {
		fmt.Fprintf(&sb, "Authorization flow: %s\n", state)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleListAccounts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	accounts, err := sc.Store().List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}
	if len(accounts) == 0 {
		return mcp.NewToolResultText("No stored accounts. Run the start_google_auth tool to add one."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Stored accounts (%d):\n", len(accounts))
	bound := sc.Binder().Bound()
	for _, account := range accounts {
		if account == bound {
			fmt.Fprintf(&sb, "- %s (bound)\n", account)
		} else {
			fmt.Fprintf(&sb, "- %s\n", account)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
