package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/workspacelabs/workspace-mcp/internal/server"
	"github.com/workspacelabs/workspace-mcp/internal/tools/common"
)

// RegisterGmailTools registers the Gmail tools with the MCP server.
// Send is only registered when readOnly is false.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List recent Gmail messages in the inbox"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to return (default: 10)"),
		),
	)
	s.AddTool(listTool, common.Instrumented("gmail_list_messages", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("gmail_search_messages",
		mcp.WithDescription("Search Gmail messages with a Gmail query expression"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query (e.g., 'from:user@example.com is:unread')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to return (default: 10)"),
		),
	)
	s.AddTool(searchTool, common.Instrumented("gmail_search_messages", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchMessages(ctx, request, sc)
		}))

	getTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get the full content of a Gmail message by ID"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to fetch"),
		),
	)
	s.AddTool(getTool, common.Instrumented("gmail_get_message", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMessage(ctx, request, sc)
		}))

	if !readOnly {
		sendTool := mcp.NewTool("gmail_send_message",
			mcp.WithDescription("Send a plain-text email from the account"),
			mcp.WithString(common.AccountArg,
				mcp.Description("Google account email. Defaults to the bound session account."),
			),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Recipient email address"),
			),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Message subject"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("Plain-text message body"),
			),
		)
		s.AddTool(sendTool, common.Instrumented("gmail_send_message", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleSendMessage(ctx, request, sc)
			}))
	}

	return nil
}

func maxResultsFromArgs(args map[string]interface{}) int64 {
	if v, ok := args["maxResults"].(float64); ok && v > 0 {
		return int64(v)
	}
	return 10
}

func listWithQuery(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, query string) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.GmailClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client: %v", err)), nil
	}

	messages, err := client.ListMessages(ctx, query, maxResultsFromArgs(args))
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list messages: %v", err)), nil
	}
	if len(messages) == 0 {
		return mcp.NewToolResultText("No messages found."), nil
	}

	out, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format messages: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return listWithQuery(ctx, request, sc, "in:inbox")
}

func handleSearchMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	return listWithQuery(ctx, request, sc, query)
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.GmailClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client: %v", err)), nil
	}

	message, err := client.GetMessage(ctx, messageID)
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch message: %v", err)), nil
	}

	out, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format message: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	if to == "" || subject == "" || body == "" {
		return mcp.NewToolResultError("to, subject, and body are required"), nil
	}

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.GmailClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client: %v", err)), nil
	}

	id, err := client.SendMessage(ctx, to, subject, body)
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent (id: %s)", id)), nil
}
