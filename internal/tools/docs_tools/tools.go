package docs_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/workspacelabs/workspace-mcp/internal/server"
	"github.com/workspacelabs/workspace-mcp/internal/tools/common"
)

// RegisterDocsTools registers the Google Docs tools with the MCP server.
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getTool := mcp.NewTool("docs_get_content",
		mcp.WithDescription("Get the plain-text content of a Google Doc by document ID"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the document to fetch"),
		),
	)
	s.AddTool(getTool, common.Instrumented("docs_get_content", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetContent(ctx, request, sc)
		}))

	listTool := mcp.NewTool("docs_list_documents",
		mcp.WithDescription("List Google Docs visible to the account, most recently modified first"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithString("nameContains",
			mcp.Description("Only return documents whose name contains this text"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of documents to return (default: 25)"),
		),
	)
	s.AddTool(listTool, common.Instrumented("docs_list_documents", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListDocuments(ctx, request, sc)
		}))

	return nil
}

func handleGetContent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.DocsClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Docs client: %v", err)), nil
	}

	document, err := client.GetDocument(ctx, documentID)
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch document: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("# %s\n\n%s", document.Title, document.Content)), nil
}

func handleListDocuments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.DocsClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Docs client: %v", err)), nil
	}

	nameContains, _ := args["nameContains"].(string)
	maxResults := int64(25)
	if v, ok := args["maxResults"].(float64); ok && v > 0 {
		maxResults = int64(v)
	}

	documents, err := client.ListDocuments(ctx, nameContains, maxResults)
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list documents: %v", err)), nil
	}
	if len(documents) == 0 {
		return mcp.NewToolResultText("No documents found."), nil
	}

	out, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format documents: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
