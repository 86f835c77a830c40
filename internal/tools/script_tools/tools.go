package script_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/workspacelabs/workspace-mcp/internal/server"
	"github.com/workspacelabs/workspace-mcp/internal/tools/common"
)

// RegisterScriptTools registers the Apps Script tools with the MCP server.
func RegisterScriptTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("script_list_projects",
		mcp.WithDescription("List Apps Script projects visible to the account, most recently modified first"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithString("nameContains",
			mcp.Description("Only return projects whose name contains this text"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of projects to return (default: 25)"),
		),
	)
	s.AddTool(listTool, common.Instrumented("script_list_projects", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListProjects(ctx, request, sc)
		}))

	getTool := mcp.NewTool("script_get_content",
		mcp.WithDescription("Get the source files of an Apps Script project by script ID"),
		mcp.WithString(common.AccountArg,
			mcp.Description("Google account email. Defaults to the bound session account."),
		),
		mcp.WithString("scriptId",
			mcp.Required(),
			mcp.Description("The ID of the script project to fetch"),
		),
	)
	s.AddTool(getTool, common.Instrumented("script_get_content", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetContent(ctx, request, sc)
		}))

	return nil
}

func handleListProjects(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.ScriptClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Apps Script client: %v", err)), nil
	}

	nameContains, _ := args["nameContains"].(string)
	maxResults := int64(25)
	if v, ok := args["maxResults"].(float64); ok && v > 0 {
		maxResults = int64(v)
	}

	projects, err := client.ListProjects(ctx, nameContains, maxResults)
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list script projects: %v", err)), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No script projects found."), nil
	}

	out, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format projects: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleGetContent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	scriptID, ok := args["scriptId"].(string)
	if !ok || scriptID == "" {
		return mcp.NewToolResultError("scriptId is required"), nil
	}

	account, err := common.ResolveAccount(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
	}

	client, err := sc.ScriptClientFor(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Apps Script client: %v", err)), nil
	}

	project, err := client.GetProject(ctx, scriptID)
	if err != nil {
		if common.IsAuthError(err) {
			return mcp.NewToolResultError(common.AuthErrorMessage(err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch script project: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Script project %s (%d files)\n", project.ID, len(project.Files))
	for _, f := range project.Files {
		fmt.Fprintf(&sb, "\n--- %s (%s) ---\n%s\n", f.Name, f.Type, f.Source)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
