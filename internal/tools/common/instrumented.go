package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/workspacelabs/workspace-mcp/internal/instrumentation"
	"github.com/workspacelabs/workspace-mcp/internal/server"
)

// ToolHandler is the handler signature expected by the MCP server.
type ToolHandler = mcpserver.ToolHandlerFunc

// Instrumented wraps a tool handler so every invocation is recorded in
// the tool metrics with its outcome and duration.
//
// Usage:
//
//	s.AddTool(myTool, common.Instrumented("my_tool", sc, handler))
func Instrumented(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		outcome := instrumentation.ResultSuccess
		if err != nil || (result != nil && result.IsError) {
			outcome = instrumentation.ResultError
		}
		sc.Metrics().RecordToolInvocation(ctx, toolName, outcome, duration)

		return result, err
	}
}
