package kit

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolDecoder extracts the typed endpoint request from raw MCP tool
// arguments. A decode error is reported to the MCP client as an
// invalid-arguments tool result, never as a protocol error.
type ToolDecoder func(mcp.CallToolRequest) (any, error)

// RegisterMCPTool exposes an Endpoint as an MCP tool on the given server.
// The endpoint response is serialized to JSON and returned as tool text.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode ToolDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req)
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}

		resp, err := endpoint(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError("encode response: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}
