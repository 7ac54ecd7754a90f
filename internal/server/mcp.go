// Package server exposes the tool registry over two transports: MCP stdio
// (the primary surface) and an optional HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
	"github.com/mychem-mcp/mychem-mcp/internal/tools"
)

// ServerName is the MCP server name announced during initialization.
const ServerName = "mychem-mcp"

// BuildMCPServer assembles an MCP server with every registered tool.
func BuildMCPServer(registry *tools.Registry, apiClient tools.Client, version string, log *zap.Logger) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		ServerName,
		version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	for _, t := range registry.All() {
		tool := t
		s.AddTool(
			mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.Schema),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleToolCall(ctx, apiClient, tool, req.GetArguments(), log)
			},
		)
	}

	log.Info("mcp server assembled",
		zap.String("name", ServerName),
		zap.String("version", version),
		zap.Int("tools", registry.Len()))
	return s
}

// ServeStdio runs the MCP server over stdin/stdout until EOF or a fatal
// transport error.
func ServeStdio(s *mcpserver.MCPServer) error {
	return mcpserver.ServeStdio(s)
}

func handleToolCall(ctx context.Context, apiClient tools.Client, tool tools.Tool, args map[string]any, log *zap.Logger) (*mcp.CallToolResult, error) {
	start := time.Now()
	result, err := tool.Handler(ctx, apiClient, args)
	if err != nil {
		log.Warn("tool call failed",
			zap.String("tool", tool.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		// Failures surface as a structured payload in the tool result, not
		// as a protocol error, so models can read and react to them.
		return mcp.NewToolResultText(marshalIndent(errorPayload(tool.Name, err))), nil
	}

	log.Debug("tool call ok",
		zap.String("tool", tool.Name),
		zap.Duration("elapsed", time.Since(start)))

	// Export tools render their own textual output.
	if text, ok := result.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(marshalIndent(result)), nil
}

// errorPayload renders an error as the uniform tool failure object.
func errorPayload(toolName string, err error) map[string]any {
	kind := "ToolError"
	if apiErr, ok := client.AsAPIError(err); ok {
		kind = string(apiErr.Kind)
		return map[string]any{
			"error":     kind,
			"message":   apiErr.Message,
			"tool_name": toolName,
		}
	}
	if errors.Is(err, tools.ErrUnknownTool) {
		kind = "UnknownTool"
	}
	return map[string]any{
		"error":     kind,
		"message":   err.Error(),
		"tool_name": toolName,
	}
}

func marshalIndent(v any) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Handler results are maps, slices and strings; this does not
		// happen for real payloads.
		return `{"error": "EncodeError", "message": "failed to encode tool result"}`
	}
	return string(encoded)
}
