package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// stringArg returns a trimmed string argument, or "" when absent or not a string.
func stringArg(request mcp.CallToolRequest, name string) string {
	return strings.TrimSpace(rawStringArg(request, name))
}

// rawStringArg returns a string argument exactly as sent, for user text.
func rawStringArg(request mcp.CallToolRequest, name string) string {
	v, _ := request.Params.Arguments[name].(string)
	return v
}

// intArg reads a JSON number argument. Clients send numbers as float64.
func intArg(request mcp.CallToolRequest, name string, def int) int {
	switch v := request.Params.Arguments[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func boolArg(request mcp.CallToolRequest, name string, def bool) bool {
	v, ok := request.Params.Arguments[name].(bool)
	if !ok {
		return def
	}
	return v
}

// jsonResult serializes v as the text content of a successful tool result.
func jsonResult(v any, what string) *mcp.CallToolResult {
	out, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err))
	}
	return mcp.NewToolResultText(string(out))
}
