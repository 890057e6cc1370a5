package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// readStringArg extracts an optional string argument from the request.
func readStringArg(req mcp.CallToolRequest, key string) string {
	if req.Params.Arguments == nil {
		return ""
	}
	if raw, ok := req.Params.Arguments.(map[string]any); ok {
		if value, ok := raw[key].(string); ok {
			return value
		}
	}
	return ""
}

// readIntArgWithDefault extracts an optional int argument with a default fallback.
func readIntArgWithDefault(req mcp.CallToolRequest, key string, def int) int {
	if req.Params.Arguments == nil {
		return def
	}
	if raw, ok := req.Params.Arguments.(map[string]any); ok {
		switch value := raw[key].(type) {
		case int:
			return value
		case int64:
			return int(value)
		case float64:
			return int(value)
		}
	}
	return def
}

// listLimit clamps the "limit" argument into [1, maxListLimit]
func listLimit(req mcp.CallToolRequest) int {
	limit := readIntArgWithDefault(req, "limit", defaultListLimit)
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func jsonResult(payload any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError("failed to encode response")
	}
	return result
}
