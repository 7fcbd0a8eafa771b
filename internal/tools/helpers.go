// Package tools defines the MCP tool surface: parameter validation and
// response reshaping around the Azure DevOps client. Handlers distinguish
// caller mistakes (returned as tool errors) from plumbing failures
// (returned as Go errors for the engine to report).
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// apiFailure reports a remote API failure as a tool-level error, so the
// model sees what went wrong instead of a bare protocol error.
func apiFailure(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}
