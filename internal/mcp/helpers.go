package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// parseToolArguments checks that the request carries an arguments object.
func parseToolArguments(request mcp.CallToolRequest) *mcp.CallToolResult {
	if _, ok := request.GetRawArguments().(map[string]interface{}); !ok {
		return mcp.NewToolResultError("invalid arguments format")
	}
	return nil
}

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
