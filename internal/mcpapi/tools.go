package mcpapi

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolNameAnalyzeProject is the one MCP tool this adapter exposes.
const ToolNameAnalyzeProject = "deepscan_analyze_project"

const analyzeProjectToolDescription = "Run deepscan's static analysis pipeline " +
	"(complexity, dead-code, defect density, dependency and churn analysis) " +
	"over a project directory and return its report."

// Sentinel errors for tool input validation.
var (
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	ErrBadFormat = errors.New("format must be one of: json, markdown, sarif")
)

// AnalyzeProjectInput is the input schema for the deepscan_analyze_project
// tool.
type AnalyzeProjectInput struct {
	Path   string `json:"path"             jsonschema:"absolute or relative path to the project root"`
	Format string `json:"format,omitempty" jsonschema:"report format: json (default), markdown, or sarif"`
}

// ToolOutput wraps a tool's structured result for the generic AddTool
// signature.
type ToolOutput struct {
	Data any `json:"data"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func textResult(text string) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}, ToolOutput{Data: text}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
