package mcpapi

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/latticeforge/deepscan/internal/pipeline"
	"github.com/latticeforge/deepscan/pkg/config"
	"github.com/latticeforge/deepscan/pkg/report"
)

// handleAnalyzeProject processes deepscan_analyze_project tool calls: load
// the caller's analysis options (or the built-in defaults when none are
// configured in the server's working directory), run the pipeline, and
// serialize the resulting report in the requested format.
func handleAnalyzeProject(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AnalyzeProjectInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Path == "" {
		return errorResult(ErrEmptyPath)
	}

	format := input.Format
	if format == "" {
		format = "json"
	}

	opts, err := config.LoadAnalysisOptions("")
	if err != nil {
		return errorResult(fmt.Errorf("load analysis options: %w", err))
	}

	dc, err := pipeline.New(pipeline.Config{Options: *opts}).Run(ctx, input.Path)
	if err != nil {
		return errorResult(fmt.Errorf("run analysis: %w", err))
	}

	switch format {
	case "json":
		return jsonResult(dc)
	case "markdown":
		return textResult(report.ToMarkdown(dc))
	case "sarif":
		body, sarifErr := report.ToSARIF(dc)
		if sarifErr != nil {
			return errorResult(fmt.Errorf("encode sarif: %w", sarifErr))
		}

		return textResult(string(body))
	default:
		return errorResult(ErrBadFormat)
	}
}
