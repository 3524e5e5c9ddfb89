package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// GenerateReportInput is the input schema for the generate_report tool.
type GenerateReportInput struct {
	Prompt                 string   `json:"prompt" jsonschema:"natural-language analysis request over the user's journal"`
	UserID                 string   `json:"user_id" jsonschema:"identifier of the requesting user"`
	UserToken              string   `json:"user_token" jsonschema:"bearer token forwarded to the entry store for row-level access"`
	DateRangeDays          int      `json:"date_range_days,omitempty" jsonschema:"how many days back to analyze (default 30)"`
	PreferredAnalysisTypes []string `json:"preferred_analysis_types,omitempty" jsonschema:"suggested analysis types, at most 3"`
	MatchCount             int      `json:"match_count,omitempty" jsonschema:"number of entries to retrieve (default 10)"`
	EntryIDs               []string `json:"entry_ids,omitempty" jsonschema:"analyze these specific entries instead of searching"`
}

// GenerateReportOutput is the output schema for the generate_report tool.
type GenerateReportOutput struct {
	Success               bool           `json:"success"`
	Report                *domain.Report `json:"report,omitempty"`
	ErrorMessage          string         `json:"error_message,omitempty"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate a structured analysis report from the user's journal entries",
	}, s.handleGenerateReport)
}

// handleGenerateReport handles the generate_report tool invocation. The
// pipeline never errors; failures surface in the output payload so the host
// model can relay them.
func (s *Server) handleGenerateReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateReportInput,
) (*mcp.CallToolResult, GenerateReportOutput, error) {
	req := domain.ReportRequest{
		Prompt:                 input.Prompt,
		UserID:                 input.UserID,
		UserToken:              input.UserToken,
		DateRangeDays:          input.DateRangeDays,
		PreferredAnalysisTypes: input.PreferredAnalysisTypes,
		MatchCount:             input.MatchCount,
		EntryIDs:               input.EntryIDs,
	}

	resp := s.ports.Report.GenerateReport(ctx, req)

	return nil, GenerateReportOutput{
		Success:               resp.Success,
		Report:                resp.Report,
		ErrorMessage:          resp.ErrorMessage,
		ProcessingTimeSeconds: resp.ProcessingTimeSeconds,
	}, nil
}
