package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// stubReportService records the request and returns a canned response.
type stubReportService struct {
	lastReq domain.ReportRequest
	resp    domain.ReportResponse
}

func (s *stubReportService) GenerateReport(_ context.Context, req domain.ReportRequest) domain.ReportResponse {
	s.lastReq = req
	return s.resp
}

func TestNewServerRequiresReportService(t *testing.T) {
	_, err := NewServer(&Ports{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingReportService)
}

func TestHandleGenerateReport(t *testing.T) {
	stub := &stubReportService{
		resp: domain.ReportResponse{
			Success:               true,
			Report:                &domain.Report{Title: "Weekly Review", EntriesAnalyzed: 4},
			ProcessingTimeSeconds: 1.2,
		},
	}
	server, err := NewServer(&Ports{Report: stub})
	require.NoError(t, err)

	input := GenerateReportInput{
		Prompt:     "summarize my week",
		UserID:     "user-1",
		UserToken:  "jwt",
		MatchCount: 12,
		EntryIDs:   []string{"a"},
	}
	_, output, err := server.handleGenerateReport(context.Background(), nil, input)
	require.NoError(t, err)

	assert.Equal(t, "summarize my week", stub.lastReq.Prompt)
	assert.Equal(t, "jwt", stub.lastReq.UserToken)
	assert.Equal(t, 12, stub.lastReq.MatchCount)
	assert.Equal(t, []string{"a"}, stub.lastReq.EntryIDs)

	require.True(t, output.Success)
	require.NotNil(t, output.Report)
	assert.Equal(t, "Weekly Review", output.Report.Title)
	assert.InDelta(t, 1.2, output.ProcessingTimeSeconds, 1e-9)
}

func TestHandleGenerateReportFailurePayload(t *testing.T) {
	stub := &stubReportService{
		resp: domain.ReportResponse{Success: false, ErrorMessage: "invalid request: prompt is required"},
	}
	server, err := NewServer(&Ports{Report: stub})
	require.NoError(t, err)

	_, output, err := server.handleGenerateReport(context.Background(), nil, GenerateReportInput{})
	require.NoError(t, err, "pipeline failures surface in the payload, not as tool errors")

	assert.False(t, output.Success)
	assert.Nil(t, output.Report)
	assert.Contains(t, output.ErrorMessage, "prompt is required")
}
