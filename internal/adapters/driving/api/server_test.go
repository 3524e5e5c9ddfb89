package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

type stubReportService struct {
	lastReq domain.ReportRequest
	resp    domain.ReportResponse
	calls   int
}

func (s *stubReportService) GenerateReport(_ context.Context, req domain.ReportRequest) domain.ReportResponse {
	s.lastReq = req
	s.calls++
	return s.resp
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(":0", &stubReportService{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "introspect", health.Service)
}

func TestUnknownPathIs404(t *testing.T) {
	server := NewServer(":0", &stubReportService{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateReportSuccess(t *testing.T) {
	stub := &stubReportService{
		resp: domain.ReportResponse{
			Success:               true,
			Report:                &domain.Report{Title: "Weekly Review"},
			ProcessingTimeSeconds: 0.8,
		},
	}
	server := NewServer(":0", stub)

	body := `{"prompt":"summarize my week","user_id":"u1","user_token":"jwt","match_count":12}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-report", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp domain.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "Weekly Review", resp.Report.Title)

	assert.Equal(t, "summarize my week", stub.lastReq.Prompt)
	assert.Equal(t, "jwt", stub.lastReq.UserToken)
	assert.Equal(t, 12, stub.lastReq.MatchCount)
	assert.Equal(t, domain.DefaultDateRangeDays, stub.lastReq.DateRangeDays, "defaults are filled before the pipeline runs")
}

func TestGenerateReportPipelineFailureIs200(t *testing.T) {
	stub := &stubReportService{
		resp: domain.ReportResponse{Success: false, ErrorMessage: "search service unavailable"},
	}
	server := NewServer(":0", stub)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/generate-report",
		strings.NewReader(`{"prompt":"summarize my week","user_id":"u1","user_token":"jwt"}`)))

	require.Equal(t, http.StatusOK, rec.Code, "pipeline failures are not HTTP failures")

	var resp domain.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.ErrorMessage, "search service unavailable")
}

func TestGenerateReportInvalidFieldsAre400(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing prompt", `{"user_id":"u1","user_token":"jwt"}`},
		{"missing user_id", `{"prompt":"summarize my week","user_token":"jwt"}`},
		{"missing user_token", `{"prompt":"summarize my week","user_id":"u1"}`},
		{"overlong prompt", `{"prompt":"` + strings.Repeat("x", 600) + `","user_id":"u1","user_token":"jwt"}`},
		{"date range out of bounds", `{"prompt":"summarize my week","user_id":"u1","user_token":"jwt","date_range_days":9999}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubReportService{}
			server := NewServer(":0", stub)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(
				http.MethodPost, "/generate-report", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, stub.calls, "invalid requests never reach the pipeline")
		})
	}
}

func TestGenerateReportMalformedJSONIs400(t *testing.T) {
	server := NewServer(":0", &stubReportService{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/generate-report", strings.NewReader(`{"prompt":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateReportWrongMethod(t *testing.T) {
	server := NewServer(":0", &stubReportService{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate-report", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}
