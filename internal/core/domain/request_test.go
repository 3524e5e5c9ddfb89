package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() ReportRequest {
	return ReportRequest{
		Prompt:    "Summarize my goals from last week",
		UserID:    "user-1",
		UserToken: "jwt-token",
	}
}

func TestRequestValidate(t *testing.T) {
	r := validRequest()
	require.NoError(t, r.Validate())
}

func TestRequestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReportRequest)
	}{
		{"missing prompt", func(r *ReportRequest) { r.Prompt = " " }},
		{"overlong prompt", func(r *ReportRequest) { r.Prompt = strings.Repeat("p", MaxPromptLen+1) }},
		{"missing user id", func(r *ReportRequest) { r.UserID = "" }},
		{"missing token", func(r *ReportRequest) { r.UserToken = "" }},
		{"date range too small", func(r *ReportRequest) { r.DateRangeDays = -2 }},
		{"date range too large", func(r *ReportRequest) { r.DateRangeDays = 400 }},
		{"too many analysis types", func(r *ReportRequest) {
			r.PreferredAnalysisTypes = []string{"a", "b", "c", "d"}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRequestApplyDefaults(t *testing.T) {
	r := validRequest()
	r.ApplyDefaults()
	assert.Equal(t, DefaultDateRangeDays, r.DateRangeDays)
	assert.Equal(t, DefaultMatchCount, r.MatchCount)

	r2 := validRequest()
	r2.DateRangeDays = 7
	r2.MatchCount = 25
	r2.ApplyDefaults()
	assert.Equal(t, 7, r2.DateRangeDays)
	assert.Equal(t, 25, r2.MatchCount)
}

func TestOutcomeResponseShaping(t *testing.T) {
	rep := validReport()
	ok := ReportOutcome{Report: &rep, Elapsed: 1500 * time.Millisecond}
	resp := ok.Response()
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Report)
	assert.Empty(t, resp.ErrorMessage)
	assert.InDelta(t, 1.5, resp.ProcessingTimeSeconds, 1e-9)

	bad := ReportOutcome{ErrMessage: "synthesis failed", Elapsed: time.Second}
	resp = bad.Response()
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Report)
	assert.Equal(t, "synthesis failed", resp.ErrorMessage)
}
