package domain

import (
	"fmt"
	"strings"
	"time"
)

// Request field bounds, mirroring the public generate-report contract.
const (
	MaxPromptLen             = 500
	MinDateRangeDays         = 1
	MaxDateRangeDays         = 365
	DefaultDateRangeDays     = 30
	MaxPreferredAnalysisType = 3
)

// ReportRequest is the inbound generate-report operation.
type ReportRequest struct {
	// Prompt is the user's natural-language analysis request.
	Prompt string `json:"prompt"`

	// UserID identifies the requesting user.
	UserID string `json:"user_id"`

	// UserToken is the bearer credential forwarded to the entry store so
	// row-level security scopes results to the caller. Never logged.
	UserToken string `json:"user_token"`

	// DateRangeDays is how far back to analyze. Defaults to 30.
	DateRangeDays int `json:"date_range_days,omitempty"`

	// PreferredAnalysisTypes are suggested analysis types (at most 3).
	PreferredAnalysisTypes []string `json:"preferred_analysis_types,omitempty"`

	// MatchCount is the requested number of search matches. Defaults to 10.
	MatchCount int `json:"match_count,omitempty"`

	// EntryIDs requests direct fetch of specific entries instead of a
	// search. Takes precedence over prompt-driven retrieval.
	EntryIDs []string `json:"entry_ids,omitempty"`
}

// ApplyDefaults fills zero-valued optional fields.
func (r *ReportRequest) ApplyDefaults() {
	if r.DateRangeDays == 0 {
		r.DateRangeDays = DefaultDateRangeDays
	}
	if r.MatchCount == 0 {
		r.MatchCount = DefaultMatchCount
	}
}

// Validate rejects malformed requests. Out-of-range date_range_days is a
// caller error; out-of-range match_count is clamped later, not rejected.
func (r *ReportRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if len(r.Prompt) > MaxPromptLen {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidInput, MaxPromptLen)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.UserToken) == "" {
		return fmt.Errorf("%w: user_token is required", ErrInvalidInput)
	}
	if r.DateRangeDays != 0 && (r.DateRangeDays < MinDateRangeDays || r.DateRangeDays > MaxDateRangeDays) {
		return fmt.Errorf("%w: date_range_days must be in [%d,%d]", ErrInvalidInput, MinDateRangeDays, MaxDateRangeDays)
	}
	if len(r.PreferredAnalysisTypes) > MaxPreferredAnalysisType {
		return fmt.Errorf("%w: preferred_analysis_types allows at most %d entries", ErrInvalidInput, MaxPreferredAnalysisType)
	}
	return nil
}

// ReportResponse is the outbound generate-report payload. Exactly one of
// Report or ErrorMessage is populated, gated by Success.
type ReportResponse struct {
	Success               bool    `json:"success"`
	Report                *Report `json:"report,omitempty"`
	ErrorMessage          string  `json:"error_message,omitempty"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// ReportOutcome is the orchestrator's terminal result for one pipeline run.
type ReportOutcome struct {
	// Report is set on success.
	Report *Report

	// ErrMessage carries a bounded, human-readable diagnostic on failure.
	ErrMessage string

	// Elapsed is the total pipeline duration.
	Elapsed time.Duration
}

// Succeeded reports whether the pipeline produced a valid report.
func (o ReportOutcome) Succeeded() bool {
	return o.Report != nil
}

// Response shapes the outcome into the outbound payload.
func (o ReportOutcome) Response() ReportResponse {
	resp := ReportResponse{
		Success:               o.Succeeded(),
		ProcessingTimeSeconds: o.Elapsed.Seconds(),
	}
	if o.Succeeded() {
		resp.Report = o.Report
	} else {
		resp.ErrorMessage = o.ErrMessage
	}
	return resp
}
