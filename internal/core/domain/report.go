package domain

import (
	"fmt"
	"strings"
)

// Priority ranks a recommendation. Values are lowercase on the wire.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MoodTrend describes the direction of a mood pattern over the analyzed
// period. Values are lowercase on the wire.
type MoodTrend string

const (
	TrendImproving MoodTrend = "improving"
	TrendDeclining MoodTrend = "declining"
	TrendStable    MoodTrend = "stable"
	TrendMixed     MoodTrend = "mixed"
)

// Field length limits for the report schema.
const (
	MaxReportTitleLen  = 150
	MaxSummaryLen      = 1000
	MaxInsightTitleLen = 100
	MaxInsightDescLen  = 500
	MaxActionLen       = 200
	MaxRationaleLen    = 300
	MaxDominantMoodLen = 50
	MaxPromptUsedLen   = 500
	MaxAnalysisTypes   = 5
	MaxKeyInsights     = 10
	MaxRecommendations = 8
	MaxMoodPatterns    = 10
	MaxThemes          = 15
	MaxKeywords        = 20
	MaxUserFocusAreas  = 10
)

// KeyInsight is a single pattern or theme discovered in the entries.
type KeyInsight struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Recommendation is an actionable suggestion derived from the analysis.
type Recommendation struct {
	Action    string   `json:"action"`
	Priority  Priority `json:"priority"`
	Rationale string   `json:"rationale"`
}

// MoodPattern summarises an emotional pattern across the entries.
type MoodPattern struct {
	DominantMood string    `json:"dominant_mood"`
	Trend        MoodTrend `json:"trend"`
	Frequency    int       `json:"frequency"`
}

// Report is the terminal artifact of the pipeline: a structured analysis of
// the user's journal entries. Constructed once per request by the synthesis
// stage and immutable thereafter.
type Report struct {
	Title            string           `json:"title"`
	Summary          string           `json:"summary"`
	AnalysisType     []string         `json:"analysis_type"`
	KeyInsights      []KeyInsight     `json:"key_insights"`
	Recommendations  []Recommendation `json:"recommendations"`
	MoodPatterns     []MoodPattern    `json:"mood_patterns,omitempty"`
	ThemesIdentified []string         `json:"themes_identified,omitempty"`
	Keywords         []string         `json:"keywords,omitempty"`
	EntriesAnalyzed  int              `json:"entries_analyzed"`
	DateRangeStart   string           `json:"date_range_start,omitempty"`
	DateRangeEnd     string           `json:"date_range_end,omitempty"`
	ConfidenceScore  float64          `json:"confidence_score"`
	PromptUsed       string           `json:"prompt_used"`
	UserFocusAreas   []string         `json:"user_focus_areas,omitempty"`
}

// Truncate shortens s to at most limit characters, appending an ellipsis
// marker when text was dropped.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// NormalizePriority repairs enum casing and defaults uncertain values to
// medium. Any unknown value also collapses to medium.
func NormalizePriority(p Priority) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(string(p)))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// NormalizeTrend repairs enum casing and defaults uncertain values to mixed.
func NormalizeTrend(t MoodTrend) MoodTrend {
	switch MoodTrend(strings.ToLower(strings.TrimSpace(string(t)))) {
	case TrendImproving:
		return TrendImproving
	case TrendDeclining:
		return TrendDeclining
	case TrendStable:
		return TrendStable
	default:
		return TrendMixed
	}
}

// Normalize repairs the recoverable schema violations in place: enum casing,
// overlong strings, oversized collections, out-of-range scores, and negative
// counters. Violations that cannot be repaired (missing required fields) are
// left for Validate to reject.
func (r *Report) Normalize() {
	r.Title = Truncate(strings.TrimSpace(r.Title), MaxReportTitleLen)
	r.Summary = Truncate(strings.TrimSpace(r.Summary), MaxSummaryLen)
	r.PromptUsed = Truncate(r.PromptUsed, MaxPromptUsedLen)
	r.ConfidenceScore = clamp01(r.ConfidenceScore)

	if r.EntriesAnalyzed < 0 {
		r.EntriesAnalyzed = 0
	}

	r.AnalysisType = truncateStrings(r.AnalysisType, MaxAnalysisTypes, 0)
	if len(r.AnalysisType) == 0 {
		r.AnalysisType = []string{"general"}
	}

	if len(r.KeyInsights) > MaxKeyInsights {
		r.KeyInsights = r.KeyInsights[:MaxKeyInsights]
	}
	for i := range r.KeyInsights {
		r.KeyInsights[i].Title = Truncate(strings.TrimSpace(r.KeyInsights[i].Title), MaxInsightTitleLen)
		r.KeyInsights[i].Description = Truncate(strings.TrimSpace(r.KeyInsights[i].Description), MaxInsightDescLen)
		r.KeyInsights[i].Confidence = clamp01(r.KeyInsights[i].Confidence)
	}

	if len(r.Recommendations) > MaxRecommendations {
		r.Recommendations = r.Recommendations[:MaxRecommendations]
	}
	for i := range r.Recommendations {
		r.Recommendations[i].Action = Truncate(strings.TrimSpace(r.Recommendations[i].Action), MaxActionLen)
		r.Recommendations[i].Priority = NormalizePriority(r.Recommendations[i].Priority)
		r.Recommendations[i].Rationale = Truncate(strings.TrimSpace(r.Recommendations[i].Rationale), MaxRationaleLen)
	}

	if len(r.MoodPatterns) > MaxMoodPatterns {
		r.MoodPatterns = r.MoodPatterns[:MaxMoodPatterns]
	}
	for i := range r.MoodPatterns {
		r.MoodPatterns[i].DominantMood = Truncate(strings.TrimSpace(r.MoodPatterns[i].DominantMood), MaxDominantMoodLen)
		r.MoodPatterns[i].Trend = NormalizeTrend(r.MoodPatterns[i].Trend)
		if r.MoodPatterns[i].Frequency < 0 {
			r.MoodPatterns[i].Frequency = 0
		}
	}

	r.ThemesIdentified = truncateStrings(r.ThemesIdentified, MaxThemes, 0)
	r.Keywords = truncateStrings(r.Keywords, MaxKeywords, 0)
	r.UserFocusAreas = truncateStrings(r.UserFocusAreas, MaxUserFocusAreas, 0)
}

// Validate checks the report against the schema. It assumes Normalize has
// already repaired what is repairable; anything it flags is a hard contract
// violation.
func (r *Report) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: report title is required", ErrValidation)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("%w: report summary is required", ErrValidation)
	}
	if len(r.Summary) > MaxSummaryLen {
		return fmt.Errorf("%w: summary exceeds %d characters", ErrValidation, MaxSummaryLen)
	}
	if len(r.AnalysisType) < 1 || len(r.AnalysisType) > MaxAnalysisTypes {
		return fmt.Errorf("%w: analysis_type must contain 1..%d entries", ErrValidation, MaxAnalysisTypes)
	}
	if len(r.KeyInsights) < 1 || len(r.KeyInsights) > MaxKeyInsights {
		return fmt.Errorf("%w: key_insights must contain 1..%d entries", ErrValidation, MaxKeyInsights)
	}
	for i, ins := range r.KeyInsights {
		if strings.TrimSpace(ins.Title) == "" || strings.TrimSpace(ins.Description) == "" {
			return fmt.Errorf("%w: key_insights[%d] requires title and description", ErrValidation, i)
		}
		if ins.Confidence < 0 || ins.Confidence > 1 {
			return fmt.Errorf("%w: key_insights[%d] confidence out of range", ErrValidation, i)
		}
	}
	if len(r.Recommendations) > MaxRecommendations {
		return fmt.Errorf("%w: recommendations exceed %d entries", ErrValidation, MaxRecommendations)
	}
	for i, rec := range r.Recommendations {
		if strings.TrimSpace(rec.Action) == "" {
			return fmt.Errorf("%w: recommendations[%d] requires an action", ErrValidation, i)
		}
		switch rec.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return fmt.Errorf("%w: recommendations[%d] priority %q is not one of high/medium/low", ErrValidation, i, rec.Priority)
		}
	}
	for i, mp := range r.MoodPatterns {
		switch mp.Trend {
		case TrendImproving, TrendDeclining, TrendStable, TrendMixed:
		default:
			return fmt.Errorf("%w: mood_patterns[%d] trend %q is not a known trend", ErrValidation, i, mp.Trend)
		}
		if mp.Frequency < 0 {
			return fmt.Errorf("%w: mood_patterns[%d] frequency must be >= 0", ErrValidation, i)
		}
	}
	if r.EntriesAnalyzed < 0 {
		return fmt.Errorf("%w: entries_analyzed must be >= 0", ErrValidation)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return fmt.Errorf("%w: confidence_score out of range", ErrValidation)
	}
	if len(r.PromptUsed) > MaxPromptUsedLen {
		return fmt.Errorf("%w: prompt_used exceeds %d characters", ErrValidation, MaxPromptUsedLen)
	}
	return nil
}

// truncateStrings trims each element, drops empties, and caps the slice at
// maxItems. maxLen of 0 leaves element length unchecked.
func truncateStrings(items []string, maxItems, maxLen int) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if maxLen > 0 {
			s = Truncate(s, maxLen)
		}
		out = append(out, s)
		if len(out) == maxItems {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
