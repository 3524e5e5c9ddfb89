package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
	"github.com/joelmbaka/introspect/internal/logger"
)

// Fallback confidence bounds when retrieval failed or matched nothing.
const (
	fallbackConfidence   = 0.45
	maxConfidence        = 0.95
	defaultAnalysisType  = "general"
	synthesisMaxTokens   = 1500
	synthesisTemperature = 0.2
	llmContextEntryLimit = 20
)

// SynthesisService converts a retrieval envelope plus the original prompt
// into a schema-validated Report. When an LLM service is configured it
// drafts the report and the output is repaired/validated here; without one,
// a deterministic builder produces the report directly. Either way the
// schema is enforced by this code, never trusted from the model.
type SynthesisService struct {
	llm driven.LLMService
}

// NewSynthesisService creates the synthesis stage. llm may be nil.
func NewSynthesisService(llm driven.LLMService) *SynthesisService {
	return &SynthesisService{llm: llm}
}

// Synthesize produces the terminal Report for a request.
//
// Primary path: envelope is Ok and non-empty. Fallback path: envelope is an
// error or empty - the report is built from the prompt alone with
// entries_analyzed=0, confidence in [0.3,0.6], and no date range.
func (s *SynthesisService) Synthesize(
	ctx context.Context, prompt string, env domain.RetrievalEnvelope, preferred []string,
) (*domain.Report, error) {
	logger.Section("Report Synthesis")

	if env.Failed() || env.Empty() {
		if env.Failed() {
			logger.Warn("Synthesizing fallback report: retrieval error: %s", env.Err)
		} else {
			logger.Info("Synthesizing fallback report: no entries matched")
		}
		return s.fallbackReport(prompt, preferred), nil
	}

	if s.llm != nil {
		report, err := s.llmReport(ctx, prompt, env, preferred)
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	logger.Debug("LLM service not available, using deterministic synthesis")
	return s.buildReport(prompt, env.Results, preferred), nil
}

// llmReport asks the model for report JSON and repairs/validates the output.
func (s *SynthesisService) llmReport(
	ctx context.Context, prompt string, env domain.RetrievalEnvelope, preferred []string,
) (*domain.Report, error) {
	envJSON, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	results := env.Results
	if len(results) > llmContextEntryLimit {
		trimmed := domain.OkEnvelope(results[:llmContextEntryLimit])
		if data, merr := json.Marshal(trimmed); merr == nil {
			envJSON = data
		}
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(synthesisUserPrompt, prompt, strings.Join(preferred, ", "), string(envJSON))},
	}

	raw, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   synthesisMaxTokens,
		Temperature: synthesisTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis generation: %w", err)
	}

	report, err := ParseReport(raw)
	if err != nil {
		return nil, err
	}

	// Fields the model must not get wrong are pinned from known values.
	report.EntriesAnalyzed = len(env.Results)
	report.PromptUsed = domain.Truncate(prompt, domain.MaxPromptUsedLen)
	if report.DateRangeStart == "" || report.DateRangeEnd == "" {
		start, end := dateSpan(env.Results)
		report.DateRangeStart, report.DateRangeEnd = start, end
	}

	report.Normalize()
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

const synthesisSystemPrompt = `You are a journal analysis specialist. ` +
	`Respond with a single JSON object and nothing else. Fields: title, summary, ` +
	`analysis_type (array of strings), key_insights (array of {title, description, confidence}), ` +
	`recommendations (array of {action, priority, rationale}, priority one of high/medium/low), ` +
	`mood_patterns (optional array of {dominant_mood, trend, frequency}, trend one of ` +
	`improving/declining/stable/mixed), themes_identified, keywords, confidence_score (0-1).`

const synthesisUserPrompt = `User request: %s
Preferred analysis types: %s
Search results envelope:
%s`

// ParseReport interprets raw model output as a Report. Accepted shapes: a
// bare JSON object, or the same object wrapped in markdown code-fence
// markers with an optional language tag.
func ParseReport(raw string) (*domain.Report, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty synthesis output", domain.ErrParse)
	}

	var payload reportPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return payload.toReport(), nil
}

// CoerceReport normalizes any accepted shape of stage output - a typed
// report, a generic map, raw JSON text or bytes - into a validated Report.
func CoerceReport(v any) (*domain.Report, error) {
	var report *domain.Report

	switch out := v.(type) {
	case *domain.Report:
		report = out
	case domain.Report:
		report = &out
	case map[string]any:
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
		}
		parsed, err := ParseReport(string(data))
		if err != nil {
			return nil, err
		}
		report = parsed
	case []byte:
		parsed, err := ParseReport(string(out))
		if err != nil {
			return nil, err
		}
		report = parsed
	case string:
		parsed, err := ParseReport(out)
		if err != nil {
			return nil, err
		}
		report = parsed
	default:
		return nil, fmt.Errorf("%w: unsupported synthesis output type %T", domain.ErrParse, v)
	}

	report.Normalize()
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

// StripCodeFences removes a leading markdown fence (with optional language
// tag) and the matching trailing fence, mirroring how model output is
// commonly wrapped.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the fence line, if any.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || isLanguageTag(first) {
			s = s[idx+1:]
		}
	} else {
		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, "json")
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// reportPayload is the permissive decode shape for model output. It accepts
// the strict schema plus the legacy shapes the original report model used
// (plain-string insights and recommendations, a single mood_analysis
// string), repairing them into the nested schema.
type reportPayload struct {
	Title            string               `json:"title"`
	Summary          string               `json:"summary"`
	AnalysisType     flexStrings          `json:"analysis_type"`
	KeyInsights      flexInsights         `json:"key_insights"`
	Recommendations  flexRecommendations  `json:"recommendations"`
	MoodPatterns     []domain.MoodPattern `json:"mood_patterns"`
	MoodAnalysis     string               `json:"mood_analysis"`
	ThemesIdentified flexStrings          `json:"themes_identified"`
	Keywords         flexStrings          `json:"keywords"`
	EntriesAnalyzed  int                  `json:"entries_analyzed"`
	DateRangeStart   string               `json:"date_range_start"`
	DateRangeEnd     string               `json:"date_range_end"`
	ConfidenceScore  float64              `json:"confidence_score"`
	PromptUsed       string               `json:"prompt_used"`
	UserFocusAreas   flexStrings          `json:"user_focus_areas"`
}

func (p reportPayload) toReport() *domain.Report {
	report := &domain.Report{
		Title:            p.Title,
		Summary:          p.Summary,
		AnalysisType:     p.AnalysisType,
		KeyInsights:      p.KeyInsights,
		Recommendations:  p.Recommendations,
		MoodPatterns:     p.MoodPatterns,
		ThemesIdentified: p.ThemesIdentified,
		Keywords:         p.Keywords,
		EntriesAnalyzed:  p.EntriesAnalyzed,
		DateRangeStart:   p.DateRangeStart,
		DateRangeEnd:     p.DateRangeEnd,
		ConfidenceScore:  p.ConfidenceScore,
		PromptUsed:       p.PromptUsed,
		UserFocusAreas:   p.UserFocusAreas,
	}
	if len(report.MoodPatterns) == 0 && strings.TrimSpace(p.MoodAnalysis) != "" {
		report.MoodPatterns = []domain.MoodPattern{{
			DominantMood: domain.Truncate(p.MoodAnalysis, domain.MaxDominantMoodLen),
			Trend:        domain.TrendMixed,
		}}
	}
	return report
}

// flexStrings decodes either a JSON array of strings or a single string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*f = nil
		return nil
	}
	*f = []string{single}
	return nil
}

// flexInsights decodes either structured insights or the legacy
// plain-string form.
type flexInsights []domain.KeyInsight

func (f *flexInsights) UnmarshalJSON(data []byte) error {
	var structured []domain.KeyInsight
	if err := json.Unmarshal(data, &structured); err == nil && insightsUsable(structured) {
		*f = structured
		return nil
	}
	var plain []string
	if err := json.Unmarshal(data, &plain); err != nil {
		return fmt.Errorf("key_insights: %w", err)
	}
	out := make([]domain.KeyInsight, 0, len(plain))
	for _, s := range plain {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, domain.KeyInsight{
			Title:       domain.Truncate(s, domain.MaxInsightTitleLen),
			Description: domain.Truncate(s, domain.MaxInsightDescLen),
			Confidence:  0.5,
		})
	}
	*f = out
	return nil
}

// insightsUsable rejects a structured decode where every record came out
// zero-valued, which happens when the array actually held plain strings.
func insightsUsable(insights []domain.KeyInsight) bool {
	if len(insights) == 0 {
		return true
	}
	for _, ins := range insights {
		if ins.Title != "" || ins.Description != "" {
			return true
		}
	}
	return false
}

// flexRecommendations decodes either structured recommendations or the
// legacy plain-string form.
type flexRecommendations []domain.Recommendation

func (f *flexRecommendations) UnmarshalJSON(data []byte) error {
	var structured []domain.Recommendation
	if err := json.Unmarshal(data, &structured); err == nil && recommendationsUsable(structured) {
		*f = structured
		return nil
	}
	var plain []string
	if err := json.Unmarshal(data, &plain); err != nil {
		return fmt.Errorf("recommendations: %w", err)
	}
	out := make([]domain.Recommendation, 0, len(plain))
	for _, s := range plain {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, domain.Recommendation{
			Action:   domain.Truncate(s, domain.MaxActionLen),
			Priority: domain.PriorityMedium,
		})
	}
	*f = out
	return nil
}

func recommendationsUsable(recs []domain.Recommendation) bool {
	if len(recs) == 0 {
		return true
	}
	for _, rec := range recs {
		if rec.Action != "" {
			return true
		}
	}
	return false
}
