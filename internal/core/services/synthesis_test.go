package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

func fiveScoredEntries() []domain.EntryRecord {
	return []domain.EntryRecord{
		entry("1", "shipped the release", "2025-08-01", simPtr(0.9)),
		entry("2", "release retrospective", "2025-08-03", simPtr(0.8)),
		entry("3", "planning the release", "2025-07-28", simPtr(0.75)),
		entry("4", "team standup notes", "2025-07-20", simPtr(0.6)),
		entry("5", "quarterly goals", "2025-07-01", simPtr(0.5)),
	}
}

func TestSynthesizeDeterministicPrimaryPath(t *testing.T) {
	svc := NewSynthesisService(nil)
	env := domain.OkEnvelope(fiveScoredEntries())

	report, err := svc.Synthesize(context.Background(), "How did the release go?", env, nil)
	require.NoError(t, err)
	require.NoError(t, report.Validate())

	assert.Equal(t, 5, report.EntriesAnalyzed)
	assert.Greater(t, report.ConfidenceScore, 0.5)
	assert.Equal(t, "2025-07-01", report.DateRangeStart)
	assert.Equal(t, "2025-08-03", report.DateRangeEnd)
	assert.NotEmpty(t, report.KeyInsights)
	assert.NotEmpty(t, report.Recommendations)
	assert.Equal(t, "How did the release go?", report.PromptUsed)
}

func TestSynthesizeFallbackOnErrorEnvelope(t *testing.T) {
	svc := NewSynthesisService(&mockLLM{response: "should not be called"})
	env := domain.ErrorEnvelope("RPC error 500: upstream failure")

	report, err := svc.Synthesize(context.Background(), "summarize my week", env, nil)
	require.NoError(t, err, "a failed retrieval still produces a report")
	require.NoError(t, report.Validate())

	assert.Zero(t, report.EntriesAnalyzed)
	assert.GreaterOrEqual(t, report.ConfidenceScore, 0.3)
	assert.LessOrEqual(t, report.ConfidenceScore, 0.6)
	assert.Empty(t, report.DateRangeStart)
	assert.Empty(t, report.DateRangeEnd)
}

func TestSynthesizeFallbackOnEmptyResults(t *testing.T) {
	svc := NewSynthesisService(nil)
	env := domain.OkEnvelope(nil)

	report, err := svc.Synthesize(context.Background(), "anything", env, []string{"Mood_Analysis"})
	require.NoError(t, err)
	require.NoError(t, report.Validate())

	assert.Zero(t, report.EntriesAnalyzed)
	assert.Equal(t, []string{"mood_analysis"}, report.AnalysisType)
}

func TestSynthesizeWithLLMStripsCodeFences(t *testing.T) {
	raw := "```json\n" + `{
		"title": "Release Review",
		"summary": "You shipped on time and reflected on the process.",
		"analysis_type": ["general"],
		"key_insights": [{"title": "Shipped on time", "description": "The release landed without a slip.", "confidence": 0.8}],
		"recommendations": [{"action": "Capture the retro actions", "priority": "HIGH", "rationale": "They fade fast."}],
		"confidence_score": 0.8
	}` + "\n```"
	llm := &mockLLM{response: raw}
	svc := NewSynthesisService(llm)
	env := domain.OkEnvelope(fiveScoredEntries())

	report, err := svc.Synthesize(context.Background(), "How did the release go?", env, nil)
	require.NoError(t, err)
	require.NoError(t, report.Validate())

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, "Release Review", report.Title)
	assert.Equal(t, domain.PriorityHigh, report.Recommendations[0].Priority, "enum casing is repaired")
	assert.Equal(t, 5, report.EntriesAnalyzed, "entry count is pinned, not trusted from the model")
	assert.Equal(t, "2025-07-01", report.DateRangeStart, "missing date range is filled from the results")
}

func TestSynthesizeWithLLMRepairsLegacyShapes(t *testing.T) {
	raw := `{
		"title": "Week in Review",
		"summary": "A steady week overall.",
		"analysis_type": "general",
		"key_insights": ["You kept a consistent routine", "Energy dipped midweek"],
		"recommendations": ["Protect your morning focus block"],
		"mood_analysis": "calm",
		"confidence_score": 0.7
	}`
	svc := NewSynthesisService(&mockLLM{response: raw})
	env := domain.OkEnvelope(fiveScoredEntries())

	report, err := svc.Synthesize(context.Background(), "summarize my week", env, nil)
	require.NoError(t, err)
	require.NoError(t, report.Validate())

	require.Len(t, report.KeyInsights, 2)
	assert.Equal(t, "You kept a consistent routine", report.KeyInsights[0].Title)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, domain.PriorityMedium, report.Recommendations[0].Priority)
	require.Len(t, report.MoodPatterns, 1)
	assert.Equal(t, "calm", report.MoodPatterns[0].DominantMood)
	assert.Equal(t, domain.TrendMixed, report.MoodPatterns[0].Trend)
}

func TestSynthesizeWithLLMUnparseableOutput(t *testing.T) {
	svc := NewSynthesisService(&mockLLM{response: "I am sorry, I cannot produce JSON today."})
	env := domain.OkEnvelope(fiveScoredEntries())

	_, err := svc.Synthesize(context.Background(), "summarize", env, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestSynthesizeWithLLMTransportError(t *testing.T) {
	svc := NewSynthesisService(&mockLLM{err: errors.New("connection refused")})
	env := domain.OkEnvelope(fiveScoredEntries())

	_, err := svc.Synthesize(context.Background(), "summarize", env, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesis generation")
}

func TestSynthesizeLLMPromptCarriesEnvelope(t *testing.T) {
	llm := &mockLLM{response: `{"title": "T", "summary": "S",
		"analysis_type": ["general"],
		"key_insights": [{"title": "i", "description": "d", "confidence": 0.5}],
		"recommendations": [{"action": "a", "priority": "low"}],
		"confidence_score": 0.5}`}
	svc := NewSynthesisService(llm)
	env := domain.OkEnvelope(fiveScoredEntries())

	_, err := svc.Synthesize(context.Background(), "How did the release go?", env, nil)
	require.NoError(t, err)

	require.Len(t, llm.lastMsgs, 2)
	assert.Equal(t, "system", llm.lastMsgs[0].Role)
	user := llm.lastMsgs[1].Content
	assert.Contains(t, user, "How did the release go?")
	assert.Contains(t, user, `"results"`)
	assert.Contains(t, user, "shipped the release")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"no trailing fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}

func TestParseReportRejectsEmptyOutput(t *testing.T) {
	_, err := ParseReport("```json\n```")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestCoerceReportShapes(t *testing.T) {
	valid := map[string]any{
		"title":            "T",
		"summary":          "S",
		"analysis_type":    []any{"general"},
		"key_insights":     []any{map[string]any{"title": "i", "description": "d", "confidence": 0.5}},
		"recommendations":  []any{map[string]any{"action": "a", "priority": "low"}},
		"confidence_score": 0.5,
	}

	t.Run("map", func(t *testing.T) {
		report, err := CoerceReport(valid)
		require.NoError(t, err)
		assert.Equal(t, "T", report.Title)
	})

	t.Run("typed report pointer", func(t *testing.T) {
		in := &domain.Report{
			Title: "T", Summary: "S",
			AnalysisType:    []string{"general"},
			KeyInsights:     []domain.KeyInsight{{Title: "i", Description: "d", Confidence: 0.5}},
			Recommendations: []domain.Recommendation{{Action: "a", Priority: domain.PriorityLow}},
			ConfidenceScore: 0.5,
		}
		report, err := CoerceReport(in)
		require.NoError(t, err)
		assert.Same(t, in, report)
	})

	t.Run("string", func(t *testing.T) {
		raw := `{"title":"T","summary":"S","analysis_type":["general"],` +
			`"key_insights":[{"title":"i","description":"d","confidence":0.5}],` +
			`"recommendations":[{"action":"a","priority":"low"}],"confidence_score":0.5}`
		report, err := CoerceReport(raw)
		require.NoError(t, err)
		assert.Equal(t, "T", report.Title)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := CoerceReport(42)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrParse)
	})

	t.Run("invalid after repair", func(t *testing.T) {
		_, err := CoerceReport(`{"title":"T"}`)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestBuildReportMoodPatterns(t *testing.T) {
	svc := NewSynthesisService(nil)
	results := []domain.EntryRecord{
		{ID: "1", Title: "felt calm after the walk", Date: "2025-08-01"},
		{ID: "2", Title: "calm evening, relaxed reading", Date: "2025-08-02"},
	}

	report := svc.buildReport("how was my mood", results, nil)
	require.NoError(t, report.Validate())
	require.Len(t, report.MoodPatterns, 1)
	assert.Equal(t, "calm", report.MoodPatterns[0].DominantMood)
	assert.Equal(t, domain.TrendStable, report.MoodPatterns[0].Trend)
	assert.Equal(t, []string{"mood_analysis"}, report.AnalysisType)
}

func TestBuildReportWithoutSimilarities(t *testing.T) {
	svc := NewSynthesisService(nil)
	results := []domain.EntryRecord{
		entry("1", "meeting notes", "2025-08-01", nil),
		entry("2", "meeting followup", "2025-08-02", nil),
	}

	report := svc.buildReport("summarize august", results, nil)
	require.NoError(t, report.Validate())
	assert.InDelta(t, 0.55, report.ConfidenceScore, 1e-9, "0.35 base + 0.10 count + 0.10 no-signal")
}

func TestSynthesizeTrimsLLMContext(t *testing.T) {
	var results []domain.EntryRecord
	for i := 0; i < 30; i++ {
		results = append(results, entry(strings.Repeat("x", i+1), "entry", "2025-08-01", simPtr(0.5)))
	}
	llm := &mockLLM{response: `{"title":"T","summary":"S","analysis_type":["general"],` +
		`"key_insights":[{"title":"i","description":"d","confidence":0.5}],` +
		`"recommendations":[{"action":"a","priority":"low"}],"confidence_score":0.5}`}
	svc := NewSynthesisService(llm)

	report, err := svc.Synthesize(context.Background(), "summarize", domain.OkEnvelope(results), nil)
	require.NoError(t, err)
	assert.Equal(t, 30, report.EntriesAnalyzed, "the count reflects every result even when the context is trimmed")
}
