package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// moodVocabulary maps words found in entry titles/content to a dominant
// mood bucket for the deterministic mood pattern.
var moodVocabulary = map[string]string{
	"happy": "positive", "excited": "positive", "grateful": "positive",
	"proud": "positive", "optimistic": "positive", "great": "positive",
	"stressed": "stressed", "anxious": "stressed", "worried": "stressed",
	"overwhelmed": "stressed", "frustrated": "frustrated", "angry": "frustrated",
	"tired": "drained", "exhausted": "drained", "sad": "low", "down": "low",
	"calm": "calm", "relaxed": "calm", "focused": "focused", "motivated": "focused",
}

// buildReport is the deterministic primary-path synthesizer: it derives the
// report entirely from the retrieved entries, so it always satisfies the
// schema without repair.
func (s *SynthesisService) buildReport(prompt string, results []domain.EntryRecord, preferred []string) *domain.Report {
	start, end := dateSpan(results)
	keywords := topKeywords(results, domain.MaxKeywords)

	report := &domain.Report{
		Title:           reportTitle(prompt),
		Summary:         buildSummary(prompt, results, start, end),
		AnalysisType:    analysisTypes(prompt, preferred),
		KeyInsights:     buildInsights(results, keywords),
		Recommendations: buildRecommendations(results),
		MoodPatterns:    buildMoodPatterns(results),
		Keywords:        keywords,
		EntriesAnalyzed: len(results),
		DateRangeStart:  start,
		DateRangeEnd:    end,
		ConfidenceScore: confidenceScore(results),
		PromptUsed:      domain.Truncate(prompt, domain.MaxPromptUsedLen),
	}
	if len(keywords) > 0 {
		limit := len(keywords)
		if limit > domain.MaxThemes {
			limit = domain.MaxThemes
		}
		report.ThemesIdentified = keywords[:limit]
	}

	report.Normalize()
	return report
}

// fallbackReport builds a valid Report from the prompt alone. Used when
// retrieval failed, matched nothing, or its output was unparseable:
// entries_analyzed is forced to 0, confidence sits strictly inside
// [0.3,0.6], and the date range is absent.
func (s *SynthesisService) fallbackReport(prompt string, preferred []string) *domain.Report {
	report := &domain.Report{
		Title:   reportTitle(prompt),
		Summary: fmt.Sprintf("No journal entries were available to analyze for this request: %q. The report below is based on the request alone; add or sync entries and try again for a grounded analysis.", domain.Truncate(prompt, 200)),
		AnalysisType: analysisTypes(prompt, preferred),
		KeyInsights: []domain.KeyInsight{
			{
				Title:       "No matching entries",
				Description: "The search returned no usable journal entries, so no patterns could be drawn from your writing for this request.",
				Confidence:  0.9,
			},
		},
		Recommendations: []domain.Recommendation{
			{
				Action:    "Write or sync journal entries covering the period you asked about",
				Priority:  domain.PriorityMedium,
				Rationale: "Analysis quality depends on having entries to draw from.",
			},
		},
		EntriesAnalyzed: 0,
		ConfidenceScore: fallbackConfidence,
		PromptUsed:      domain.Truncate(prompt, domain.MaxPromptUsedLen),
	}
	report.Normalize()
	return report
}

// reportTitle derives a short title from the prompt.
func reportTitle(prompt string) string {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return "Journal Analysis"
	}
	return domain.Truncate("Journal Analysis: "+p, domain.MaxReportTitleLen)
}

// analysisTypes honours the caller's preferred types, otherwise infers one
// from the prompt.
func analysisTypes(prompt string, preferred []string) []string {
	var types []string
	for _, t := range preferred {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
		if len(types) == domain.MaxAnalysisTypes {
			break
		}
	}
	if len(types) > 0 {
		return types
	}

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "mood") || strings.Contains(lower, "feel"):
		return []string{"mood_analysis"}
	case strings.Contains(lower, "goal") || strings.Contains(lower, "objective") || strings.Contains(lower, "okr"):
		return []string{"goal_tracking"}
	case strings.Contains(lower, "growth") || strings.Contains(lower, "progress"):
		return []string{"personal_growth"}
	default:
		return []string{defaultAnalysisType}
	}
}

// buildSummary produces the overview sentence for the primary path.
func buildSummary(prompt string, results []domain.EntryRecord, start, end string) string {
	span := ""
	if start != "" && end != "" {
		span = fmt.Sprintf(" between %s and %s", start, end)
	}
	return domain.Truncate(fmt.Sprintf(
		"Analysis of %d journal entries%s in response to %q. The strongest matches are listed as key insights, with themes and keywords drawn from entry titles and content.",
		len(results), span, prompt), domain.MaxSummaryLen)
}

// buildInsights turns the strongest matches and recurring themes into
// 1..10 key insights.
func buildInsights(results []domain.EntryRecord, keywords []string) []domain.KeyInsight {
	var insights []domain.KeyInsight

	limit := len(results)
	if limit > 5 {
		limit = 5
	}
	for _, rec := range results[:limit] {
		conf := 0.5
		if rec.Similarity != nil {
			conf = clampConfidence(*rec.Similarity)
		}
		title := rec.Title
		if title == "" {
			title = "Journal entry " + rec.Date
		}
		desc := fmt.Sprintf("Entry %q (%s) is relevant to this request.", rec.Title, rec.Date)
		if rec.Content != "" {
			desc = domain.Truncate(rec.Content, domain.MaxInsightDescLen)
		}
		insights = append(insights, domain.KeyInsight{
			Title:       domain.Truncate(title, domain.MaxInsightTitleLen),
			Description: domain.Truncate(desc, domain.MaxInsightDescLen),
			Confidence:  conf,
		})
	}

	if len(keywords) >= 2 {
		insights = append(insights, domain.KeyInsight{
			Title:       domain.Truncate("Recurring themes: "+strings.Join(keywords[:2], ", "), domain.MaxInsightTitleLen),
			Description: fmt.Sprintf("The terms %s recur across the matched entries, suggesting sustained attention on these areas.", strings.Join(keywords[:2], " and ")),
			Confidence:  0.6,
		})
	}

	if len(insights) == 0 {
		insights = append(insights, domain.KeyInsight{
			Title:       "Limited signal",
			Description: "The matched entries were too sparse to extract distinct patterns.",
			Confidence:  0.4,
		})
	}
	if len(insights) > domain.MaxKeyInsights {
		insights = insights[:domain.MaxKeyInsights]
	}
	return insights
}

// buildRecommendations emits up to two generic, medium-priority suggestions
// grounded in what was retrieved.
func buildRecommendations(results []domain.EntryRecord) []domain.Recommendation {
	recs := []domain.Recommendation{
		{
			Action:    "Revisit the highlighted entries and note what has changed since",
			Priority:  domain.PriorityMedium,
			Rationale: "Comparing past entries against the present makes progress visible.",
		},
	}
	if len(results) >= 5 {
		recs = append(recs, domain.Recommendation{
			Action:    "Keep journaling at the current cadence",
			Priority:  domain.PriorityLow,
			Rationale: "A steady volume of entries keeps future analyses well grounded.",
		})
	}
	return recs
}

// buildMoodPatterns scans titles and content for mood vocabulary. Returns
// nil when no emotional signal is present.
func buildMoodPatterns(results []domain.EntryRecord) []domain.MoodPattern {
	counts := make(map[string]int)
	for _, rec := range results {
		for _, w := range tokenize(strings.ToLower(rec.Title + " " + rec.Content)) {
			if mood, ok := moodVocabulary[w]; ok {
				counts[mood]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}

	moods := make([]string, 0, len(counts))
	for mood := range counts {
		moods = append(moods, mood)
	}
	sort.Slice(moods, func(i, j int) bool {
		if counts[moods[i]] != counts[moods[j]] {
			return counts[moods[i]] > counts[moods[j]]
		}
		return moods[i] < moods[j]
	})

	trend := domain.TrendMixed
	if len(moods) == 1 {
		trend = domain.TrendStable
	}
	return []domain.MoodPattern{{
		DominantMood: moods[0],
		Trend:        trend,
		Frequency:    counts[moods[0]],
	}}
}

// topKeywords extracts the most frequent content words from entry titles.
func topKeywords(results []domain.EntryRecord, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, rec := range results {
		for _, w := range contentWords(tokenize(strings.ToLower(rec.Title))) {
			if len(w) < 3 {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	if len(order) == 0 {
		return nil
	}
	return order
}

// dateSpan returns the min and max entry dates, or empty strings when not
// determinable. ISO dates compare lexicographically.
func dateSpan(results []domain.EntryRecord) (string, string) {
	var min, max string
	for _, rec := range results {
		if rec.Date == "" {
			continue
		}
		if min == "" || rec.Date < min {
			min = rec.Date
		}
		if max == "" || rec.Date > max {
			max = rec.Date
		}
	}
	return min, max
}

// confidenceScore reflects result count and match quality: more entries and
// stronger similarities push it up, capped below 1.
func confidenceScore(results []domain.EntryRecord) float64 {
	count := len(results)
	if count == 0 {
		return fallbackConfidence
	}

	score := 0.35
	n := count
	if n > 8 {
		n = 8
	}
	score += 0.05 * float64(n)

	var simSum float64
	var simCount int
	for _, rec := range results {
		if rec.Similarity != nil {
			simSum += *rec.Similarity
			simCount++
		}
	}
	if simCount > 0 {
		avg := simSum / float64(simCount)
		if avg < 0 {
			avg = 0
		}
		score += 0.3 * avg
	} else {
		// Date-only retrieval carries no match-quality signal.
		score += 0.1
	}

	if score > maxConfidence {
		score = maxConfidence
	}
	return score
}

func clampConfidence(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
