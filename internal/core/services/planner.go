package services

import (
	"strings"
	"time"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/logger"
)

// DefaultMinResults is the sparse-result threshold below which the planner
// offers exactly one broadened follow-up directive.
const DefaultMinResults = 3

// maxQueryWords caps semantic query phrases.
const maxQueryWords = 4

// recencyWindowMonths is how far back "latest"/"recent" prompts look.
const recencyWindowMonths = 2

// PlanParams carries the caller-supplied retrieval parameters that override
// or seed the prompt-driven plan.
type PlanParams struct {
	// MatchCount is the requested result cap. Clamped, never rejected.
	MatchCount int

	// DateRangeDays bounds the default lookback window.
	DateRangeDays int

	// IDs requests a direct fetch and takes precedence over the prompt.
	IDs []string

	// Metric overrides the similarity metric (default cosine).
	Metric domain.Metric

	// MinSimilarity filters weak matches when set.
	MinSimilarity *float64
}

// Planner is the search strategy selector: it turns a free-text prompt and
// optional explicit parameters into a concrete SearchDirective. It is a pure
// decision function and never fails - unknown intents fall back to keyword
// extraction over a permissive default directive.
type Planner struct {
	// MinResults is the sparse-result threshold for the single retry.
	MinResults int

	now func() time.Time
}

// NewPlanner creates a planner with the default retry threshold.
func NewPlanner() *Planner {
	return &Planner{MinResults: DefaultMinResults, now: time.Now}
}

// synonyms expands a recognized action verb into its common variants so an
// event-lookup query matches however the user phrased the original entry.
var synonyms = map[string][]string{
	"deploy":   {"deploy", "deployed", "launch", "released"},
	"deployed": {"deploy", "deployed", "launch", "released"},
	"launch":   {"launch", "launched", "deploy", "released"},
	"launched": {"launch", "launched", "deploy", "released"},
	"release":  {"release", "released", "launch", "shipped"},
	"released": {"release", "released", "launch", "shipped"},
	"ship":     {"ship", "shipped", "launch", "released"},
	"shipped":  {"ship", "shipped", "launch", "released"},
	"start":    {"start", "started", "begin", "began"},
	"started":  {"start", "started", "begin", "began"},
	"finish":   {"finish", "finished", "complete", "completed"},
	"finished": {"finish", "finished", "complete", "completed"},
}

// goalVocabulary is the controlled keyword set for recency prompts that do
// not name a topic of their own.
var goalVocabulary = []string{"goals", "goal", "objective", "okr"}

// stopwords are filler words dropped during keyword extraction.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "me": true, "i": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"from": true, "with": true, "about": true, "and": true, "or": true,
	"did": true, "do": true, "does": true, "was": true, "were": true,
	"is": true, "are": true, "be": true, "been": true, "have": true,
	"has": true, "had": true, "what": true, "when": true, "where": true,
	"how": true, "why": true, "which": true, "that": true, "this": true,
	"these": true, "those": true, "please": true, "show": true, "tell": true,
	"give": true, "summarize": true, "summarise": true, "summary": true,
	"analyze": true, "analyse": true, "analysis": true, "overview": true,
	"review": true, "report": true, "entries": true, "entry": true,
	"journal": true, "journals": true, "last": true, "past": true,
	"recent": true, "recently": true, "latest": true, "lately": true,
	"week": true, "weeks": true, "month": true, "months": true,
	"year": true, "years": true, "day": true, "days": true, "all": true,
	"up": true, "it": true, "its": true, "their": true, "them": true,
	"write": true, "wrote": true, "written": true, "most": true,
	"more": true, "one": true, "ones": true, "some": true, "any": true,
}

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Plan resolves the retrieval strategy for a prompt. The decision order is:
// explicit IDs, event lookup ("when did I ..."), period summary (month/year
// phrasing), recency ("latest"/"recent"), then generic keyword extraction.
func (p *Planner) Plan(prompt string, params PlanParams) domain.SearchDirective {
	d := domain.SearchDirective{
		MatchCount: params.MatchCount,
		Metric:     params.Metric,
	}
	if d.MatchCount <= 0 {
		d.MatchCount = domain.DefaultMatchCount
	}
	d.MinSimilarity = params.MinSimilarity

	defer func() { logger.Debug("Plan: mode=%s query=%q count=%d", d.Mode, d.QueryText, d.MatchCount) }()

	if len(params.IDs) > 0 {
		d.Mode = domain.ModeByID
		d.IDs = params.IDs
		d.Normalize()
		return d
	}

	lower := strings.ToLower(prompt)
	words := tokenize(lower)

	switch {
	case isEventLookup(lower):
		d.Mode = domain.ModeSemantic
		d.QueryText = eventQuery(words)
		// No date bounds unless the prompt names a period explicitly.
		if start, end, ok := p.detectPeriod(lower, words); ok {
			d.StartDate, d.EndDate = start, end
		}

	case p.hasPeriodPhrase(lower, words):
		start, end, _ := p.detectPeriod(lower, words)
		d.Mode = domain.ModeDateOnly
		d.StartDate, d.EndDate = start, end
		if params.MatchCount <= 0 {
			d.MatchCount = domain.DateOnlyMatchCount
		}

	case isRecency(lower):
		d.Mode = domain.ModeSemantic
		d.QueryText = recencyQuery(words)
		now := p.now()
		start := now.AddDate(0, -recencyWindowMonths, 0)
		d.StartDate, d.EndDate = &start, &now

	default:
		d.Mode = domain.ModeSemantic
		d.QueryText = keywordQuery(words)
		if strings.Contains(lower, "last week") || strings.Contains(lower, "past week") {
			now := p.now()
			start := now.AddDate(0, 0, -7)
			d.StartDate, d.EndDate = &start, &now
		}
		if d.QueryText == "" {
			// Nothing searchable in the prompt: list the recent window.
			d.Mode = domain.ModeDateOnly
			days := params.DateRangeDays
			if days <= 0 {
				days = domain.DefaultDateRangeDays
			}
			now := p.now()
			start := now.AddDate(0, 0, -days)
			d.StartDate, d.EndDate = &start, &now
		}
	}

	d.Normalize()
	return d
}

// Broaden produces the single revised directive used when the initial
// retrieval was sparse. It returns false when no useful revision exists;
// callers never loop.
func (p *Planner) Broaden(d domain.SearchDirective, prompt string) (domain.SearchDirective, bool) {
	if len(d.IDs) > 0 {
		return d, false
	}

	revised := d
	switch {
	case d.Mode == domain.ModeSemantic && len(strings.Fields(d.QueryText)) > 2:
		// Narrow the phrase to its two most significant words.
		fields := strings.Fields(d.QueryText)
		revised.QueryText = strings.Join(fields[:2], " ")

	case d.Mode == domain.ModeSemantic && (d.StartDate != nil || d.EndDate != nil):
		// Drop the date bounds to widen recall.
		revised.StartDate = nil
		revised.EndDate = nil

	case d.Mode == domain.ModeSemantic && d.MinSimilarity != nil:
		revised.MinSimilarity = nil

	case d.Mode == domain.ModeDateOnly && d.StartDate != nil:
		// Double the window.
		end := p.now()
		if d.EndDate != nil {
			end = *d.EndDate
		}
		span := int(end.Sub(*d.StartDate).Hours() / 24)
		if span < 1 {
			span = 1
		}
		start := d.StartDate.AddDate(0, 0, -span)
		revised.StartDate = &start

	default:
		return d, false
	}

	revised.Normalize()
	logger.Debug("Broaden: mode=%s query=%q", revised.Mode, revised.QueryText)
	return revised, true
}

// isEventLookup detects "when did I do X" style prompts.
func isEventLookup(lower string) bool {
	return strings.Contains(lower, "when did i") ||
		strings.Contains(lower, "when did we") ||
		strings.Contains(lower, "when was") ||
		strings.Contains(lower, "what day did i")
}

// isRecency detects "latest"/"recent" phrasing.
func isRecency(lower string) bool {
	for _, marker := range []string{"latest", "recent", "recently", "lately"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// hasPeriodPhrase reports whether the prompt asks for a month or year
// summary.
func (p *Planner) hasPeriodPhrase(lower string, words []string) bool {
	_, _, ok := p.detectPeriod(lower, words)
	return ok
}

// detectPeriod resolves month/year phrasing into calendar bounds spanning
// exactly the first and last day of the named period.
func (p *Planner) detectPeriod(lower string, words []string) (*time.Time, *time.Time, bool) {
	now := p.now()

	if strings.Contains(lower, "last month") {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return monthBounds(first.Year(), first.Month())
	}
	if strings.Contains(lower, "this month") || strings.Contains(lower, "current month") {
		return monthBounds(now.Year(), now.Month())
	}
	if strings.Contains(lower, "last year") {
		return yearBounds(now.Year() - 1)
	}
	if strings.Contains(lower, "this year") {
		return yearBounds(now.Year())
	}

	year := findYear(words)

	for i, w := range words {
		month, ok := monthsByName[w]
		if !ok {
			continue
		}
		if w == "may" && !mayIsMonth(words, i) {
			continue
		}
		y := year
		if y == 0 {
			// No explicit year: assume the most recent occurrence.
			y = now.Year()
			if month > now.Month() {
				y--
			}
		}
		return monthBounds(y, month)
	}

	if year != 0 {
		return yearBounds(year)
	}

	return nil, nil, false
}

// mayIsMonth disambiguates the "may" token, which doubles as a modal verb.
// It reads as the month only after a period preposition or next to an
// explicit year.
func mayIsMonth(words []string, i int) bool {
	if i > 0 {
		switch words[i-1] {
		case "in", "of", "during", "for", "since", "last", "this":
			return true
		}
		if findYear([]string{words[i-1]}) != 0 {
			return true
		}
	}
	return i+1 < len(words) && findYear([]string{words[i+1]}) != 0
}

func monthBounds(year int, month time.Month) (*time.Time, *time.Time, bool) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return &start, &end, true
}

func yearBounds(year int) (*time.Time, *time.Time, bool) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &start, &end, true
}

// findYear returns a plausible 4-digit year token, or 0.
func findYear(words []string) int {
	for _, w := range words {
		if len(w) != 4 {
			continue
		}
		year := 0
		ok := true
		for _, r := range w {
			if r < '0' || r > '9' {
				ok = false
				break
			}
			year = year*10 + int(r-'0')
		}
		if ok && year >= 1990 && year <= 2100 {
			return year
		}
	}
	return 0
}

// tokenize lowercases and splits a prompt into word tokens, stripping
// punctuation.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}

// contentWords drops stopwords and month/year tokens.
func contentWords(words []string) []string {
	var out []string
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		if _, ok := monthsByName[w]; ok {
			continue
		}
		if findYear([]string{w}) != 0 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// eventQuery builds a compact phrase for "when did I do X" prompts: the
// action verb expanded with a synonym plus the topic words, at most four
// words total.
func eventQuery(words []string) string {
	content := contentWords(words)
	if len(content) == 0 {
		return strings.Join(goalVocabulary[:1], " ")
	}

	var phrase []string
	for _, w := range content {
		if vars, ok := synonyms[w]; ok {
			phrase = append(phrase, vars[0])
			// One synonym keeps recall up without blowing the word cap.
			if len(phrase) < maxQueryWords {
				phrase = append(phrase, vars[1])
			}
			continue
		}
		phrase = append(phrase, w)
	}
	if len(phrase) > maxQueryWords {
		phrase = phrase[:maxQueryWords]
	}
	return strings.Join(phrase, " ")
}

// recencyQuery prefers the prompt's own topic words and falls back to the
// controlled goal vocabulary.
func recencyQuery(words []string) string {
	content := contentWords(words)
	if len(content) == 0 {
		return goalVocabulary[0]
	}
	if len(content) > maxQueryWords {
		content = content[:maxQueryWords]
	}
	return strings.Join(content, " ")
}

// keywordQuery extracts up to four content words for the permissive default
// directive.
func keywordQuery(words []string) string {
	content := contentWords(words)
	if len(content) > maxQueryWords {
		content = content[:maxQueryWords]
	}
	return strings.Join(content, " ")
}
