package domain

import (
	"strings"
	"time"
)

// SearchMode selects the retrieval strategy for a directive.
type SearchMode string

const (
	// ModeSemantic embeds the query text and runs a similarity search.
	ModeSemantic SearchMode = "semantic"

	// ModeDateOnly lists entries within the date bounds, newest first.
	ModeDateOnly SearchMode = "date_only"

	// ModeByID fetches specific entries by their identifiers.
	ModeByID SearchMode = "by_id"
)

// Metric identifies the vector similarity metric used for ranking.
type Metric string

const (
	MetricCosine       Metric = "cosine"
	MetricInnerProduct Metric = "ip"
	MetricL2           Metric = "l2"
)

// Match count bounds enforced on every directive.
const (
	MinMatchCount     = 1
	MaxMatchCount     = 50
	DefaultMatchCount = 10

	// DateOnlyMatchCount is the default for period summaries, which tend to
	// need more entries than a targeted semantic lookup.
	DateOnlyMatchCount = 15
)

// SearchDirective is the resolved retrieval plan produced by the planner.
// Exactly one retrieval dispatch is made per directive: a non-empty IDs list
// takes precedence over Mode; QueryText is meaningful only for ModeSemantic.
type SearchDirective struct {
	// Mode is the retrieval strategy.
	Mode SearchMode

	// QueryText is the text to embed for similarity search.
	// Empty for ModeDateOnly and ModeByID.
	QueryText string

	// IDs requests a direct fetch of specific entries. When non-empty it
	// governs dispatch regardless of Mode.
	IDs []string

	// MatchCount is the maximum number of results, clamped to [1,50].
	MatchCount int

	// Metric selects the similarity metric for ModeSemantic.
	Metric Metric

	// StartDate and EndDate bound retrieval by entry date (inclusive).
	StartDate *time.Time
	EndDate   *time.Time

	// MinSimilarity filters out weak matches when set.
	MinSimilarity *float64
}

// ClampMatchCount forces n into [1,50]. Out-of-range values are silently
// capped, not rejected.
func ClampMatchCount(n int) int {
	if n < MinMatchCount {
		return MinMatchCount
	}
	if n > MaxMatchCount {
		return MaxMatchCount
	}
	return n
}

// CollapseQueryText trims the query and collapses the literal strings a
// language model tends to emit for "no query" ("None", "null") to empty.
func CollapseQueryText(q string) string {
	q = strings.TrimSpace(q)
	switch strings.ToLower(q) {
	case "", "none", "null", "nil":
		return ""
	}
	return q
}

// Normalize repairs a directive in place: clamps the match count, collapses
// blank query text, and downgrades a semantic directive without usable query
// text to a date-only listing.
func (d *SearchDirective) Normalize() {
	d.MatchCount = ClampMatchCount(d.MatchCount)
	d.QueryText = CollapseQueryText(d.QueryText)

	if d.Metric == "" {
		d.Metric = MetricCosine
	}

	if d.Mode == ModeSemantic && d.QueryText == "" && len(d.IDs) == 0 {
		d.Mode = ModeDateOnly
	}
	if d.Mode != ModeSemantic {
		d.QueryText = ""
	}
}

// DateString formats a directive bound as an ISO calendar date.
// Returns "" for a nil bound.
func DateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
