package driven

import (
	"context"
	"time"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// SimilarityQuery parameterizes a vector similarity search.
type SimilarityQuery struct {
	// Embedding is the normalized query vector.
	Embedding []float32

	// MatchCount caps the number of hits (already clamped to [1,50]).
	MatchCount int

	// Metric selects the distance operator used for ranking.
	Metric domain.Metric

	// StartDate and EndDate bound results by entry date (inclusive).
	StartDate *time.Time
	EndDate   *time.Time

	// MinSimilarity filters out weak matches when set.
	MinSimilarity *float64
}

// EntryStore executes retrieval against the journal store. All operations
// are idempotent and side-effect-free on the store.
//
// Every call carries the caller's bearer credential; row-level authorization
// is delegated entirely to the store. Implementations never filter by user
// locally and must strip internal-only fields (raw embedding vectors) from
// returned records.
type EntryStore interface {
	// SimilaritySearch ranks entries against the query embedding.
	SimilaritySearch(ctx context.Context, q SimilarityQuery, auth string) ([]domain.EntryRecord, error)

	// DateRangeList returns entries within the bounds, newest first, with
	// nil similarity on every record.
	DateRangeList(ctx context.Context, matchCount int, start, end *time.Time, auth string) ([]domain.EntryRecord, error)

	// FetchByIDs returns the named entries in the requested order, with
	// Content populated when the store has a content-bearing field.
	FetchByIDs(ctx context.Context, ids []string, auth string) ([]domain.EntryRecord, error)

	// Close releases resources.
	Close() error
}
