package services

import (
	"context"
	"fmt"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
	"github.com/joelmbaka/introspect/internal/logger"
)

// RetrievalService executes a search directive against the entry store and
// wraps the result in the stable envelope contract. Adapter failures never
// escape as errors - they become the error envelope variant.
type RetrievalService struct {
	store    driven.EntryStore
	embedder driven.EmbeddingService
}

// NewRetrievalService creates the retrieval stage. The embedder may be nil;
// semantic directives then degrade to an error envelope rather than a crash.
func NewRetrievalService(store driven.EntryStore, embedder driven.EmbeddingService) *RetrievalService {
	return &RetrievalService{store: store, embedder: embedder}
}

// Retrieve dispatches exactly one store operation chosen by the directive.
// A non-empty IDs list takes precedence over the mode.
func (s *RetrievalService) Retrieve(ctx context.Context, d domain.SearchDirective, auth string) domain.RetrievalEnvelope {
	if s.store == nil {
		return domain.ErrorEnvelope(domain.ErrStoreUnavailable.Error())
	}

	d.Normalize()
	logger.Debug("Retrieve: mode=%s ids=%d count=%d", d.Mode, len(d.IDs), d.MatchCount)

	var (
		records []domain.EntryRecord
		err     error
	)

	switch {
	case len(d.IDs) > 0:
		records, err = s.store.FetchByIDs(ctx, d.IDs, auth)

	case d.Mode == domain.ModeSemantic:
		records, err = s.semanticSearch(ctx, d, auth)

	default: // date-only listing
		records, err = s.store.DateRangeList(ctx, d.MatchCount, d.StartDate, d.EndDate, auth)
	}

	if err != nil {
		logger.Warn("Retrieve failed: %v", err)
		return domain.ErrorEnvelope(err.Error())
	}

	records = MergeBatches(records)
	if d.Mode == domain.ModeDateOnly && len(d.IDs) == 0 {
		SortByDateDesc(records)
	}

	logger.Debug("Retrieve: %d records", len(records))
	return domain.OkEnvelope(records)
}

// semanticSearch embeds the query text and runs the similarity RPC.
func (s *RetrievalService) semanticSearch(ctx context.Context, d domain.SearchDirective, auth string) ([]domain.EntryRecord, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, d.QueryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	q := driven.SimilarityQuery{
		Embedding:     embedding,
		MatchCount:    d.MatchCount,
		Metric:        d.Metric,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		MinSimilarity: d.MinSimilarity,
	}
	records, err := s.store.SimilaritySearch(ctx, q, auth)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return records, nil
}
