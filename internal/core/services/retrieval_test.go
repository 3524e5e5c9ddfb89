package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

func TestRetrieveSemanticDispatch(t *testing.T) {
	store := &mockEntryStore{
		similarityHits: []domain.EntryRecord{entry("a", "hit", "2025-08-01", simPtr(0.9))},
	}
	embedder := &mockEmbedder{}
	svc := NewRetrievalService(store, embedder)

	d := domain.SearchDirective{Mode: domain.ModeSemantic, QueryText: "goals", MatchCount: 10}
	env := svc.Retrieve(context.Background(), d, "token-1")

	require.False(t, env.Failed())
	require.Len(t, env.Results, 1)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, "goals", embedder.lastText)
	assert.Equal(t, 1, store.similarityCalls)
	assert.Zero(t, store.listCalls)
	assert.Equal(t, "token-1", store.lastAuth)
	assert.Equal(t, domain.MetricCosine, store.lastSimilarity.Metric)
}

func TestRetrieveDateOnlyDispatchSortsByDate(t *testing.T) {
	store := &mockEntryStore{
		listHits: []domain.EntryRecord{
			entry("old", "old", "2025-01-01", nil),
			entry("new", "new", "2025-08-01", nil),
		},
	}
	svc := NewRetrievalService(store, nil)

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)
	d := domain.SearchDirective{Mode: domain.ModeDateOnly, MatchCount: 15, StartDate: &start, EndDate: &end}

	env := svc.Retrieve(context.Background(), d, "token")

	require.False(t, env.Failed())
	require.Len(t, env.Results, 2)
	assert.Equal(t, "new", env.Results[0].ID)
	assert.Equal(t, 1, store.listCalls)
	assert.Zero(t, store.similarityCalls)
}

func TestRetrieveByIDsTakesPrecedenceOverQuery(t *testing.T) {
	store := &mockEntryStore{
		fetchHits: []domain.EntryRecord{entry("a", "by id", "2025-08-01", nil)},
	}
	svc := NewRetrievalService(store, &mockEmbedder{})

	d := domain.SearchDirective{
		Mode:       domain.ModeSemantic,
		QueryText:  "should be ignored",
		IDs:        []string{"a"},
		MatchCount: 10,
	}
	env := svc.Retrieve(context.Background(), d, "token")

	require.False(t, env.Failed())
	assert.Equal(t, 1, store.fetchCalls)
	assert.Zero(t, store.similarityCalls, "ids silently win over query_text")
	assert.Equal(t, []string{"a"}, store.lastIDs)
}

func TestRetrieveStoreErrorBecomesErrorEnvelope(t *testing.T) {
	store := &mockEntryStore{similarityErr: errors.New("RPC error 500: internal")}
	svc := NewRetrievalService(store, &mockEmbedder{})

	d := domain.SearchDirective{Mode: domain.ModeSemantic, QueryText: "goals", MatchCount: 10}
	env := svc.Retrieve(context.Background(), d, "token")

	require.True(t, env.Failed())
	assert.Contains(t, env.Err, "RPC error 500")
	assert.Empty(t, env.Results)
}

func TestRetrieveEmbedErrorBecomesErrorEnvelope(t *testing.T) {
	store := &mockEntryStore{}
	embedder := &mockEmbedder{embedErr: errors.New("embed provider down")}
	svc := NewRetrievalService(store, embedder)

	d := domain.SearchDirective{Mode: domain.ModeSemantic, QueryText: "goals", MatchCount: 10}
	env := svc.Retrieve(context.Background(), d, "token")

	require.True(t, env.Failed())
	assert.Contains(t, env.Err, "embed query")
	assert.Zero(t, store.similarityCalls)
}

func TestRetrieveWithoutEmbedderDegrades(t *testing.T) {
	svc := NewRetrievalService(&mockEntryStore{}, nil)

	d := domain.SearchDirective{Mode: domain.ModeSemantic, QueryText: "goals", MatchCount: 10}
	env := svc.Retrieve(context.Background(), d, "token")

	require.True(t, env.Failed())
	assert.Contains(t, env.Err, "embedding service unavailable")
}

func TestRetrieveWithoutStore(t *testing.T) {
	svc := NewRetrievalService(nil, nil)
	env := svc.Retrieve(context.Background(), domain.SearchDirective{Mode: domain.ModeDateOnly}, "token")
	require.True(t, env.Failed())
}

func TestRetrieveDeduplicatesSingleBatch(t *testing.T) {
	store := &mockEntryStore{
		similarityHits: []domain.EntryRecord{
			entry("a", "dup", "2025-08-01", simPtr(0.4)),
			entry("a", "dup", "2025-08-01", simPtr(0.7)),
		},
	}
	svc := NewRetrievalService(store, &mockEmbedder{})

	d := domain.SearchDirective{Mode: domain.ModeSemantic, QueryText: "goals", MatchCount: 10}
	env := svc.Retrieve(context.Background(), d, "token")

	require.False(t, env.Failed())
	require.Len(t, env.Results, 1)
	assert.InDelta(t, 0.7, *env.Results[0].Similarity, 1e-9)
}

func TestRetrieveEnvelopeWireFormat(t *testing.T) {
	store := &mockEntryStore{listHits: nil}
	svc := NewRetrievalService(store, nil)

	env := svc.Retrieve(context.Background(), domain.SearchDirective{Mode: domain.ModeDateOnly, MatchCount: 5}, "token")

	require.False(t, env.Failed())
	assert.True(t, env.Empty())
	assert.NotNil(t, env.Results, "success envelope always carries a results array")
}
