package services

import (
	"context"
	"time"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
)

// --- Mock implementations of the driven ports ---

// mockEntryStore implements driven.EntryStore for testing.
type mockEntryStore struct {
	similarityHits []domain.EntryRecord
	similarityErr  error
	listHits       []domain.EntryRecord
	listErr        error
	fetchHits      []domain.EntryRecord
	fetchErr       error

	lastSimilarity *driven.SimilarityQuery
	lastListCount  int
	lastListStart  *time.Time
	lastListEnd    *time.Time
	lastIDs        []string
	lastAuth       string

	similarityCalls int
	listCalls       int
	fetchCalls      int
}

func (m *mockEntryStore) SimilaritySearch(_ context.Context, q driven.SimilarityQuery, auth string) ([]domain.EntryRecord, error) {
	m.similarityCalls++
	m.lastSimilarity = &q
	m.lastAuth = auth
	if m.similarityErr != nil {
		return nil, m.similarityErr
	}
	hits := m.similarityHits
	if q.MatchCount < len(hits) {
		hits = hits[:q.MatchCount]
	}
	return hits, nil
}

func (m *mockEntryStore) DateRangeList(_ context.Context, matchCount int, start, end *time.Time, auth string) ([]domain.EntryRecord, error) {
	m.listCalls++
	m.lastListCount = matchCount
	m.lastListStart = start
	m.lastListEnd = end
	m.lastAuth = auth
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listHits, nil
}

func (m *mockEntryStore) FetchByIDs(_ context.Context, ids []string, auth string) ([]domain.EntryRecord, error) {
	m.fetchCalls++
	m.lastIDs = ids
	m.lastAuth = auth
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.fetchHits, nil
}

func (m *mockEntryStore) Close() error { return nil }

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
	calls     int
	lastText  string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	m.lastText = text
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedding != nil {
		return m.embedding, nil
	}
	return []float32{0.6, 0.8}, nil
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response string
	err      error
	calls    int
	lastMsgs []driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.calls++
	m.lastMsgs = messages
	return m.response, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// --- Test data helpers ---

func simPtr(f float64) *float64 { return &f }

func entry(id, title, date string, sim *float64) domain.EntryRecord {
	return domain.EntryRecord{ID: id, Title: title, Date: date, Similarity: sim}
}
