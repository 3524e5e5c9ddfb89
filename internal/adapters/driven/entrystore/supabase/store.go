// Package supabase provides an entry store adapter backed by a Supabase
// project: similarity search through pgvector RPC functions and listing
// through the PostgREST table endpoint. Row-level security scopes every
// query to the caller's bearer token; no user filtering happens here.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
	"github.com/joelmbaka/introspect/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.EntryStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultTable   = "journal_entries"
	DefaultTimeout = 15 * time.Second

	maxErrorBodyLen = 300
)

// RPC function names per distance metric. The cosine function is the
// canonical one; the suffixed variants rank by inner product and L2.
var rpcByMetric = map[domain.Metric]string{
	domain.MetricCosine:       "match_journal_entries",
	domain.MetricInnerProduct: "match_journal_entries_ip",
	domain.MetricL2:           "match_journal_entries_l2",
}

// contentFields are checked in order when hydrating entry content; schemas
// in the wild disagree on the column name.
var contentFields = []string{"content", "text", "body", "entry_text"}

// Config holds configuration for the Supabase entry store.
type Config struct {
	// ProjectURL is the Supabase project base URL (required).
	ProjectURL string

	// AnonKey is the project's anon API key, sent as the apikey header
	// (required). The per-request bearer token authorizes the actual rows.
	AnonKey string

	// Table is the journal entries table name (default: journal_entries).
	Table string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Store executes retrieval against Supabase.
type Store struct {
	client  *http.Client
	baseURL string
	anonKey string
	table   string
}

// NewStore creates a new Supabase entry store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("%w: supabase: project URL is required", domain.ErrConfiguration)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("%w: supabase: anon key is required", domain.ErrConfiguration)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.ProjectURL, "/"),
		anonKey: cfg.AnonKey,
		table:   cfg.Table,
	}, nil
}

// rpcRequest is the payload for the match_journal_entries functions.
type rpcRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchCount     int       `json:"match_count"`
	StartDate      *string   `json:"start_date,omitempty"`
	EndDate        *string   `json:"end_date,omitempty"`
	MinSimilarity  *float64  `json:"min_similarity,omitempty"`
}

// SimilaritySearch ranks entries against the query embedding using the RPC
// function matching the requested metric.
func (s *Store) SimilaritySearch(ctx context.Context, q driven.SimilarityQuery, auth string) ([]domain.EntryRecord, error) {
	fn, ok := rpcByMetric[q.Metric]
	if !ok {
		fn = rpcByMetric[domain.MetricCosine]
	}

	payload := rpcRequest{
		QueryEmbedding: q.Embedding,
		MatchCount:     q.MatchCount,
		MinSimilarity:  q.MinSimilarity,
	}
	if q.StartDate != nil {
		d := domain.DateString(q.StartDate)
		payload.StartDate = &d
	}
	if q.EndDate != nil {
		d := domain.DateString(q.EndDate)
		payload.EndDate = &d
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	logger.Debug("Supabase RPC %s: count=%d", fn, q.MatchCount)
	body, err := s.do(ctx, http.MethodPost, "/rest/v1/rpc/"+fn, jsonBody, auth)
	if err != nil {
		return nil, err
	}
	return decodeRows(body)
}

// DateRangeList returns entries within the bounds, newest first.
func (s *Store) DateRangeList(ctx context.Context, matchCount int, start, end *time.Time, auth string) ([]domain.EntryRecord, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "date.desc")
	params.Set("limit", fmt.Sprintf("%d", matchCount))
	if start != nil {
		params.Add("date", "gte."+domain.DateString(start))
	}
	if end != nil {
		params.Add("date", "lte."+domain.DateString(end))
	}

	body, err := s.do(ctx, http.MethodGet, "/rest/v1/"+s.table+"?"+params.Encode(), nil, auth)
	if err != nil {
		return nil, err
	}
	return decodeRows(body)
}

// FetchByIDs returns the named entries in the requested order.
func (s *Store) FetchByIDs(ctx context.Context, ids []string, auth string) ([]domain.EntryRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("id", "in.("+strings.Join(ids, ",")+")")

	body, err := s.do(ctx, http.MethodGet, "/rest/v1/"+s.table+"?"+params.Encode(), nil, auth)
	if err != nil {
		return nil, err
	}
	records, err := decodeRows(body)
	if err != nil {
		return nil, err
	}

	// PostgREST returns in() matches in storage order; restore request order.
	byID := make(map[string]domain.EntryRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	ordered := make([]domain.EntryRecord, 0, len(records))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// do executes one PostgREST request with both the project key and the
// caller's bearer token attached.
func (s *Store) do(ctx context.Context, method, path string, body []byte, auth string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: supabase: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: supabase error (status %d): %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(string(respBody)))
	}
	return respBody, nil
}

// decodeRows converts PostgREST rows into entry records. Rows are decoded
// generically so content can be hydrated from whichever column the schema
// uses, and so the raw embedding vector is dropped rather than forwarded.
func decodeRows(body []byte) ([]domain.EntryRecord, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: supabase: decode rows: %v", domain.ErrUpstream, err)
	}

	records := make([]domain.EntryRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.EntryRecord{
			ID:    stringField(row, "id"),
			Title: stringField(row, "title"),
			Date:  normalizeDate(stringField(row, "date")),
		}
		if v := stringField(row, "client_id"); v != "" {
			rec.ClientID = &v
		}
		if v, ok := row["similarity"].(float64); ok {
			rec.Similarity = &v
		}
		for _, field := range contentFields {
			if v := stringField(row, field); v != "" {
				rec.Content = v
				break
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringField(row map[string]any, key string) string {
	v, _ := row[key].(string)
	return v
}

// normalizeDate trims timestamps down to the date component.
func normalizeDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func truncateBody(s string) string {
	if len(s) <= maxErrorBodyLen {
		return s
	}
	return s[:maxErrorBodyLen] + "..."
}
