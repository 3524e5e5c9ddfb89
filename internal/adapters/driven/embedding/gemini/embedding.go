// Package gemini provides an embedding service adapter using the Google
// Generative Language embedContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/joelmbaka/introspect/internal/adapters/driven/embedding"
	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "text-embedding-004"
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerMinute matches the free-tier quota for the
	// embedding models; the limiter smooths bursts below it.
	DefaultRequestsPerMinute = 100

	maxErrorBodyLen = 300
)

// Model dimensions for Gemini embedding models.
var modelDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Generative Language API key (required).
	APIKey string

	// BaseURL is the API base URL. Overridable for proxies and tests.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerMinute caps the outbound request rate (default: 100).
	RequestsPerMinute int
}

// EmbeddingService generates embeddings using the Gemini embedContent API.
type EmbeddingService struct {
	client     *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embedContentRequest is the Gemini API request format.
type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// embedContentResponse is the Gemini API response format.
type embedContentResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 768
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), 1),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a normalized vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gemini: rate limit wait: %w", err)
	}

	reqBody := embedContentRequest{
		Model:   "models/" + s.model,
		Content: content{Parts: []part{{Text: text}}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.endpoint(":embedContent"),
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var embedResp embedContentResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("%w: gemini: decode response: %v", domain.ErrUpstream, err)
	}

	if embedResp.Error != nil {
		return nil, fmt.Errorf("%w: gemini error (status %d): %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(embedResp.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gemini error (status %d): %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(string(body)))
	}
	if len(embedResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: gemini: no embedding returned", domain.ErrUpstream)
	}

	vec := make([]float32, len(embedResp.Embedding.Values))
	for i, v := range embedResp.Embedding.Values {
		vec[i] = float32(v)
	}
	return embedding.L2Normalize(vec), nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model's metadata. No inference
// tokens are spent.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(""), http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: gemini: ping failed: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: gemini: API returned status %d: %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(string(body)))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// endpoint builds the model URL with the key as a query parameter, the way
// the Generative Language API authenticates.
func (s *EmbeddingService) endpoint(action string) string {
	return s.baseURL + "/models/" + s.model + action + "?key=" + url.QueryEscape(s.apiKey)
}

// truncateBody bounds upstream error text before it enters an error chain.
func truncateBody(s string) string {
	if len(s) <= maxErrorBodyLen {
		return s
	}
	return s[:maxErrorBodyLen] + "..."
}
