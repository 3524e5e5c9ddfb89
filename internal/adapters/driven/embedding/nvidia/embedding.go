// Package nvidia provides an embedding service adapter using NVIDIA NIM
// retrieval endpoints (OpenAI-compatible with an input_type extension).
package nvidia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joelmbaka/introspect/internal/adapters/driven/embedding"
	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://integrate.api.nvidia.com/v1"
	DefaultModel   = "nvidia/nv-embedqa-e5-v5"
	DefaultTimeout = 30 * time.Second

	// InputTypeQuery marks search-side embedding. Retrieval models embed
	// queries and passages asymmetrically.
	InputTypeQuery = "query"

	maxErrorBodyLen = 300
)

// Model dimensions for NVIDIA retrieval embedding models.
var modelDimensions = map[string]int{
	"nvidia/nv-embedqa-e5-v5":         1024,
	"nvidia/nv-embedqa-mistral-7b-v2": 4096,
}

// Config holds configuration for the NVIDIA embedding service.
type Config struct {
	// APIKey is the NVIDIA API key (required).
	APIKey string

	// BaseURL is the API base URL. Overridable for self-hosted NIMs.
	BaseURL string

	// Model is the embedding model to use (default: nv-embedqa-e5-v5).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using a NIM endpoint.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embeddingRequest is the NIM request format. InputType is the NVIDIA
// extension to the OpenAI embeddings schema.
type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	InputType      string   `json:"input_type"`
	EncodingFormat string   `json:"encoding_format"`
}

// embeddingResponse is the OpenAI-compatible response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new NVIDIA embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: nvidia: API key is required", domain.ErrConfiguration)
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

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 1024
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a normalized query embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:          s.model,
		Input:          []string{text},
		InputType:      InputTypeQuery,
		EncodingFormat: "float",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: nvidia: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("%w: nvidia: decode response: %v", domain.ErrUpstream, err)
	}

	if embedResp.Error != nil {
		return nil, fmt.Errorf("%w: nvidia error (status %d): %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(embedResp.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nvidia error (status %d): %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(string(body)))
	}
	if len(embedResp.Data) == 0 || len(embedResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: nvidia: no embedding returned", domain.ErrUpstream)
	}

	vec := make([]float32, len(embedResp.Data[0].Embedding))
	for i, v := range embedResp.Data[0].Embedding {
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

// Ping validates the service is reachable by checking the /models endpoint.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("nvidia: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: nvidia: ping failed: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: nvidia: API returned status %d: %s",
			domain.ErrUpstream, resp.StatusCode, truncateBody(string(body)))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func truncateBody(s string) string {
	if len(s) <= maxErrorBodyLen {
		return s
	}
	return s[:maxErrorBodyLen] + "..."
}
