// Package openai embeds chunk text with the OpenAI embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/infinitegrit26/ACD2/internal/adapters/driven/ratelimit"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = domain.DefaultEmbeddingModel
	DefaultTimeout = 60 * time.Second

	// maxInputs is the endpoint's per-request input limit.
	maxInputs = 2048
	// maxRequestChars keeps a request well under the endpoint's token cap,
	// assuming roughly four characters per token.
	maxRequestChars = 800_000
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	APIKey string

	// BaseURL may point at Azure OpenAI or another compatible API.
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* vectors. Zero keeps the
	// model's native size.
	Dimensions int

	// RateLimit paces requests (default: ratelimit.OpenAI).
	RateLimit *ratelimit.Config
}

// EmbeddingService is an OpenAI embeddings client.
type EmbeddingService struct {
	client     *http.Client
	limiter    *ratelimit.Limiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	shortened  bool
}

type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbeddingService validates cfg and fills in defaults. Unknown models
// are assumed to produce 1536-dimensional vectors.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrInvalidConfig)
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
	limits := ratelimit.OpenAI
	if cfg.RateLimit != nil {
		limits = *cfg.RateLimit
	}

	dims := cfg.Dimensions
	if dims == 0 {
		if native, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			dims = native
		} else {
			dims = 1536
		}
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.New(limits),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dims,
		shortened:  cfg.Dimensions > 0,
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in as few requests as the endpoint limits allow.
// The result is index-aligned with texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, group := range splitRequests(texts, maxInputs, maxRequestChars) {
		vecs, err := s.embed(ctx, group)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// splitRequests groups consecutive texts so that no group exceeds either
// limit. A single oversized text still gets a group of its own.
func splitRequests(texts []string, maxCount, maxChars int) [][]string {
	var groups [][]string
	start, chars := 0, 0
	for i, t := range texts {
		if i > start && (i-start == maxCount || chars+len(t) > maxChars) {
			groups = append(groups, texts[start:i])
			start, chars = i, 0
		}
		chars += len(t)
	}
	return append(groups, texts[start:])
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: s.model, Input: texts, EncodingFormat: "float"}
	if s.shortened {
		req.Dimensions = s.dimensions
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := s.do(ctx, http.MethodPost, "/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("openai: no embedding returned for input %d", i)
		}
	}
	return vecs, nil
}

// do sends an authenticated request and returns the body of a 2xx reply.
func (s *EmbeddingService) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("openai: %w: send request: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()
	s.limiter.Observe(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: %w: read response: %w", domain.ErrTransient, err)
	}
	if err := ratelimit.StatusError("openai", resp, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodGet, "/models", nil)
	return err
}

func (s *EmbeddingService) Close() error {
	return nil
}
