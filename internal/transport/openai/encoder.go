package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/metrics"
)

// DefaultMaxBatchSize is the largest number of inputs sent in one API request.
const DefaultMaxBatchSize = 256

// Encoder is a dense-embedding retrieval encoder using an OpenAI-compatible API.
// Embeddings are L2-normalised so inner products are cosine similarities.
type Encoder struct {
	client       *openai.Client
	model        openai.EmbeddingModel
	dimensions   int
	user         string
	provider     string
	maxBatchSize int
	logger       *zap.Logger
}

var (
	_ domain.TextEncoder      = (*Encoder)(nil)
	_ domain.BatchTextEncoder = (*Encoder)(nil)
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Dimensions   int
	User         string
	Provider     string
	MaxBatchSize int
	Logger       *zap.Logger
}

// NewEncoder creates an OpenAI-compatible embedding encoder.
func NewEncoder(cfg *Config) *Encoder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	batch := cfg.MaxBatchSize
	if batch <= 0 {
		batch = DefaultMaxBatchSize
	}

	return &Encoder{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        openai.EmbeddingModel(cfg.Model),
		dimensions:   cfg.Dimensions,
		user:         cfg.User,
		provider:     cfg.Provider,
		maxBatchSize: batch,
		logger:       cfg.Logger,
	}
}

// Identity implements domain.TextEncoder.
func (e *Encoder) Identity() string {
	return "openai:" + string(e.model) + ":" + strconv.Itoa(e.dimensions)
}

// Width implements domain.TextEncoder. Zero means the provider default.
func (e *Encoder) Width() int { return e.dimensions }

// Encode implements domain.TextEncoder. Blank text encodes to the zero vector
// without calling the provider.
func (e *Encoder) Encode(ctx context.Context, text string) (domain.SparseVector, error) {
	vecs, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return domain.SparseVector{}, err
	}
	return vecs[0], nil
}

// EncodeBatch implements domain.BatchTextEncoder, chunking requests by the max batch size.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([]domain.SparseVector, error) {
	out := make([]domain.SparseVector, len(texts))

	var (
		inputs []string
		slots  []int
	)
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		inputs = append(inputs, t)
		slots = append(slots, i)
	}

	for offset := 0; offset < len(inputs); offset += e.maxBatchSize {
		end := min(offset+e.maxBatchSize, len(inputs))
		dense, err := e.embed(ctx, inputs[offset:end])
		if err != nil {
			e.logger.Error("Embedding request failed",
				zap.String("provider", e.provider),
				zap.String("model", string(e.model)),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", end-offset),
				zap.Error(err),
			)
			return nil, err
		}
		for j, vec := range dense {
			out[slots[offset+j]] = domain.DenseToSparse(vec).Normalize()
		}
	}
	return out, nil
}

// embed sends one request and returns embeddings in input order.
func (e *Encoder) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          inputs,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	model := string(e.model)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, "api_error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(inputs) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, "short_response").Inc()
		return nil, fmt.Errorf("got %d embeddings for %d inputs: %w",
			len(resp.Data), len(inputs), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	data := slices.Clone(resp.Data)
	slices.SortFunc(data, func(a, b openai.Embedding) int { return a.Index - b.Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Encoder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
