// Package openai calls an OpenAI-compatible /embeddings endpoint. Each call is
// a single attempt; retries and throttling live in usecase/embedding.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/metrics"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string // empty means api.openai.com
	Model   string
	// Dimensions is requested from the API and enforced on the reply when positive.
	Dimensions int
	User       string
	Provider   string // metrics label
	// Timeout bounds one HTTP call; zero leaves it to the caller's context.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Embedder is a domain.Embedder and domain.HealthChecker over go-openai.
type Embedder struct {
	api      *openai.Client
	req      openai.EmbeddingRequest
	dims     int
	provider string
	logger   *zap.Logger
}

// NewEmbedder builds a client from cfg.
func NewEmbedder(cfg *Config) *Embedder {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	req := openai.EmbeddingRequest{
		Model:          openai.EmbeddingModel(cfg.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           cfg.User,
	}
	if cfg.Dimensions > 0 {
		req.Dimensions = cfg.Dimensions
	}

	return &Embedder{
		api:      openai.NewClientWithConfig(apiCfg),
		req:      req,
		dims:     cfg.Dimensions,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Embed requests one vector for text. Every failure wraps
// domain.ErrEmbeddingProviderError.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := e.req
	req.Input = []string{text}
	model := string(req.Model)

	start := time.Now()
	resp, err := e.api.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)

	var vec []float32
	failure := ""
	switch {
	case err != nil:
		failure = metrics.FailureAPI
		err = providerError(err)
		e.logger.Debug("embedding call failed", zap.Duration("duration", elapsed), zap.Error(err))
	case len(resp.Data) == 0:
		failure = metrics.FailureEmptyResponse
		err = fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	default:
		vec = resp.Data[0].Embedding
		if e.dims > 0 && len(vec) != e.dims {
			failure = metrics.FailureDimensionMismatch
			err = fmt.Errorf("embedding has %d dimensions, want %d: %w",
				len(vec), e.dims, domain.ErrEmbeddingProviderError)
		}
	}
	metrics.ObserveProviderCall(e.provider, model, failure, elapsed)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	metrics.AddProviderTokens(e.provider, model, resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// providerError keeps the HTTP status and provider message, if any, and
// wraps domain.ErrEmbeddingProviderError. Context errors stay in the chain.
func providerError(err error) error {
	status, msg := describe(err)
	switch {
	case status != 0:
		return fmt.Errorf("embedding API error %d: %s: %w", status, msg, domain.ErrEmbeddingProviderError)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("embedding request: %w: %w", domain.ErrEmbeddingProviderError, err)
	default:
		return fmt.Errorf("embedding request failed: %w", domain.ErrEmbeddingProviderError)
	}
}

// describe extracts the status code and message from go-openai errors.
// Providers that answer with {"detail": ...} surface as RequestError.
func describe(err error) (int, string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if d := extractDetail(reqErr.Body); d != "" {
			return reqErr.HTTPStatusCode, d
		}
		return reqErr.HTTPStatusCode, string(reqErr.Body)
	}
	return 0, ""
}

func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
