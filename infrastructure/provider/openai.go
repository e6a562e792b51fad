package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/embedware/vectord/domain/embedding"
)

// Remote engine retry defaults.
const (
	defaultRemoteMaxRetries    = 5
	defaultRemoteInitialDelay  = 2 * time.Second
	defaultRemoteBackoffFactor = 2.0
)

// errCountMismatch indicates the API returned fewer vectors than texts.
// Retryable: transient upstream issues (rate limiting behind a 200) can
// produce partial responses.
var errCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamFailure indicates an HTTP 200 whose body carried an error
// instead of embedding data (routing providers do this when every
// upstream is down). Not retryable.
var errUpstreamFailure = errors.New("upstream provider failure")

// OpenAIConfig holds configuration for the remote engine.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// OpenAILoader loads remote engines backed by an OpenAI-compatible
// embeddings API. One HTTP client is shared across engines.
type OpenAILoader struct {
	client        *openai.Client
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewOpenAILoader creates an OpenAILoader from configuration.
func NewOpenAILoader(cfg OpenAIConfig) *OpenAILoader {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultRemoteMaxRetries
	}
	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = defaultRemoteInitialDelay
	}
	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = defaultRemoteBackoffFactor
	}

	return &OpenAILoader{
		client:        openai.NewClientWithConfig(clientCfg),
		maxRetries:    maxRetries,
		initialDelay:  initialDelay,
		backoffFactor: backoffFactor,
	}
}

// Load validates the model with a probe embedding call and returns an
// engine bound to it. The probe also fixes the reported dimension.
func (l *OpenAILoader) Load(ctx context.Context, modelID string) (embedding.Engine, error) {
	eng := &OpenAIEngine{
		client:        l.client,
		modelID:       modelID,
		maxRetries:    l.maxRetries,
		initialDelay:  l.initialDelay,
		backoffFactor: l.backoffFactor,
	}

	probe, err := eng.embed(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, embedding.NewLoadError(modelID, "probe embedding request failed", err)
	}
	if len(probe) == 0 || len(probe[0]) == 0 {
		return nil, embedding.NewLoadError(modelID, "probe returned no vector", nil)
	}

	eng.dim = len(probe[0])
	return eng, nil
}

// OpenAIEngine encodes text through an OpenAI-compatible embeddings API.
// Truncation happens server-side at the model's maximum input length;
// over-long inputs never fail the batch here either.
type OpenAIEngine struct {
	client        *openai.Client
	modelID       string
	dim           int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// ModelID returns the identifier the engine is bound to.
func (e *OpenAIEngine) ModelID() string { return e.modelID }

// Dim returns the probed output dimension.
func (e *OpenAIEngine) Dim() int { return e.dim }

// Encode embeds all texts in a single API call, retrying transient
// failures with exponential backoff.
func (e *OpenAIEngine) Encode(ctx context.Context, texts []string, opts embedding.EncodeOptions) ([][]float64, error) {
	vectors, err := e.embed(ctx, texts)
	if err != nil {
		return nil, embedding.NewEncodeError(e.modelID, err)
	}

	if opts.Normalize {
		embedding.NormalizeAll(vectors)
	}
	return vectors, nil
}

func (e *OpenAIEngine) embed(ctx context.Context, texts []string) ([][]float64, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.modelID),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := e.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = e.client.CreateEmbeddings(ctx, req)
		if callErr != nil {
			return callErr
		}
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf("%w: HTTP 200 with no data, no model and zero usage", errUpstreamFailure)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// withRetry executes fn with exponential backoff.
func (e *OpenAIEngine) withRetry(ctx context.Context, fn func() error) error {
	delay := e.initialDelay
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * e.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, errCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Network-level failures are retryable.
		return true
	}

	return false
}

var _ embedding.Engine = (*OpenAIEngine)(nil)
var _ Loader = (*OpenAILoader)(nil)
var _ Loader = (*LocalLoader)(nil)
