// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/embedware/vectord/domain/embedding"
	"github.com/embedware/vectord/internal/config"
	"github.com/embedware/vectord/internal/tracing"
)

// Resolver maps a requested model ID to a ready engine. An empty model ID
// resolves to the configured default.
type Resolver interface {
	Resolve(ctx context.Context, modelID string) (embedding.Engine, error)
	DefaultModel() string
}

// Embedding orchestrates validation, model resolution and encoding for a
// single embeddings request.
type Embedding struct {
	limits           embedding.Limits
	resolver         Resolver
	normalizeDefault bool
	truncateDefault  bool
	timeout          time.Duration
	tracer           *tracing.Tracer
	logger           *slog.Logger
}

// NewEmbedding creates a new Embedding service.
func NewEmbedding(cfg config.LimitsConfig, resolver Resolver, tracer *tracing.Tracer, logger *slog.Logger) *Embedding {
	if tracer == nil {
		tracer = tracing.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedding{
		limits:           embedding.NewLimits(cfg.BatchMaxTexts(), cfg.MaxCharsPerText(), cfg.AllowModelOverride()),
		resolver:         resolver,
		normalizeDefault: cfg.NormalizeDefault(),
		truncateDefault:  cfg.TruncateDefault(),
		timeout:          cfg.RequestTimeout(),
		tracer:           tracer,
		logger:           logger,
	}
}

// Limits returns the validation limits in effect.
func (s *Embedding) Limits() embedding.Limits {
	return s.limits
}

// DefaultModel returns the model served when a request names none.
func (s *Embedding) DefaultModel() string {
	return s.resolver.DefaultModel()
}

// Embed validates the request, resolves the target engine and encodes the
// batch. Validation failures are reported before any model is touched.
func (s *Embedding) Embed(ctx context.Context, req embedding.Request) (embedding.Response, error) {
	if err := s.limits.Validate(req); err != nil {
		return embedding.Response{}, err
	}

	engine, err := s.resolver.Resolve(ctx, req.Model())
	if err != nil {
		s.logger.ErrorContext(ctx, "model resolution failed", "model", req.Model(), "error", err)
		return embedding.Response{}, err
	}

	opts := embedding.EncodeOptions{
		Normalize: req.Normalize(s.normalizeDefault),
		Truncate:  req.Truncate(s.truncateDefault),
	}
	texts := req.Texts()

	ctx, span := s.tracer.Start(ctx, "embeddings.encode",
		attribute.String(tracing.AttrModelName, engine.ModelID()),
		attribute.Int(tracing.AttrBatchSize, len(texts)),
		attribute.Int(tracing.AttrTotalChars, req.Chars()),
		attribute.Bool(tracing.AttrNormalize, opts.Normalize),
		attribute.Bool(tracing.AttrTruncate, opts.Truncate),
	)
	defer span.End()

	start := time.Now()
	vectors, err := s.encodeWithDeadline(ctx, engine, texts, opts)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return embedding.Response{}, err
	}

	span.SetAttributes(
		attribute.Int64(tracing.AttrElapsedMS, elapsed.Milliseconds()),
		attribute.Int(tracing.AttrDimension, engine.Dim()),
	)
	s.logger.DebugContext(ctx, "batch encoded",
		"model", engine.ModelID(),
		"texts", len(texts),
		"chars", req.Chars(),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	usage := embedding.NewUsage(len(texts), req.Chars(), elapsed.Milliseconds())
	return embedding.NewResponse(engine.ModelID(), engine.Dim(), vectors, usage), nil
}

type encodeResult struct {
	vectors [][]float64
	err     error
}

// encodeWithDeadline runs the engine in a goroutine and gives up after the
// configured timeout. The deadline is advisory: a computation that overruns
// it keeps running until the engine returns, and its result is discarded.
func (s *Embedding) encodeWithDeadline(ctx context.Context, engine embedding.Engine, texts []string, opts embedding.EncodeOptions) ([][]float64, error) {
	done := make(chan encodeResult, 1)
	go func() {
		vectors, err := engine.Encode(ctx, texts, opts)
		done <- encodeResult{vectors: vectors, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.vectors, res.err
	case <-timer.C:
		s.logger.WarnContext(ctx, "encoding exceeded deadline",
			"model", engine.ModelID(),
			"texts", len(texts),
			"timeout", s.timeout,
		)
		return nil, embedding.NewTimeoutError(engine.ModelID(), s.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
