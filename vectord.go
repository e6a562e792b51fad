// Package vectord provides a library for batch text embedding inference.
//
// Vectord encodes batches of texts into fixed-dimension vectors using a
// local CPU ONNX model or an OpenAI-compatible API, enforcing per-request
// validation limits and reporting usage metadata alongside each result.
//
// Basic usage:
//
//	client, err := vectord.New(
//	    vectord.WithModelDir("/opt/models"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.LoadDefault(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Embeddings.Embed(ctx, embedding.NewRequest(
//	    []string{"Hello, world!", "How are you?"},
//	))
package vectord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/embedware/vectord/application/service"
	"github.com/embedware/vectord/domain/health"
	"github.com/embedware/vectord/infrastructure/provider"
	"github.com/embedware/vectord/internal/config"
	"github.com/embedware/vectord/internal/tracing"
)

// ErrClientClosed is returned by operations on a closed Client.
var ErrClientClosed = errors.New("client is closed")

// Client is the main entry point for the vectord library.
//
// Access resources via struct fields:
//
//	client.Embeddings.Embed(ctx, req)
//	client.Health.Snapshot()
type Client struct {
	// Embeddings runs validation, model resolution and encoding.
	Embeddings *service.Embedding

	// Health is the process-wide readiness tracker.
	Health *health.Tracker

	registry *provider.Registry
	tracer   *tracing.Tracer
	logger   *slog.Logger
	cfg      config.AppConfig
	closed   atomic.Bool
}

// New creates a new Client with the given options. The default model is
// not loaded here; call LoadDefault before serving traffic.
func New(opts ...Option) (*Client, error) {
	cc := newClientConfig()
	for _, opt := range opts {
		opt(cc)
	}

	logger := cc.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	appCfg := cc.appCfg
	tracker := health.NewTracker()
	if err := appCfg.Validate(); err != nil {
		tracker.SetConfigValid(false, err.Error())
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	tracker.SetConfigValid(true, "")

	tracer := cc.tracer
	if tracer == nil {
		if appCfg.Tracing().Enabled() {
			var err error
			tracer, err = tracing.New(context.Background(), appCfg.Tracing())
			if err != nil {
				return nil, fmt.Errorf("set up tracing: %w", err)
			}
		} else {
			tracer = tracing.NewNoop()
		}
	}

	loader := cc.loader
	if loader == nil {
		switch appCfg.Engine().Type() {
		case config.EngineOpenAI:
			openaiCfg := appCfg.Engine().OpenAI()
			loader = provider.NewOpenAILoader(provider.OpenAIConfig{
				APIKey:     openaiCfg.APIKey(),
				BaseURL:    openaiCfg.BaseURL(),
				Timeout:    openaiCfg.Timeout(),
				MaxRetries: openaiCfg.MaxRetries(),
			})
			logger.Info("openai embedding engine configured")
		default:
			modelDir := appCfg.Engine().ModelDir()
			loader = provider.NewLocalLoader(modelDir)
			logger.Info("local embedding engine configured", slog.String("model_dir", modelDir))
		}
	}

	registry := provider.NewRegistry(appCfg.Limits().DefaultModel(), loader)

	return &Client{
		Embeddings: service.NewEmbedding(appCfg.Limits(), registry, tracer, logger),
		Health:     tracker,
		registry:   registry,
		tracer:     tracer,
		logger:     logger,
		cfg:        appCfg,
	}, nil
}

// LoadDefault loads the default model synchronously and records the
// outcome in the readiness tracker. A failure latches NotReady; the
// process must be restarted to recover.
func (c *Client) LoadDefault(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if err := c.registry.LoadDefault(ctx); err != nil {
		c.logger.Error("default model load failed",
			slog.String("model", c.registry.DefaultModel()),
			slog.Any("error", err),
		)
		c.Health.SetModelLoaded(false, err.Error())
		return err
	}

	c.logger.Info("default model loaded", slog.String("model", c.registry.DefaultModel()))
	c.Health.SetModelLoaded(true, "")
	return nil
}

// Close releases tracing resources. Loaded engines live for the process
// lifetime and need no teardown of their own.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	if err := c.tracer.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shut down tracer: %w", err)
	}

	c.logger.Info("vectord client closed")
	return nil
}

// Registry returns the model registry.
func (c *Client) Registry() *provider.Registry {
	return c.registry
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Config returns the effective application configuration.
func (c *Client) Config() config.AppConfig {
	return c.cfg
}
