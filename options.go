package vectord

import (
	"log/slog"

	"github.com/embedware/vectord/infrastructure/provider"
	"github.com/embedware/vectord/internal/config"
	"github.com/embedware/vectord/internal/tracing"
)

// clientConfig holds the assembled configuration for a Client.
type clientConfig struct {
	appCfg config.AppConfig
	logger *slog.Logger
	loader provider.Loader
	tracer *tracing.Tracer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		appCfg: config.NewAppConfig(),
	}
}

// Option configures a Client during construction.
type Option func(*clientConfig)

// WithConfig replaces the entire application configuration. Options
// applied after this one modify the replacement.
func WithConfig(cfg config.AppConfig) Option {
	return func(cc *clientConfig) {
		cc.appCfg = cfg
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(cc *clientConfig) {
		cc.logger = logger
	}
}

// WithLimits sets the validation limits and request defaults.
func WithLimits(limits config.LimitsConfig) Option {
	return func(cc *clientConfig) {
		cc.appCfg = cc.appCfg.Apply(config.WithLimits(limits))
	}
}

// WithDefaultModel sets the model used when requests carry no override.
func WithDefaultModel(model string) Option {
	return func(cc *clientConfig) {
		limits := cc.appCfg.Limits().WithDefaultModel(model)
		cc.appCfg = cc.appCfg.Apply(config.WithLimits(limits))
	}
}

// WithModelDir sets the directory local model files are loaded from.
func WithModelDir(dir string) Option {
	return func(cc *clientConfig) {
		engine := cc.appCfg.Engine().WithModelDir(dir)
		cc.appCfg = cc.appCfg.Apply(config.WithEngine(engine))
	}
}

// WithOpenAI switches the client to the OpenAI-compatible engine using
// the given API key.
func WithOpenAI(apiKey string) Option {
	return func(cc *clientConfig) {
		openai := cc.appCfg.Engine().OpenAI()
		config.WithOpenAIAPIKey(apiKey)(&openai)
		engine := cc.appCfg.Engine().WithType(config.EngineOpenAI).WithOpenAI(openai)
		cc.appCfg = cc.appCfg.Apply(config.WithEngine(engine))
	}
}

// WithOpenAIConfig switches the client to the OpenAI-compatible engine
// with full control over its settings.
func WithOpenAIConfig(openai config.OpenAIConfig) Option {
	return func(cc *clientConfig) {
		engine := cc.appCfg.Engine().WithType(config.EngineOpenAI).WithOpenAI(openai)
		cc.appCfg = cc.appCfg.Apply(config.WithEngine(engine))
	}
}

// WithLoader overrides the engine loader. Intended for tests.
func WithLoader(loader provider.Loader) Option {
	return func(cc *clientConfig) {
		cc.loader = loader
	}
}

// WithTracer sets a pre-built tracer, bypassing the tracing
// configuration.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(cc *clientConfig) {
		cc.tracer = tracer
	}
}
