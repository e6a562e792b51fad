// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_DEFAULT_MODEL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8008)
	Port int `envconfig:"PORT" default:"8008"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Embedding configures request validation limits and encoding defaults.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`

	// Engine configures the embedding backend.
	Engine EngineEnv `envconfig:"ENGINE"`

	// Otel configures trace export.
	Otel OtelEnv `envconfig:"OTEL"`

	// Security configures the HTTP boundary.
	Security SecurityEnv `envconfig:"SECURITY"`
}

// EmbeddingEnv holds environment configuration for request limits.
type EmbeddingEnv struct {
	// DefaultModel is the model served when requests name none.
	// Env: EMBEDDING_DEFAULT_MODEL (default: sentence-transformers/all-MiniLM-L6-v2)
	DefaultModel string `envconfig:"DEFAULT_MODEL" default:"sentence-transformers/all-MiniLM-L6-v2"`

	// AllowModelOverride permits requests to name a non-default model.
	// Env: EMBEDDING_ALLOW_MODEL_OVERRIDE (default: false)
	AllowModelOverride bool `envconfig:"ALLOW_MODEL_OVERRIDE" default:"false"`

	// NormalizeDefault is used when a request omits normalize.
	// Env: EMBEDDING_NORMALIZE_DEFAULT (default: true)
	NormalizeDefault bool `envconfig:"NORMALIZE_DEFAULT" default:"true"`

	// TruncateDefault is used when a request omits truncate.
	// Env: EMBEDDING_TRUNCATE_DEFAULT (default: true)
	TruncateDefault bool `envconfig:"TRUNCATE_DEFAULT" default:"true"`

	// BatchMaxTexts is the maximum number of texts per request.
	// Env: EMBEDDING_BATCH_MAX_TEXTS (default: 64)
	BatchMaxTexts int `envconfig:"BATCH_MAX_TEXTS" default:"64"`

	// MaxCharsPerText is the maximum character count per text.
	// Env: EMBEDDING_MAX_CHARS_PER_TEXT (default: 8000)
	MaxCharsPerText int `envconfig:"MAX_CHARS_PER_TEXT" default:"8000"`

	// RequestTimeout is the encoding deadline in seconds.
	// Env: EMBEDDING_REQUEST_TIMEOUT (default: 60)
	RequestTimeout float64 `envconfig:"REQUEST_TIMEOUT" default:"60"`
}

// EngineEnv holds environment configuration for the embedding backend.
type EngineEnv struct {
	// Type selects the backend (local or openai).
	// Env: ENGINE_TYPE (default: local)
	Type string `envconfig:"TYPE" default:"local"`

	// ModelDir is the directory holding local ONNX model files.
	// Env: ENGINE_MODEL_DIR
	// Default: ~/.vectord/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// OpenAIBaseURL is the API base URL for the remote backend.
	// Env: ENGINE_OPENAI_BASE_URL
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// OpenAIAPIKey is the API key for the remote backend.
	// Env: ENGINE_OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// OpenAITimeout is the per-call timeout in seconds.
	// Env: ENGINE_OPENAI_TIMEOUT (default: 60)
	OpenAITimeout float64 `envconfig:"OPENAI_TIMEOUT" default:"60"`

	// OpenAIMaxRetries is the maximum retry count.
	// Env: ENGINE_OPENAI_MAX_RETRIES (default: 5)
	OpenAIMaxRetries int `envconfig:"OPENAI_MAX_RETRIES" default:"5"`
}

// OtelEnv holds environment configuration for trace export.
type OtelEnv struct {
	// Enabled controls whether spans are exported.
	// Env: OTEL_ENABLED (default: false)
	Enabled bool `envconfig:"ENABLED" default:"false"`

	// ServiceName is the reported service name.
	// Env: OTEL_SERVICE_NAME (default: vectord)
	ServiceName string `envconfig:"SERVICE_NAME" default:"vectord"`

	// Endpoint is the OTLP HTTP endpoint.
	// Env: OTEL_ENDPOINT (default: http://localhost:4318)
	Endpoint string `envconfig:"ENDPOINT" default:"http://localhost:4318"`

	// SamplingRatio is the trace sampling ratio in [0, 1].
	// Env: OTEL_SAMPLING_RATIO (default: 1.0)
	SamplingRatio float64 `envconfig:"SAMPLING_RATIO" default:"1.0"`
}

// SecurityEnv holds environment configuration for the HTTP boundary.
type SecurityEnv struct {
	// AllowedOrigins is a comma-separated list of CORS origins.
	// Env: SECURITY_ALLOWED_ORIGINS (default: *)
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	// RequestIDHeader is the correlation ID header name.
	// Env: SECURITY_REQUEST_ID_HEADER (default: X-Request-ID)
	RequestIDHeader string `envconfig:"REQUEST_ID_HEADER" default:"X-Request-ID"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "VECTORD" would require VECTORD_HOST instead of HOST.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}

	cfg = applyOption(cfg, WithLimits(e.Embedding.ToLimitsConfig()))
	cfg = applyOption(cfg, WithEngine(e.Engine.ToEngineConfig()))
	cfg = applyOption(cfg, WithTracing(e.Otel.ToTracingConfig()))
	cfg = applyOption(cfg, WithSecurity(e.Security.ToSecurityConfig()))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToLimitsConfig converts EmbeddingEnv to LimitsConfig.
func (e EmbeddingEnv) ToLimitsConfig() LimitsConfig {
	cfg := NewLimitsConfig().
		WithAllowModelOverride(e.AllowModelOverride).
		WithNormalizeDefault(e.NormalizeDefault).
		WithTruncateDefault(e.TruncateDefault)
	if e.DefaultModel != "" {
		cfg = cfg.WithDefaultModel(e.DefaultModel)
	}
	if e.BatchMaxTexts > 0 {
		cfg = cfg.WithBatchMaxTexts(e.BatchMaxTexts)
	}
	if e.MaxCharsPerText > 0 {
		cfg = cfg.WithMaxCharsPerText(e.MaxCharsPerText)
	}
	if e.RequestTimeout > 0 {
		cfg = cfg.WithRequestTimeout(time.Duration(e.RequestTimeout * float64(time.Second)))
	}
	return cfg
}

// ToEngineConfig converts EngineEnv to EngineConfig.
func (e EngineEnv) ToEngineConfig() EngineConfig {
	cfg := NewEngineConfig()
	if e.Type != "" {
		cfg = cfg.WithType(parseEngineType(e.Type))
	}
	if e.ModelDir != "" {
		cfg = cfg.WithModelDir(e.ModelDir)
	}

	opts := []OpenAIConfigOption{
		WithOpenAITimeout(time.Duration(e.OpenAITimeout * float64(time.Second))),
		WithOpenAIMaxRetries(e.OpenAIMaxRetries),
	}
	if e.OpenAIBaseURL != "" {
		opts = append(opts, WithOpenAIBaseURL(e.OpenAIBaseURL))
	}
	if e.OpenAIAPIKey != "" {
		opts = append(opts, WithOpenAIAPIKey(e.OpenAIAPIKey))
	}
	return cfg.WithOpenAI(NewOpenAIConfigWithOptions(opts...))
}

// ToTracingConfig converts OtelEnv to TracingConfig.
func (o OtelEnv) ToTracingConfig() TracingConfig {
	cfg := NewTracingConfig().
		WithEnabled(o.Enabled).
		WithSamplingRatio(o.SamplingRatio)
	if o.ServiceName != "" {
		cfg = cfg.WithServiceName(o.ServiceName)
	}
	if o.Endpoint != "" {
		cfg = cfg.WithEndpoint(o.Endpoint)
	}
	return cfg
}

// ToSecurityConfig converts SecurityEnv to SecurityConfig.
func (s SecurityEnv) ToSecurityConfig() SecurityConfig {
	cfg := NewSecurityConfig()
	if s.AllowedOrigins != "" {
		cfg = cfg.WithAllowedOrigins(ParseOrigins(s.AllowedOrigins))
	}
	if s.RequestIDHeader != "" {
		cfg = cfg.WithRequestIDHeader(s.RequestIDHeader)
	}
	return cfg
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

// parseEngineType parses an engine type string.
func parseEngineType(s string) EngineType {
	switch strings.ToLower(s) {
	case "openai":
		return EngineOpenAI
	default:
		return EngineLocal
	}
}
