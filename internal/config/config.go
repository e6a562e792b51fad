// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8008
	DefaultLogLevel        = "INFO"
	DefaultModel           = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultBatchMaxTexts   = 64
	DefaultMaxCharsPerText = 8000
	DefaultRequestTimeout  = 60 * time.Second
	DefaultRequestIDHeader = "X-Request-ID"
	DefaultOpenAITimeout   = 60 * time.Second
	DefaultOpenAIRetries   = 5
	DefaultOTLPEndpoint    = "http://localhost:4318"
	DefaultServiceName     = "vectord"
	DefaultSamplingRatio   = 1.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// EngineType selects the embedding backend.
type EngineType string

// EngineType values.
const (
	EngineLocal  EngineType = "local"
	EngineOpenAI EngineType = "openai"
)

// LimitsConfig configures request validation limits and encoding defaults.
type LimitsConfig struct {
	defaultModel       string
	allowModelOverride bool
	normalizeDefault   bool
	truncateDefault    bool
	batchMaxTexts      int
	maxCharsPerText    int
	requestTimeout     time.Duration
}

// NewLimitsConfig creates a new LimitsConfig with defaults.
func NewLimitsConfig() LimitsConfig {
	return LimitsConfig{
		defaultModel:       DefaultModel,
		allowModelOverride: false,
		normalizeDefault:   true,
		truncateDefault:    true,
		batchMaxTexts:      DefaultBatchMaxTexts,
		maxCharsPerText:    DefaultMaxCharsPerText,
		requestTimeout:     DefaultRequestTimeout,
	}
}

// DefaultModel returns the model served when a request names none.
func (l LimitsConfig) DefaultModel() string { return l.defaultModel }

// AllowModelOverride returns whether requests may name a non-default model.
func (l LimitsConfig) AllowModelOverride() bool { return l.allowModelOverride }

// NormalizeDefault returns the normalization default for requests that omit it.
func (l LimitsConfig) NormalizeDefault() bool { return l.normalizeDefault }

// TruncateDefault returns the truncation default for requests that omit it.
func (l LimitsConfig) TruncateDefault() bool { return l.truncateDefault }

// BatchMaxTexts returns the maximum number of texts per request.
func (l LimitsConfig) BatchMaxTexts() int { return l.batchMaxTexts }

// MaxCharsPerText returns the maximum character count for a single text.
func (l LimitsConfig) MaxCharsPerText() int { return l.maxCharsPerText }

// RequestTimeout returns the encoding deadline for a single request.
func (l LimitsConfig) RequestTimeout() time.Duration { return l.requestTimeout }

// WithDefaultModel returns a new config with the specified default model.
func (l LimitsConfig) WithDefaultModel(model string) LimitsConfig {
	l.defaultModel = model
	return l
}

// WithAllowModelOverride returns a new config with the specified override policy.
func (l LimitsConfig) WithAllowModelOverride(allow bool) LimitsConfig {
	l.allowModelOverride = allow
	return l
}

// WithNormalizeDefault returns a new config with the specified normalize default.
func (l LimitsConfig) WithNormalizeDefault(normalize bool) LimitsConfig {
	l.normalizeDefault = normalize
	return l
}

// WithTruncateDefault returns a new config with the specified truncate default.
func (l LimitsConfig) WithTruncateDefault(truncate bool) LimitsConfig {
	l.truncateDefault = truncate
	return l
}

// WithBatchMaxTexts returns a new config with the specified batch size limit.
func (l LimitsConfig) WithBatchMaxTexts(n int) LimitsConfig {
	l.batchMaxTexts = n
	return l
}

// WithMaxCharsPerText returns a new config with the specified text length limit.
func (l LimitsConfig) WithMaxCharsPerText(n int) LimitsConfig {
	l.maxCharsPerText = n
	return l
}

// WithRequestTimeout returns a new config with the specified encoding deadline.
func (l LimitsConfig) WithRequestTimeout(d time.Duration) LimitsConfig {
	l.requestTimeout = d
	return l
}

// OpenAIConfig configures the OpenAI-compatible remote backend.
type OpenAIConfig struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
}

// NewOpenAIConfig creates a new OpenAIConfig with defaults.
func NewOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		timeout:    DefaultOpenAITimeout,
		maxRetries: DefaultOpenAIRetries,
	}
}

// BaseURL returns the API base URL.
func (o OpenAIConfig) BaseURL() string { return o.baseURL }

// APIKey returns the API key.
func (o OpenAIConfig) APIKey() string { return o.apiKey }

// Timeout returns the per-call timeout.
func (o OpenAIConfig) Timeout() time.Duration { return o.timeout }

// MaxRetries returns the maximum retry count.
func (o OpenAIConfig) MaxRetries() int { return o.maxRetries }

// IsConfigured returns true if the backend has an API key.
func (o OpenAIConfig) IsConfigured() bool {
	return o.apiKey != ""
}

// OpenAIConfigOption is a functional option for OpenAIConfig.
type OpenAIConfigOption func(*OpenAIConfig)

// WithOpenAIBaseURL sets the API base URL.
func WithOpenAIBaseURL(url string) OpenAIConfigOption {
	return func(o *OpenAIConfig) { o.baseURL = url }
}

// WithOpenAIAPIKey sets the API key.
func WithOpenAIAPIKey(key string) OpenAIConfigOption {
	return func(o *OpenAIConfig) { o.apiKey = key }
}

// WithOpenAITimeout sets the per-call timeout.
func WithOpenAITimeout(d time.Duration) OpenAIConfigOption {
	return func(o *OpenAIConfig) { o.timeout = d }
}

// WithOpenAIMaxRetries sets the maximum retry count.
func WithOpenAIMaxRetries(n int) OpenAIConfigOption {
	return func(o *OpenAIConfig) { o.maxRetries = n }
}

// NewOpenAIConfigWithOptions creates an OpenAIConfig with functional options.
func NewOpenAIConfigWithOptions(opts ...OpenAIConfigOption) OpenAIConfig {
	o := NewOpenAIConfig()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EngineConfig configures the embedding backend.
type EngineConfig struct {
	engineType EngineType
	modelDir   string
	openai     OpenAIConfig
}

// NewEngineConfig creates a new EngineConfig with defaults.
func NewEngineConfig() EngineConfig {
	return EngineConfig{
		engineType: EngineLocal,
		modelDir:   DefaultModelDir(),
		openai:     NewOpenAIConfig(),
	}
}

// Type returns the selected backend.
func (e EngineConfig) Type() EngineType { return e.engineType }

// ModelDir returns the local model directory.
func (e EngineConfig) ModelDir() string { return e.modelDir }

// OpenAI returns the remote backend config.
func (e EngineConfig) OpenAI() OpenAIConfig { return e.openai }

// WithType returns a new config with the specified backend.
func (e EngineConfig) WithType(t EngineType) EngineConfig {
	e.engineType = t
	return e
}

// WithModelDir returns a new config with the specified model directory.
func (e EngineConfig) WithModelDir(dir string) EngineConfig {
	e.modelDir = dir
	return e
}

// WithOpenAI returns a new config with the specified remote backend config.
func (e EngineConfig) WithOpenAI(o OpenAIConfig) EngineConfig {
	e.openai = o
	return e
}

// TracingConfig configures OpenTelemetry trace export.
type TracingConfig struct {
	enabled       bool
	serviceName   string
	endpoint      string
	samplingRatio float64
}

// NewTracingConfig creates a new TracingConfig with defaults.
func NewTracingConfig() TracingConfig {
	return TracingConfig{
		enabled:       false,
		serviceName:   DefaultServiceName,
		endpoint:      DefaultOTLPEndpoint,
		samplingRatio: DefaultSamplingRatio,
	}
}

// Enabled returns whether trace export is enabled.
func (t TracingConfig) Enabled() bool { return t.enabled }

// ServiceName returns the reported service name.
func (t TracingConfig) ServiceName() string { return t.serviceName }

// Endpoint returns the OTLP HTTP endpoint.
func (t TracingConfig) Endpoint() string { return t.endpoint }

// SamplingRatio returns the trace sampling ratio in [0, 1].
func (t TracingConfig) SamplingRatio() float64 { return t.samplingRatio }

// WithEnabled returns a new config with the specified enabled state.
func (t TracingConfig) WithEnabled(enabled bool) TracingConfig {
	t.enabled = enabled
	return t
}

// WithServiceName returns a new config with the specified service name.
func (t TracingConfig) WithServiceName(name string) TracingConfig {
	t.serviceName = name
	return t
}

// WithEndpoint returns a new config with the specified OTLP endpoint.
func (t TracingConfig) WithEndpoint(endpoint string) TracingConfig {
	t.endpoint = endpoint
	return t
}

// WithSamplingRatio returns a new config with the specified sampling ratio.
func (t TracingConfig) WithSamplingRatio(ratio float64) TracingConfig {
	t.samplingRatio = ratio
	return t
}

// SecurityConfig configures the HTTP boundary.
type SecurityConfig struct {
	allowedOrigins  []string
	requestIDHeader string
}

// NewSecurityConfig creates a new SecurityConfig with defaults.
func NewSecurityConfig() SecurityConfig {
	return SecurityConfig{
		allowedOrigins:  []string{"*"},
		requestIDHeader: DefaultRequestIDHeader,
	}
}

// AllowedOrigins returns the CORS allowed origins.
func (s SecurityConfig) AllowedOrigins() []string {
	origins := make([]string, len(s.allowedOrigins))
	copy(origins, s.allowedOrigins)
	return origins
}

// RequestIDHeader returns the correlation ID header name.
func (s SecurityConfig) RequestIDHeader() string { return s.requestIDHeader }

// WithAllowedOrigins returns a new config with the specified origins.
func (s SecurityConfig) WithAllowedOrigins(origins []string) SecurityConfig {
	s.allowedOrigins = make([]string, len(origins))
	copy(s.allowedOrigins, origins)
	return s
}

// WithRequestIDHeader returns a new config with the specified header name.
func (s SecurityConfig) WithRequestIDHeader(header string) SecurityConfig {
	s.requestIDHeader = header
	return s
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host      string
	port      int
	logLevel  string
	logFormat LogFormat
	limits    LimitsConfig
	engine    EngineConfig
	tracing   TracingConfig
	security  SecurityConfig
}

// DefaultModelDir returns the default local model directory.
func DefaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vectord"
	}
	return filepath.Join(home, ".vectord", "models")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:      DefaultHost,
		port:      DefaultPort,
		logLevel:  DefaultLogLevel,
		logFormat: LogFormatPretty,
		limits:    NewLimitsConfig(),
		engine:    NewEngineConfig(),
		tracing:   NewTracingConfig(),
		security:  NewSecurityConfig(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// Limits returns the request limits config.
func (c AppConfig) Limits() LimitsConfig { return c.limits }

// Engine returns the embedding backend config.
func (c AppConfig) Engine() EngineConfig { return c.engine }

// Tracing returns the trace export config.
func (c AppConfig) Tracing() TracingConfig { return c.tracing }

// Security returns the HTTP boundary config.
func (c AppConfig) Security() SecurityConfig { return c.security }

// Validate reports the first configuration problem found, or nil.
func (c AppConfig) Validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("port %d out of range", c.port)
	}
	if c.limits.defaultModel == "" {
		return fmt.Errorf("default model must not be empty")
	}
	if c.limits.batchMaxTexts < 1 || c.limits.batchMaxTexts > 1024 {
		return fmt.Errorf("batch max texts %d out of range [1, 1024]", c.limits.batchMaxTexts)
	}
	if c.limits.maxCharsPerText < 1 || c.limits.maxCharsPerText > 100000 {
		return fmt.Errorf("max chars per text %d out of range [1, 100000]", c.limits.maxCharsPerText)
	}
	if c.limits.requestTimeout <= 0 || c.limits.requestTimeout > 600*time.Second {
		return fmt.Errorf("request timeout %s out of range (0, 600s]", c.limits.requestTimeout)
	}
	switch c.engine.engineType {
	case EngineLocal:
	case EngineOpenAI:
		if !c.engine.openai.IsConfigured() {
			return fmt.Errorf("openai engine selected but no API key configured")
		}
	default:
		return fmt.Errorf("unknown engine type %q", c.engine.engineType)
	}
	if c.tracing.samplingRatio < 0 || c.tracing.samplingRatio > 1 {
		return fmt.Errorf("sampling ratio %g out of range [0, 1]", c.tracing.samplingRatio)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithLimits sets the request limits config.
func WithLimits(l LimitsConfig) AppConfigOption {
	return func(c *AppConfig) { c.limits = l }
}

// WithEngine sets the embedding backend config.
func WithEngine(e EngineConfig) AppConfigOption {
	return func(c *AppConfig) { c.engine = e }
}

// WithTracing sets the trace export config.
func WithTracing(t TracingConfig) AppConfigOption {
	return func(c *AppConfig) { c.tracing = t }
}

// WithSecurity sets the HTTP boundary config.
func WithSecurity(s SecurityConfig) AppConfigOption {
	return func(c *AppConfig) { c.security = s }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
// This copies all fields from the receiver and then applies the options,
// making it safe to use when adding new fields to AppConfig.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are shown as presence flags only.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("log_level", c.logLevel),
		slog.String("engine", string(c.engine.engineType)),
		slog.String("model_dir", c.engine.modelDir),
		slog.String("default_model", c.limits.defaultModel),
		slog.Bool("allow_model_override", c.limits.allowModelOverride),
		slog.Int("batch_max_texts", c.limits.batchMaxTexts),
		slog.Int("max_chars_per_text", c.limits.maxCharsPerText),
		slog.Duration("request_timeout", c.limits.requestTimeout),
		slog.Bool("openai_key_set", c.engine.openai.IsConfigured()),
		slog.Bool("tracing_enabled", c.tracing.enabled),
	}
}

// ParseOrigins parses a comma-separated string of CORS origins.
func ParseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
