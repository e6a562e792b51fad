package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, DefaultHost, cfg.Host())
	assert.Equal(t, DefaultPort, cfg.Port())
	assert.Equal(t, "0.0.0.0:8008", cfg.Addr())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
	assert.Equal(t, DefaultModel, cfg.Limits().DefaultModel())
	assert.False(t, cfg.Limits().AllowModelOverride())
	assert.True(t, cfg.Limits().NormalizeDefault())
	assert.True(t, cfg.Limits().TruncateDefault())
	assert.Equal(t, DefaultBatchMaxTexts, cfg.Limits().BatchMaxTexts())
	assert.Equal(t, DefaultMaxCharsPerText, cfg.Limits().MaxCharsPerText())
	assert.Equal(t, DefaultRequestTimeout, cfg.Limits().RequestTimeout())
	assert.Equal(t, EngineLocal, cfg.Engine().Type())
	assert.False(t, cfg.Tracing().Enabled())
	assert.Equal(t, []string{"*"}, cfg.Security().AllowedOrigins())
	assert.Equal(t, DefaultRequestIDHeader, cfg.Security().RequestIDHeader())
}

func TestNewAppConfigWithOptions(t *testing.T) {
	cfg := NewAppConfigWithOptions(
		WithHost("127.0.0.1"),
		WithPort(9000),
		WithLogLevel("DEBUG"),
		WithLogFormat(LogFormatJSON),
		WithLimits(NewLimitsConfig().
			WithDefaultModel("custom-model").
			WithAllowModelOverride(true).
			WithBatchMaxTexts(16).
			WithRequestTimeout(5*time.Second)),
		WithEngine(NewEngineConfig().WithModelDir("/opt/models")),
	)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, "DEBUG", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, "custom-model", cfg.Limits().DefaultModel())
	assert.True(t, cfg.Limits().AllowModelOverride())
	assert.Equal(t, 16, cfg.Limits().BatchMaxTexts())
	assert.Equal(t, 5*time.Second, cfg.Limits().RequestTimeout())
	assert.Equal(t, "/opt/models", cfg.Engine().ModelDir())
}

func TestAppConfig_Apply(t *testing.T) {
	base := NewAppConfigWithOptions(WithPort(9000))
	derived := base.Apply(WithLogLevel("DEBUG"))

	// Base is untouched, derived carries both changes.
	assert.Equal(t, "INFO", base.LogLevel())
	assert.Equal(t, 9000, derived.Port())
	assert.Equal(t, "DEBUG", derived.LogLevel())
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			cfg:     NewAppConfig(),
			wantErr: false,
		},
		{
			name:    "port out of range",
			cfg:     NewAppConfigWithOptions(WithPort(70000)),
			wantErr: true,
		},
		{
			name:    "empty default model",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithDefaultModel(""))),
			wantErr: true,
		},
		{
			name:    "non-positive batch limit",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithBatchMaxTexts(0))),
			wantErr: true,
		},
		{
			name:    "non-positive char limit",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithMaxCharsPerText(-1))),
			wantErr: true,
		},
		{
			name:    "non-positive timeout",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithRequestTimeout(0))),
			wantErr: true,
		},
		{
			name:    "batch limit above cap",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithBatchMaxTexts(2048))),
			wantErr: true,
		},
		{
			name:    "char limit above cap",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithMaxCharsPerText(200000))),
			wantErr: true,
		},
		{
			name:    "timeout above cap",
			cfg:     NewAppConfigWithOptions(WithLimits(NewLimitsConfig().WithRequestTimeout(time.Hour))),
			wantErr: true,
		},
		{
			name:    "openai engine without key",
			cfg:     NewAppConfigWithOptions(WithEngine(NewEngineConfig().WithType(EngineOpenAI))),
			wantErr: true,
		},
		{
			name: "openai engine with key",
			cfg: NewAppConfigWithOptions(WithEngine(NewEngineConfig().
				WithType(EngineOpenAI).
				WithOpenAI(NewOpenAIConfigWithOptions(WithOpenAIAPIKey("sk-test"))))),
			wantErr: false,
		},
		{
			name:    "unknown engine type",
			cfg:     NewAppConfigWithOptions(WithEngine(NewEngineConfig().WithType(EngineType("tpu")))),
			wantErr: true,
		},
		{
			name:    "sampling ratio out of range",
			cfg:     NewAppConfigWithOptions(WithTracing(NewTracingConfig().WithSamplingRatio(1.5))),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecurityConfig_AllowedOriginsCopy(t *testing.T) {
	cfg := NewSecurityConfig().WithAllowedOrigins([]string{"https://a.example.com"})

	origins := cfg.AllowedOrigins()
	origins[0] = "mutated"

	assert.Equal(t, []string{"https://a.example.com"}, cfg.AllowedOrigins())
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"multiple with spaces", "https://a.example.com, https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{"trailing comma", "https://a.example.com,", []string{"https://a.example.com"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseOrigins(tc.input))
		})
	}
}
