// Package tracing provides OpenTelemetry trace setup and span helpers.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/embedware/vectord/internal/config"
)

// Span attribute keys for encode operations. Attribute values only ever
// carry sizes and identifiers, never request text.
const (
	AttrModelName  = "model.name"
	AttrBatchSize  = "batch.size"
	AttrTotalChars = "total.chars"
	AttrElapsedMS  = "encoding.elapsed_ms"
	AttrDimension  = "encoding.dimension"
	AttrErrorCode  = "error.code"
	AttrNormalize  = "encoding.normalize"
	AttrTruncate   = "encoding.truncate"
)

const instrumentation = "github.com/embedware/vectord"

// Tracer wraps a TracerProvider configured for the service.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// New creates a Tracer from configuration. When export is disabled the
// provider has no exporter attached and spans are cheap no-ops.
func New(ctx context.Context, cfg config.TracingConfig) (*Tracer, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRatio()))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName()),
		)),
	}

	if cfg.Enabled() {
		client := otlptracehttp.NewClient(
			otlptracehttp.WithEndpointURL(cfg.Endpoint()),
		)
		exporter, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentation),
	}, nil
}

// NewNoop returns a Tracer that records nothing. Used by tests and by
// library consumers that do not configure tracing.
func NewNoop() *Tracer {
	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentation),
	}
}

// Start creates a span as a child of any span carried by ctx.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
