package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"go.opentelemetry.io/otel/attribute"
)

const instrumentationName = "review-framework-api"

// Tracing owns the tracer provider. A nil provider means spans are dropped.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// NewTracing exports spans to the Jaeger collector at endpoint. An empty endpoint
// yields a Tracing whose tracer is a no-op.
func NewTracing(serviceName, endpoint string, sampleRatio float64) (*Tracing, error) {
	if endpoint == "" {
		return &Tracing{}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{provider: provider}, nil
}

// NewTracingWithProvider wraps an existing provider (tests use an in-memory exporter).
func NewTracingWithProvider(provider *sdktrace.TracerProvider) *Tracing {
	return &Tracing{provider: provider}
}

func (t *Tracing) Tracer() trace.Tracer {
	if t == nil || t.provider == nil {
		return noopTracer()
	}
	return t.provider.Tracer(instrumentationName)
}

func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func noopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(instrumentationName)
}
