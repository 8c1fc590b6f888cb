// Package observe configures optional OpenTelemetry tracing for local
// development runs.
package observe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/dotcommander/agenthost/internal/config"
)

const serviceName = "agenthost"

// Setup installs a tracer provider when tracing is enabled and the
// process is not hosted; hosted platforms bring their own pipeline.
// Setup failures are reported to the caller but are never fatal.
//
// The returned shutdown flushes pending spans; it is always non-nil.
func Setup(ctx context.Context, cfg config.Config, log *slog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.EnableOTel || cfg.Hosted() {
		return noop, nil
	}

	opts := []otlptracehttp.Option{}
	if cfg.OTLPEndpoint == "" {
		// No collector configured; default to a local one.
		opts = append(opts, otlptracehttp.WithEndpoint("localhost:4318"), otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noop, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Debug("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	return tp.Shutdown, nil
}
