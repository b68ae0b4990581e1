// Package observability installs the process tracer provider.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracingConfig governs tracer initialisation.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Writer      io.Writer // stdout when nil
}

// InitTracing installs a stdout-exporting tracer provider when enabled and
// a noop provider otherwise. The returned function flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig, log *zap.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}
	name := cfg.ServiceName
	if name == "" {
		name = "ispnet-api"
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", name)))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", zap.String("exporter", "stdout"), zap.String("service", name))
	return tp.Shutdown, nil
}

// ShutdownWithTimeout flushes spans, logging instead of returning failures.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log *zap.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("tracing shutdown failed", zap.Error(err))
	}
}
