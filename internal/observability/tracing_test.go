package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracingStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: true, ServiceName: "test", Writer: &buf}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "unit-span")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)
	if !strings.Contains(buf.String(), "unit-span") {
		t.Fatalf("span not exported: %q", buf.String())
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "x")
	if span.SpanContext().IsValid() {
		t.Fatal("noop provider should produce invalid span contexts")
	}
	span.End()
}
