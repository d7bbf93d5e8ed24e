package telemetry

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracerWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "aavetx-test", "dev", "")
	if err != nil {
		t.Fatalf("init tracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestExporterOptions(t *testing.T) {
	if got := len(exporterOptions("http://collector:4318")); got != 2 {
		t.Errorf("expected url options, got %d", got)
	}
	if got := len(exporterOptions("collector:4318")); got != 3 {
		t.Errorf("expected insecure host options, got %d", got)
	}
}

func TestKafkaHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := []kafka.Header{{Key: "Traceparent", Value: []byte("stale")}}
	InjectKafkaHeaders(ctx, &headers)
	if len(headers) != 1 {
		t.Fatalf("expected the existing header to be replaced, got %d headers", len(headers))
	}

	restored := ExtractKafkaHeaders(context.Background(), headers)
	if got := TraceID(restored); got != traceID.String() {
		t.Errorf("expected trace id %s, got %q", traceID, got)
	}
	if TraceID(context.Background()) != "" {
		t.Errorf("expected empty trace id without a span")
	}
}

func TestContextWithTraceID(t *testing.T) {
	ctx, ok := ContextWithTraceID(context.Background(), "4bf92f3577b34da6a3ce929d0e0e4736")
	if !ok {
		t.Fatalf("expected trace id to parse")
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsRemote() || TraceID(ctx) != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected span context %+v", sc)
	}
	if _, ok := ContextWithTraceID(context.Background(), "nope"); ok {
		t.Errorf("expected invalid trace id to fail")
	}
}
