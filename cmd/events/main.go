package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aavetx/internal/config"
	"aavetx/internal/infrastructure/logging"
	"aavetx/internal/infrastructure/telemetry"
	"aavetx/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

// events tails the lookup topic and logs a summary per lookup.
func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatalf("KAFKA_BROKERS is required")
	}
	logCloser, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatalf("logging error: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "aavetx-events", version, cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	slog.Info("lookup event consumer started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	consume(ctx, reader)
}

type stats struct {
	messages uint64
	resolved uint64
	notFound uint64
	byChain  map[string]uint64
}

func (s *stats) add(event streaming.LookupEvent) {
	s.messages++
	switch event.Type {
	case streaming.MessageTypeResolved:
		s.resolved++
		s.byChain[event.Chain]++
	case streaming.MessageTypeNotFound:
		s.notFound++
	}
}

func consume(ctx context.Context, reader *kafka.Reader) {
	tracer := otel.Tracer("aavetx/events")
	st := &stats{byChain: make(map[string]uint64)}
	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			slog.Warn("kafka fetch error", "err", err)
			continue
		}

		event, err := streaming.Decode(message.Value)
		if err != nil {
			slog.Warn("message decode error", "offset", message.Offset, "err", err)
			_ = reader.CommitMessages(ctx, message)
			continue
		}

		messageCtx := telemetry.ExtractKafkaHeaders(ctx, message.Headers)
		if !trace.SpanContextFromContext(messageCtx).IsValid() && event.TraceID != "" {
			if withTrace, ok := telemetry.ContextWithTraceID(messageCtx, event.TraceID); ok {
				messageCtx = withTrace
			}
		}
		_, span := tracer.Start(messageCtx, "events.consume_lookup", trace.WithSpanKind(trace.SpanKindConsumer))
		span.SetAttributes(
			attribute.String("message.type", string(event.Type)),
			attribute.String("tx.hash", event.TxHash),
		)
		slog.Info("lookup event",
			"type", event.Type,
			"hash", event.TxHash,
			"chain", event.Chain,
			"rows", event.RowCount,
			"probes", event.ProbeCount,
			"failed_chains", event.FailedChains,
			"elapsed_ms", event.ElapsedMS,
		)
		span.End()

		st.add(event)
		if st.messages%100 == 0 {
			slog.Info("lookup event stats", "messages", st.messages, "resolved", st.resolved, "not_found", st.notFound, "by_chain", st.byChain)
		}
		if err := reader.CommitMessages(ctx, message); err != nil {
			slog.Warn("kafka commit error", "err", err)
		}
	}
}
