package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"aavetx/internal/domain"
	"aavetx/internal/infrastructure/telemetry"
	"aavetx/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTopic = "aavetx-lookups"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes one event per finished lookup.
type Producer struct {
	writer messageWriter
	topic  string
}

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = defaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer, topic: cfg.Topic}, nil
}

func (p *Producer) Name() string {
	return "kafka"
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) RecordLookup(ctx context.Context, record domain.LookupRecord) error {
	return p.PublishLookup(ctx, record)
}

// PublishLookup writes the lookup summary keyed by tx hash, so repeated
// lookups of one hash land on the same partition.
func (p *Producer) PublishLookup(ctx context.Context, record domain.LookupRecord) error {
	ctx, span := otel.Tracer("aavetx/kafka").Start(ctx, "kafka.publish_lookup", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("tx.hash", record.Hash),
		attribute.String("lookup.id", record.ID.String()),
		attribute.Bool("lookup.found", record.Found),
		attribute.String("messaging.destination", p.topic),
	)

	payload, err := streaming.Encode(streaming.EventFromRecord(record, telemetry.TraceID(ctx)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	headers := make([]kafka.Header, 0, 2)
	telemetry.InjectKafkaHeaders(ctx, &headers)
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(record.Hash),
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
