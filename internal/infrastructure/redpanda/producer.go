// Package redpanda publishes exported documents to Redpanda with franz-go.
package redpanda

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProducerConfig holds configuration for the Redpanda producer
type ProducerConfig struct {
	// Brokers is a list of broker addresses
	Brokers []string
	// Linger is how long to wait for more records before sending a batch
	Linger time.Duration
	// Compression is one of lz4, snappy, gzip, zstd or empty for none
	Compression string
	// MaxRetries is the number of retries per record
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration
}

// DefaultProducerConfig returns defaults for low-volume, durable document delivery
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Brokers:      []string{"localhost:9092"},
		Linger:       5 * time.Millisecond,
		Compression:  "zstd",
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// Producer sends records and waits for every replica to acknowledge them
type Producer struct {
	client *kgo.Client
	logger *zap.Logger
	tracer trace.Tracer

	sent   atomic.Int64
	bytes  atomic.Int64
	failed atomic.Int64
}

// NewProducer creates a new producer
func NewProducer(cfg ProducerConfig, logger *zap.Logger) (*Producer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerLinger(cfg.Linger),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(cfg.MaxRetries),
		kgo.RetryBackoffFn(func(attempt int) time.Duration {
			return cfg.RetryBackoff * time.Duration(attempt+1)
		}),
	}
	if codec, ok := compressionCodec(cfg.Compression); ok {
		opts = append(opts, kgo.ProducerBatchCompression(codec))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Producer{
		client: client,
		logger: logger,
		tracer: otel.Tracer("redpanda-producer"),
	}, nil
}

func compressionCodec(name string) (kgo.CompressionCodec, bool) {
	switch name {
	case "lz4":
		return kgo.Lz4Compression(), true
	case "snappy":
		return kgo.SnappyCompression(), true
	case "gzip":
		return kgo.GzipCompression(), true
	case "zstd":
		return kgo.ZstdCompression(), true
	default:
		return kgo.NoCompression(), false
	}
}

// Publish produces one record and blocks until it is acknowledged
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	ctx, span := p.tracer.Start(ctx, "redpanda.publish",
		trace.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("key", key),
			attribute.Int("value_size", len(value)),
		))
	defer span.End()

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{record})

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.failed.Add(1)
		span.RecordError(err)
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	p.sent.Add(1)
	p.bytes.Add(int64(len(value)))
	p.logger.Debug("record produced",
		zap.String("topic", record.Topic),
		zap.Int32("partition", record.Partition),
		zap.Int64("offset", record.Offset))
	return nil
}

// Ping checks broker connectivity
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("flush on close failed", zap.Error(err))
	}
	p.client.Close()
}

// ProducerStats holds producer counters
type ProducerStats struct {
	Sent   int64
	Bytes  int64
	Failed int64
}

// Stats returns the producer counters
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Sent:   p.sent.Load(),
		Bytes:  p.bytes.Load(),
		Failed: p.failed.Load(),
	}
}

// headerCarrier exposes record headers to the OpenTelemetry propagator
type headerCarrier struct {
	record *kgo.Record
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.record.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.record.Headers {
		if h.Key == key {
			c.record.Headers[i].Value = []byte(value)
			return
		}
	}
	c.record.Headers = append(c.record.Headers, kgo.RecordHeader{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.record.Headers))
	for _, h := range c.record.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
