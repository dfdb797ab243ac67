// Package postgres provides PostgreSQL infrastructure components.
// Exported documents reach Redpanda through a transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// relayLockID is the advisory lock held by the active relay
const relayLockID int64 = 0x50a9e1a7

// OutboxEntry represents an event to be published via the outbox pattern
type OutboxEntry struct {
	ID            int64
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       json.RawMessage
	KafkaTopic    string
	KafkaKey      string
	CreatedAt     time.Time
	RetryCount    int
	LastError     *string
}

// OutboxConfig holds configuration for the relay
type OutboxConfig struct {
	// BatchSize is the number of entries to publish per poll
	BatchSize int
	// PollInterval is how often to poll for new entries
	PollInterval time.Duration
	// MaxRetries is the number of failed publishes before an entry is dead-lettered
	MaxRetries int
	// DeadLetterTopic receives entries that exhausted their retries
	DeadLetterTopic string
}

// DefaultOutboxConfig returns the relay defaults
func DefaultOutboxConfig() OutboxConfig {
	return OutboxConfig{
		BatchSize:       50,
		PollInterval:    500 * time.Millisecond,
		MaxRetries:      5,
		DeadLetterTopic: "soap.exports.dlq",
	}
}

// Publisher sends one record to a topic
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Outbox relays unprocessed outbox entries to a Publisher
type Outbox struct {
	pool      *pgxpool.Pool
	config    OutboxConfig
	publisher Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewOutbox creates a new outbox relay
func NewOutbox(pool *pgxpool.Pool, publisher Publisher, cfg OutboxConfig, logger *zap.Logger) *Outbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOutboxConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.DeadLetterTopic == "" {
		cfg.DeadLetterTopic = def.DeadLetterTopic
	}

	return &Outbox{
		pool:      pool,
		config:    cfg,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("outbox"),
	}
}

// WriteEntry inserts an outbox entry inside the caller's transaction
func WriteEntry(ctx context.Context, tx pgx.Tx, entry *OutboxEntry) error {
	query := `
		INSERT INTO outbox (aggregate_id, aggregate_type, event_type, payload, kafka_topic, kafka_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		entry.AggregateID,
		entry.AggregateType,
		entry.EventType,
		entry.Payload,
		entry.KafkaTopic,
		entry.KafkaKey,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("write outbox entry: %w", err)
	}
	return nil
}

// Run polls and relays entries until ctx is cancelled
func (o *Outbox) Run(ctx context.Context) {
	o.logger.Info("outbox relay started",
		zap.Int("batch_size", o.config.BatchSize),
		zap.Duration("poll_interval", o.config.PollInterval))

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := o.RelayBatch(ctx); err != nil && ctx.Err() == nil {
				o.logger.Error("relay batch failed", zap.Error(err))
			}
		}
	}
}

// RelayBatch publishes one batch and returns how many entries were published.
// Only the relay holding the advisory lock does any work.
func (o *Outbox) RelayBatch(ctx context.Context) (int, error) {
	ctx, span := o.tracer.Start(ctx, "outbox.relay_batch")
	defer span.End()

	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", relayLockID).Scan(&locked); err != nil {
		return 0, fmt.Errorf("advisory lock: %w", err)
	}
	if !locked {
		return 0, nil
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", relayLockID)

	entries, err := o.fetchPending(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("batch_size", len(entries)))

	published := 0
	for _, entry := range entries {
		if err := o.relay(ctx, entry); err != nil {
			o.logger.Warn("outbox entry not published",
				zap.Int64("id", entry.ID),
				zap.String("aggregate_id", entry.AggregateID),
				zap.Int("retry_count", entry.RetryCount+1),
				zap.Error(err))
			continue
		}
		published++
	}
	return published, nil
}

func (o *Outbox) fetchPending(ctx context.Context) ([]*OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, payload,
		       kafka_topic, kafka_key, created_at, retry_count, last_error
		FROM outbox
		WHERE processed_at IS NULL
		  AND retry_count < $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := o.pool.Query(ctx, query, o.config.MaxRetries, o.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []*OutboxEntry
	for rows.Next() {
		entry := &OutboxEntry{}
		err := rows.Scan(
			&entry.ID, &entry.AggregateID, &entry.AggregateType,
			&entry.EventType, &entry.Payload, &entry.KafkaTopic,
			&entry.KafkaKey, &entry.CreatedAt, &entry.RetryCount, &entry.LastError,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (o *Outbox) relay(ctx context.Context, entry *OutboxEntry) error {
	ctx, span := o.tracer.Start(ctx, "outbox.relay_entry",
		trace.WithAttributes(
			attribute.Int64("entry_id", entry.ID),
			attribute.String("event_type", entry.EventType),
			attribute.String("aggregate_id", entry.AggregateID),
		))
	defer span.End()

	if err := o.publisher.Publish(ctx, entry.KafkaTopic, entry.KafkaKey, entry.Payload); err != nil {
		span.RecordError(err)
		if _, uerr := o.pool.Exec(ctx,
			`UPDATE outbox SET retry_count = retry_count + 1, last_error = $1, updated_at = NOW() WHERE id = $2`,
			err.Error(), entry.ID); uerr != nil {
			o.logger.Error("failed to record publish error", zap.Error(uerr))
		}
		return fmt.Errorf("publish: %w", err)
	}

	if _, err := o.pool.Exec(ctx,
		`UPDATE outbox SET processed_at = NOW(), updated_at = NOW() WHERE id = $1`, entry.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// MoveToDeadLetter publishes entries that exhausted their retries to the dead letter topic
func (o *Outbox) MoveToDeadLetter(ctx context.Context) (int64, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, payload,
		       kafka_topic, kafka_key, created_at, retry_count, last_error
		FROM outbox
		WHERE processed_at IS NULL
		  AND retry_count >= $1
	`

	rows, err := o.pool.Query(ctx, query, o.config.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("query dead entries: %w", err)
	}
	var dead []*OutboxEntry
	for rows.Next() {
		entry := &OutboxEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.AggregateID, &entry.AggregateType,
			&entry.EventType, &entry.Payload, &entry.KafkaTopic,
			&entry.KafkaKey, &entry.CreatedAt, &entry.RetryCount, &entry.LastError,
		); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan dead entry: %w", err)
		}
		dead = append(dead, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var moved int64
	for _, entry := range dead {
		payload, err := json.Marshal(map[string]any{
			"original_topic": entry.KafkaTopic,
			"event_type":     entry.EventType,
			"aggregate_id":   entry.AggregateID,
			"payload":        entry.Payload,
			"retry_count":    entry.RetryCount,
			"last_error":     entry.LastError,
			"created_at":     entry.CreatedAt,
		})
		if err != nil {
			return moved, fmt.Errorf("encode dead letter: %w", err)
		}

		if err := o.publisher.Publish(ctx, o.config.DeadLetterTopic, entry.KafkaKey, payload); err != nil {
			o.logger.Error("failed to publish dead letter", zap.Int64("id", entry.ID), zap.Error(err))
			continue
		}
		if _, err := o.pool.Exec(ctx, "UPDATE outbox SET processed_at = NOW() WHERE id = $1", entry.ID); err != nil {
			o.logger.Error("failed to mark dead letter", zap.Int64("id", entry.ID), zap.Error(err))
			continue
		}
		moved++
	}
	return moved, nil
}

// CleanupProcessed removes processed entries older than the retention window
func (o *Outbox) CleanupProcessed(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := o.pool.Exec(ctx, `
		DELETE FROM outbox
		WHERE processed_at IS NOT NULL
		  AND processed_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("cleanup outbox: %w", err)
	}
	return result.RowsAffected(), nil
}

// OutboxStats summarizes the outbox backlog
type OutboxStats struct {
	Pending int64
	Failed  int64
}

// Stats returns the current backlog
func (o *Outbox) Stats(ctx context.Context) (*OutboxStats, error) {
	stats := &OutboxStats{}
	err := o.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE retry_count < $1),
			COUNT(*) FILTER (WHERE retry_count >= $1)
		FROM outbox
		WHERE processed_at IS NULL
	`, o.config.MaxRetries).Scan(&stats.Pending, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("outbox stats: %w", err)
	}
	return stats, nil
}
