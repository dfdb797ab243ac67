//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic string
	key   string
	value []byte
}

type recordingPublisher struct {
	mu       sync.Mutex
	failFor  string
	messages []published
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == p.failFor {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, published{topic: topic, key: key, value: value})
	return nil
}

// testPool connects to TEST_DATABASE_URL inside a throwaway schema
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := Connect(ctx, url)
	require.NoError(t, err)
	schema := "outbox_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func writeEntries(t *testing.T, pool *pgxpool.Pool, entries ...*OutboxEntry) {
	t.Helper()
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, WriteEntry(ctx, tx, e))
		assert.NotZero(t, e.ID)
	}
	require.NoError(t, tx.Commit(ctx))
}

func TestOutbox_RelayBatchAndDeadLetter(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	writeEntries(t, pool,
		&OutboxEntry{
			AggregateID: "s-1", AggregateType: "Session", EventType: "DocumentExported",
			Payload: json.RawMessage(`{"n":1}`), KafkaTopic: "soap.exports", KafkaKey: "k-1",
		},
		&OutboxEntry{
			AggregateID: "s-2", AggregateType: "Session", EventType: "DocumentExported",
			Payload: json.RawMessage(`{"n":2}`), KafkaTopic: "soap.exports.broken", KafkaKey: "k-2",
		},
	)

	pub := &recordingPublisher{failFor: "soap.exports.broken"}
	outbox := NewOutbox(pool, pub, OutboxConfig{MaxRetries: 1}, zap.NewNop())

	n, err := outbox.RelayBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "soap.exports", pub.messages[0].topic)
	assert.Equal(t, "k-1", pub.messages[0].key)

	stats, err := outbox.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &OutboxStats{Pending: 0, Failed: 1}, stats)

	// exhausted entries are no longer picked up by the relay
	n, err = outbox.RelayBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	moved, err := outbox.MoveToDeadLetter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)
	require.Len(t, pub.messages, 2)
	dlq := pub.messages[1]
	assert.Equal(t, "soap.exports.dlq", dlq.topic)
	assert.Equal(t, "k-2", dlq.key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(dlq.value, &body))
	assert.Equal(t, "soap.exports.broken", body["original_topic"])
	assert.Equal(t, "broker unavailable", body["last_error"])
	assert.EqualValues(t, 1, body["retry_count"])

	stats, err = outbox.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &OutboxStats{}, stats)

	moved, err = outbox.MoveToDeadLetter(ctx)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestOutbox_RelayBatchSkipsWithoutLock(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	writeEntries(t, pool, &OutboxEntry{
		AggregateID: "s-1", AggregateType: "Session", EventType: "DocumentExported",
		Payload: json.RawMessage(`{}`), KafkaTopic: "soap.exports", KafkaKey: "k-1",
	})

	holder, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = holder.Exec(ctx, "SELECT pg_advisory_lock($1)", relayLockID)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	outbox := NewOutbox(pool, pub, DefaultOutboxConfig(), zap.NewNop())
	n, err := outbox.RelayBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.messages)

	_, err = holder.Exec(ctx, "SELECT pg_advisory_unlock($1)", relayLockID)
	require.NoError(t, err)
	holder.Release()

	n, err = outbox.RelayBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
