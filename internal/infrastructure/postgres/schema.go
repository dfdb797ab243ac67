package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationExports is the DDL for the export store and its outbox.
// It is safe to execute repeatedly.
const MigrationExports = `
CREATE TABLE IF NOT EXISTS session_exports (
    export_id       UUID PRIMARY KEY,
    session_id      TEXT NOT NULL,
    idempotency_key TEXT NOT NULL UNIQUE,
    document        TEXT NOT NULL,
    problem_count   INTEGER NOT NULL,
    commit_count    INTEGER NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_session_exports_session
    ON session_exports (session_id, created_at DESC);

CREATE TABLE IF NOT EXISTS outbox (
    id             BIGSERIAL PRIMARY KEY,
    aggregate_id   TEXT NOT NULL,
    aggregate_type TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    payload        JSONB NOT NULL,
    kafka_topic    TEXT NOT NULL,
    kafka_key      TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    processed_at   TIMESTAMPTZ,
    retry_count    INTEGER NOT NULL DEFAULT 0,
    last_error     TEXT
);

CREATE INDEX IF NOT EXISTS idx_outbox_pending
    ON outbox (id) WHERE processed_at IS NULL;
`

// Migrate applies MigrationExports
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, MigrationExports); err != nil {
		return fmt.Errorf("migrate exports schema: %w", err)
	}
	return nil
}

// Connect opens a pool and verifies connectivity
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
