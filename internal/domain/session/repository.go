package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/drfirst/go-soap/internal/infrastructure/postgres"
)

// ExportRepository persists exported documents together with their outbox entry
type ExportRepository struct {
	pool   *pgxpool.Pool
	topic  string
	logger *zap.Logger
}

// NewExportRepository creates a new repository publishing to topic through the outbox
func NewExportRepository(pool *pgxpool.Pool, topic string, logger *zap.Logger) *ExportRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportRepository{pool: pool, topic: topic, logger: logger}
}

// Save stores the export and its outbox entry in one transaction.
// It reports false when a document with the same idempotency key already exists.
func (r *ExportRepository) Save(ctx context.Context, e *DocumentExported) (bool, error) {
	payload, err := e.Payload()
	if err != nil {
		return false, fmt.Errorf("encode export: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := r.insertExport(ctx, tx, e)
	if err != nil {
		return false, err
	}
	if !inserted {
		r.logger.Debug("export already stored",
			zap.String("session_id", e.SessionID),
			zap.String("idempotency_key", e.IdempotencyKey))
		return false, nil
	}

	err = postgres.WriteEntry(ctx, tx, &postgres.OutboxEntry{
		AggregateID:   e.SessionID,
		AggregateType: AggregateType,
		EventType:     string(EventDocumentExported),
		Payload:       payload,
		KafkaTopic:    r.topic,
		KafkaKey:      e.IdempotencyKey,
	})
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (r *ExportRepository) insertExport(ctx context.Context, tx pgx.Tx, e *DocumentExported) (bool, error) {
	query := `
		INSERT INTO session_exports
		(export_id, session_id, idempotency_key, document, problem_count, commit_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
	`
	tag, err := tx.Exec(ctx, query,
		e.ExportID,
		e.SessionID,
		e.IdempotencyKey,
		e.Document,
		e.ProblemCount,
		e.CommitCount,
		e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert export: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns the exports of a session, newest first
func (r *ExportRepository) List(ctx context.Context, sessionID string) ([]*DocumentExported, error) {
	query := `
		SELECT export_id, session_id, idempotency_key, document, problem_count, commit_count, created_at
		FROM session_exports
		WHERE session_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var exports []*DocumentExported
	for rows.Next() {
		e := &DocumentExported{}
		err := rows.Scan(
			&e.ExportID, &e.SessionID, &e.IdempotencyKey, &e.Document,
			&e.ProblemCount, &e.CommitCount, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
