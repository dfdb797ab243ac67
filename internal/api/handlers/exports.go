package handlers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/drfirst/go-soap/internal/domain/session"
	"github.com/drfirst/go-soap/internal/observability/metrics"
	"github.com/drfirst/go-soap/pkg/workerpool"
)

// ExportStore persists exported documents. Save reports false for a document
// that was already stored under the same idempotency key.
type ExportStore interface {
	Save(ctx context.Context, e *session.DocumentExported) (bool, error)
	List(ctx context.Context, sessionID string) ([]*session.DocumentExported, error)
}

// ExportQueue delivers exports to an ExportStore off the request path
type ExportQueue struct {
	store   ExportStore
	pool    *workerpool.Pool[*session.DocumentExported]
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewExportQueue creates a queue; Start must be called before Enqueue
func NewExportQueue(store ExportStore, cfg workerpool.Config, m *metrics.Metrics, logger *zap.Logger) (*ExportQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &ExportQueue{
		store:   store,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("export-queue"),
	}

	pool, err := workerpool.New(cfg, q.deliver, logger)
	if err != nil {
		return nil, err
	}
	pool.OnDone(func(task workerpool.Task[*session.DocumentExported], err error) {
		if err != nil {
			q.metrics.Exports.WithLabelValues("failed").Inc()
		}
	})
	q.pool = pool
	return q, nil
}

func (q *ExportQueue) Start() { q.pool.Start() }

// Stop drains pending deliveries
func (q *ExportQueue) Stop() { q.pool.Stop() }

// Enqueue schedules delivery; it fails fast when the queue is full
func (q *ExportQueue) Enqueue(e *session.DocumentExported) error {
	return q.pool.Submit(workerpool.Task[*session.DocumentExported]{ID: e.ExportID, Payload: e})
}

// Healthy reports whether the queue has headroom
func (q *ExportQueue) Healthy() bool { return q.pool.IsHealthy() }

func (q *ExportQueue) List(ctx context.Context, sessionID string) ([]*session.DocumentExported, error) {
	return q.store.List(ctx, sessionID)
}

func (q *ExportQueue) deliver(ctx context.Context, task workerpool.Task[*session.DocumentExported]) error {
	e := task.Payload
	ctx, span := q.tracer.Start(ctx, "export.deliver",
		trace.WithAttributes(
			attribute.String("session_id", e.SessionID),
			attribute.String("idempotency_key", e.IdempotencyKey),
		))
	defer span.End()

	stored, err := q.store.Save(ctx, e)
	if err != nil {
		span.RecordError(err)
		return err
	}

	result := "stored"
	if !stored {
		result = "duplicate"
	}
	q.metrics.Exports.WithLabelValues(result).Inc()
	q.logger.Info("export delivered",
		zap.String("session_id", e.SessionID),
		zap.String("export_id", e.ExportID),
		zap.String("result", result))
	return nil
}
