// Package main provides the export relay entry point. It publishes exported
// documents recorded in the Postgres outbox to Redpanda.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/drfirst/go-soap/internal/config"
	"github.com/drfirst/go-soap/internal/infrastructure/postgres"
	"github.com/drfirst/go-soap/internal/infrastructure/redpanda"
	"github.com/drfirst/go-soap/internal/observability/metrics"
	"github.com/drfirst/go-soap/internal/observability/tracing"
	"github.com/drfirst/go-soap/pkg/circuitbreaker"
)

const (
	serviceName         = "export-relay"
	maintenanceInterval = 30 * time.Second
	retention           = 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.ExportsEnabled() {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer tp.Shutdown(context.Background())

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("connected to database")

	if err := redpanda.HealthCheck(ctx, cfg.KafkaBrokers); err != nil {
		logger.Fatal("redpanda not reachable", zap.Error(err))
	}
	admin, err := redpanda.NewAdmin(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.Fatal("admin client creation failed", zap.Error(err))
	}
	if err := admin.EnsureTopics(ctx, redpanda.ExportTopicConfigs(cfg.ExportTopic, cfg.ExportDLQTopic)); err != nil {
		logger.Fatal("failed to ensure topics", zap.Error(err))
	}
	if topics, err := admin.ListTopics(ctx); err == nil {
		logger.Debug("broker topics", zap.Strings("topics", topics))
	}
	admin.Close()

	producerCfg := redpanda.DefaultProducerConfig()
	producerCfg.Brokers = cfg.KafkaBrokers
	producer, err := redpanda.NewProducer(producerCfg, logger)
	if err != nil {
		logger.Fatal("producer creation failed", zap.Error(err))
	}
	defer producer.Close()
	logger.Info("connected to Redpanda", zap.Strings("brokers", cfg.KafkaBrokers))

	breaker, err := circuitbreaker.New(circuitbreaker.DefaultConfig("redpanda"), logger,
		circuitbreaker.WithStateHook(func(name string, to circuitbreaker.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(to.Value())
		}))
	if err != nil {
		logger.Fatal("circuit breaker creation failed", zap.Error(err))
	}

	outboxCfg := postgres.DefaultOutboxConfig()
	outboxCfg.DeadLetterTopic = cfg.ExportDLQTopic
	outbox := postgres.NewOutbox(pool, &guardedPublisher{breaker: breaker, producer: producer}, outboxCfg, logger)

	go outbox.Run(ctx)
	go maintain(ctx, outbox, m, logger)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h := breaker.Health()
		code, status := http.StatusOK, "healthy"
		if !h.Healthy {
			code, status = http.StatusServiceUnavailable, "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":   status,
			"breaker":  h,
			"producer": producer.Stats(),
		})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := producer.Ping(r.Context()); err != nil {
			http.Error(w, "broker not reachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler(reg))

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	logger.Info("export relay started", zap.String("topic", cfg.ExportTopic))
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	logger.Info("export relay stopped")
}

// maintain refreshes the backlog gauge, dead-letters exhausted entries and
// prunes old processed rows
func maintain(ctx context.Context, outbox *postgres.Outbox, m *metrics.Metrics, logger *zap.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if stats, err := outbox.Stats(ctx); err == nil {
			m.OutboxPending.Set(float64(stats.Pending))
		} else {
			logger.Warn("outbox stats failed", zap.Error(err))
		}
		if moved, err := outbox.MoveToDeadLetter(ctx); err != nil {
			logger.Error("dead letter pass failed", zap.Error(err))
		} else if moved > 0 {
			logger.Warn("entries dead-lettered", zap.Int64("count", moved))
		}
		if removed, err := outbox.CleanupProcessed(ctx, retention); err != nil {
			logger.Error("outbox cleanup failed", zap.Error(err))
		} else if removed > 0 {
			logger.Debug("outbox cleaned", zap.Int64("removed", removed))
		}
	}
}

// guardedPublisher sends through the circuit breaker so an unavailable broker
// fails fast instead of stalling every batch
type guardedPublisher struct {
	breaker  *circuitbreaker.CircuitBreaker
	producer *redpanda.Producer
}

func (p *guardedPublisher) Publish(ctx context.Context, topic, key string, value []byte) error {
	return p.breaker.Do(ctx, func(ctx context.Context) error {
		return p.producer.Publish(ctx, topic, key, value)
	})
}
