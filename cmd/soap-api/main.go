// Package main provides the SOAP session API entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/drfirst/go-soap/internal/api/handlers"
	"github.com/drfirst/go-soap/internal/api/middleware"
	"github.com/drfirst/go-soap/internal/config"
	"github.com/drfirst/go-soap/internal/domain/session"
	"github.com/drfirst/go-soap/internal/infrastructure/postgres"
	"github.com/drfirst/go-soap/internal/observability/metrics"
	"github.com/drfirst/go-soap/internal/observability/tracing"
	"github.com/drfirst/go-soap/pkg/workerpool"
)

const (
	serviceName    = "soap-api"
	serviceVersion = "1.0.0"
	sweepInterval  = time.Minute
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := session.NewStore(logger)
	store.OnSizeChange(func(n int) { m.SessionsActive.Set(float64(n)) })
	go store.RunSweeper(ctx, sweepInterval, cfg.SessionTTL)

	// Postgres is optional: without it exports are rendered but not stored
	var (
		pool    *pgxpool.Pool
		exports *handlers.ExportQueue
	)
	if cfg.ExportsEnabled() {
		pool, err = postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to migrate", zap.Error(err))
		}
		logger.Info("connected to database")

		repo := session.NewExportRepository(pool, cfg.ExportTopic, logger)
		wcfg := workerpool.DefaultConfig()
		wcfg.Workers = cfg.ExportWorkers
		wcfg.QueueSize = cfg.ExportQueueSize

		exports, err = handlers.NewExportQueue(repo, wcfg, m, logger)
		if err != nil {
			logger.Fatal("failed to create export queue", zap.Error(err))
		}
		exports.Start()
		defer exports.Stop()
	} else {
		logger.Warn("DATABASE_URL not set, exports will not be stored")
	}

	sessionHandler := handlers.NewSessionHandler(store, exports, m, logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Metrics(m.RequestDuration))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				http.Error(w, "database not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if exports != nil && !exports.Healthy() {
			http.Error(w, "export queue saturated", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler(reg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKeys()))
		r.Mount("/sessions", sessionHandler.Routes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting SOAP API",
		zap.String("port", cfg.Port),
		zap.Bool("exports", cfg.ExportsEnabled()),
		zap.Duration("session_ttl", cfg.SessionTTL))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":%q,"version":%q}`, serviceName, serviceVersion)
}
