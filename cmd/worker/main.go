package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supporthq/ticket-enrichment-platform/internal/analytics"
	"github.com/supporthq/ticket-enrichment-platform/internal/enrich"
	"github.com/supporthq/ticket-enrichment-platform/internal/ml"
	"github.com/supporthq/ticket-enrichment-platform/internal/store"
	"github.com/supporthq/ticket-enrichment-platform/internal/worker"
	"github.com/supporthq/ticket-enrichment-platform/pkg/blobstore"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
	"github.com/supporthq/ticket-enrichment-platform/pkg/health"
	"github.com/supporthq/ticket-enrichment-platform/pkg/kafka"
	"github.com/supporthq/ticket-enrichment-platform/pkg/logger"
	"github.com/supporthq/ticket-enrichment-platform/pkg/metrics"
	"github.com/supporthq/ticket-enrichment-platform/pkg/postgres"
	"github.com/supporthq/ticket-enrichment-platform/pkg/queue"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ticket worker", "consumer", cfg.Queue.Consumer)

	models, err := ml.New(cfg.Models)
	if err != nil {
		slog.Error("failed to initialize models", "error", err)
		os.Exit(1)
	}
	if err := models.Preload(); err != nil {
		slog.Error("model warm-up failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := queue.New(ctx, cfg.Queue)
	if err != nil {
		slog.Error("failed to connect to queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	objects, err := blobstore.New(cfg.ObjectStore)
	if err != nil {
		slog.Error("failed to connect to object store", "error", err)
		os.Exit(1)
	}
	defer objects.Close()

	pg, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	rows := store.NewPostgresRows(pg.DB, cfg.Postgres.Table)
	if err := rows.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure ticket table", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	results := store.New(objects, rows, cfg.ObjectStore.EnrichedBucket, m)
	pipeline := enrich.New(models)

	var tracker worker.EventTracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.ResultsTopic)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000, m)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
	}

	checker := health.NewChecker()
	checker.Register("queue", health.PingCheck(q.Ping))
	checker.Register("object_store", health.PingCheck(objects.Ping))
	checker.Register("postgres", health.PingCheck(pg.Ping))

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, map[string]http.Handler{
			"/health/live":  health.LiveHandler(),
			"/health/ready": checker.ReadyHandler(),
		})
	}

	stats := worker.NewStats()
	w := worker.New(q, objects, pipeline, results, tracker, stats, m,
		cfg.Queue, cfg.Worker, cfg.ObjectStore)

	err = w.RunForever(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker loop exited", "error", err)
	}

	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}

	stats.Report(slog.Default(), "final worker statistics")
	slog.Info("ticket worker stopped")
}
