package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/supporthq/ticket-enrichment-platform/internal/generator"
	"github.com/supporthq/ticket-enrichment-platform/pkg/blobstore"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
	"github.com/supporthq/ticket-enrichment-platform/pkg/logger"
	"github.com/supporthq/ticket-enrichment-platform/pkg/queue"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	count := flag.Int("count", 0, "number of tickets to generate (0 = run until interrupted)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *count > 0 {
		cfg.Generator.Count = *count
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ticket generator",
		"count", cfg.Generator.Count,
		"interval", cfg.Generator.Interval.String(),
		"bucket", cfg.ObjectStore.RawBucket,
	)

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

	gen := generator.New(objects, q, cfg.Generator, cfg.ObjectStore.RawBucket)
	produced, err := gen.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("generator stopped with error", "error", err, "tickets_generated", produced)
		os.Exit(1)
	}

	slog.Info("generator stopped", "tickets_generated", produced)
}
