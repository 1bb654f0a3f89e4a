package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"feedflow/internal/config"
	"feedflow/internal/db"
	"feedflow/internal/logging"
	"feedflow/internal/metrics"
	"feedflow/internal/services"
	"feedflow/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	seed := flag.Bool("seed", false, "insert demo users, posts and reactions after migrating")
	status := flag.Bool("status", false, "print migration status (goose migrator only) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *seed, *status); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, seed, status bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}()

	if status {
		if cfg.Database.Migrator != config.MigratorGoose {
			return fmt.Errorf("-status needs DB_MIGRATOR=%s", config.MigratorGoose)
		}
		return db.GooseStatus(ctx, gdb)
	}

	if err := db.Migrate(ctx, gdb, cfg.Database, logger); err != nil {
		return err
	}
	if !seed {
		return nil
	}

	files, err := storage.NewLocalStore(cfg.Storage.MediaRoot)
	if err != nil {
		return err
	}
	svc := services.New(gdb, files, logger, services.Options{
		BcryptCost: cfg.Security.BcryptCost,
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
	})
	return seedDemo(ctx, svc, logger)
}
