package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"duoadmin/config"
	"duoadmin/infrastructure/persistence/mysql"
	"duoadmin/infrastructure/persistence/retry"
	"duoadmin/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Worker startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := parseConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Audit.Type != "mysql" || !cfg.Audit.Prune.Enabled {
		logger.Info("Audit pruning is disabled by config; exiting")
		return nil
	}

	db, err := mysql.FromAppConfig(cfg.Audit.Database).Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	pruner, err := mysql.NewAuditPruner(
		mysql.NewAuditRepository(db, retry.FromConfig(cfg.Audit.Database.Retry)),
		cfg.Audit.Prune.Retention,
		cfg.Audit.Prune.Interval,
		cfg.Audit.Prune.BatchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit pruner: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Audit pruner started",
		zap.Duration("retention", cfg.Audit.Prune.Retention),
		zap.Duration("interval", cfg.Audit.Prune.Interval),
		zap.Int("batch_size", cfg.Audit.Prune.BatchSize),
	)

	if err := pruner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("audit pruner exited with error: %w", err)
	}

	logger.Info("Audit pruner stopped")
	return nil
}

func parseConfigPath() string {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()
	return configPath
}
