package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata/postgres"
	"github.com/shekarbharathi/bank-fdic-v1/internal/config"
	"github.com/shekarbharathi/bank-fdic-v1/internal/ingest"
	"github.com/shekarbharathi/bank-fdic-v1/internal/observability"
	s3store "github.com/shekarbharathi/bank-fdic-v1/internal/storage/s3"
)

// One-shot incremental ingest pass, intended to run from cron or a
// scheduled job.
func main() {
	cfg, err := config.LoadFromEnv("fdicchat-ingest")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	db, err := postgres.Open(context.Background(), postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var archiver *ingest.Archiver
	if cfg.ObjectStore.Enabled {
		store, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = ingest.NewArchiver(store)
	}

	client, err := ingest.NewClient(ingest.ClientConfig{
		BaseURL:   cfg.Ingest.BaseURL,
		APIKey:    cfg.Ingest.APIKey,
		PageLimit: cfg.Ingest.PageLimit,
		PageDelay: cfg.Ingest.PageDelay,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize ingest client", slog.Any("error", err))
		os.Exit(1)
	}

	svc := ingest.NewService(
		client,
		ingest.NewLoader(db, cfg.Ingest.BatchSize),
		archiver,
		cfg.Ingest.StateFile,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		logger.Error("ingest run failed", slog.Any("error", err))
		os.Exit(1)
	}

	status := svc.Status()
	logger.Info("ingest run complete",
		slog.Int("institutions", status.Institutions),
		slog.Int("financials", status.Financials),
		slog.Int("failures", status.Failures),
		slog.String("duration", status.Duration))
}
