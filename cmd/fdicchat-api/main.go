package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shekarbharathi/bank-fdic-v1/internal/api"
	"github.com/shekarbharathi/bank-fdic-v1/internal/auth"
	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata/postgres"
	"github.com/shekarbharathi/bank-fdic-v1/internal/config"
	"github.com/shekarbharathi/bank-fdic-v1/internal/ingest"
	"github.com/shekarbharathi/bank-fdic-v1/internal/nl2sql"
	"github.com/shekarbharathi/bank-fdic-v1/internal/observability"
	"github.com/shekarbharathi/bank-fdic-v1/internal/schema"
	"github.com/shekarbharathi/bank-fdic-v1/internal/sqlguard"
	s3store "github.com/shekarbharathi/bank-fdic-v1/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("fdicchat-api")
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

	store := postgres.NewStore(db, postgres.Config{
		StatementTimeout: cfg.Query.StatementTimeout,
		MaxRows:          cfg.Query.MaxRows,
	})
	schemaBuilder := schema.NewBuilder(store)

	provider, err := nl2sql.NewProvider(nl2sql.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize llm provider", slog.Any("error", err))
		os.Exit(1)
	}

	validator := sqlguard.NewValidator(sqlguard.DefaultAllowedTables)
	chatService := nl2sql.NewService(provider, nl2sql.NewAssembler(schemaBuilder), validator, store, logger)

	var archiver *ingest.Archiver
	if cfg.ObjectStore.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
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
		archiver = ingest.NewArchiver(objectStore)
	}

	ingestClient, err := ingest.NewClient(ingest.ClientConfig{
		BaseURL:   cfg.Ingest.BaseURL,
		APIKey:    cfg.Ingest.APIKey,
		PageLimit: cfg.Ingest.PageLimit,
		PageDelay: cfg.Ingest.PageDelay,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize ingest client", slog.Any("error", err))
		os.Exit(1)
	}
	ingestService := ingest.NewService(
		ingestClient,
		ingest.NewLoader(db, cfg.Ingest.BatchSize),
		archiver,
		cfg.Ingest.StateFile,
		logger,
	)

	deps := api.Dependencies{
		Logger:            logger,
		Chat:              chatService,
		Schema:            schemaBuilder,
		Ingest:            ingestService,
		Readiness:         api.CombineReadinessChecks(store.HealthCheck),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		keyValidator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static api keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, keyValidator, auth.RoleIngest)
	}

	handler := api.NewHandler(cfg, deps)

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("llm_provider", chatService.ProviderName()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
