// Package api exposes the chat pipeline, schema inspection, and ingest
// control over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
	"github.com/shekarbharathi/bank-fdic-v1/internal/config"
	"github.com/shekarbharathi/bank-fdic-v1/internal/ingest"
	"github.com/shekarbharathi/bank-fdic-v1/internal/nl2sql"
	"github.com/shekarbharathi/bank-fdic-v1/internal/observability"
)

type ReadinessCheck func(ctx context.Context) error

// ChatService answers natural-language questions about the bank dataset.
type ChatService interface {
	Answer(ctx context.Context, question string) (nl2sql.Answer, error)
	ProviderName() string
}

// SchemaSource reports the live database schema.
type SchemaSource interface {
	Info(ctx context.Context) (bankdata.SchemaInfo, error)
}

// IngestRunner triggers and reports FDIC data ingestion runs.
type IngestRunner interface {
	Run(ctx context.Context) error
	Status() ingest.Status
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Chat              ChatService
	Schema            SchemaSource
	Ingest            IngestRunner

	// AuthMiddleware, when set, guards the ingest control endpoints.
	AuthMiddleware func(http.Handler) http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		payload := map[string]any{"status": "ok", "service": cfg.Service.Name}
		if deps.Chat != nil {
			payload["llm_provider"] = deps.Chat.ProviderName()
		}
		writeJSON(w, http.StatusOK, payload)
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/chat", func(w http.ResponseWriter, r *http.Request) {
		handleChat(deps, w, r)
	})
	mux.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		handleSchema(deps, w, r)
	})
	protect := func(h http.Handler) http.Handler {
		if deps.AuthMiddleware == nil {
			return h
		}
		return deps.AuthMiddleware(h)
	}
	mux.Handle("POST /v1/ingest/run", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleIngestRun(deps, w, r)
	})))
	mux.Handle("GET /v1/ingest/status", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleIngestStatus(deps, w, r)
	})))

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
