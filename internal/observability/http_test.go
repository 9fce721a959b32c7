package observability

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shekarbharathi/bank-fdic-v1/internal/config"
)

func captureLogger(t *testing.T, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Load("fdicchat-api", func(key string) (string, bool) {
		if key == "FDICCHAT_LOG_LEVEL" {
			return level.String(), true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	var buf bytes.Buffer
	return NewLogger(cfg, &buf), &buf
}

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/chat", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestTraceIDContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
}

func TestLoggerStampsTraceIDFromContext(t *testing.T) {
	logger, buf := captureLogger(t, slog.LevelInfo)

	ctx := ContextWithTraceID(context.Background(), "trace-42")
	logger.InfoContext(ctx, "query executed")

	if !strings.Contains(buf.String(), `"trace_id":"trace-42"`) {
		t.Fatalf("log record missing trace id: %s", buf.String())
	}
}

func TestLoggerOmitsTraceIDWithoutContextValue(t *testing.T) {
	logger, buf := captureLogger(t, slog.LevelInfo)

	logger.Info("ingest pass complete")

	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("unexpected trace id attr: %s", buf.String())
	}
}

func TestLoggingMiddlewareRecordsChatRequests(t *testing.T) {
	logger, buf := captureLogger(t, slog.LevelInfo)
	h := TraceMiddleware(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", nil)
	req.Header.Set(traceHeader, "trace-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	if !strings.Contains(line, `"path":"/v1/chat"`) || !strings.Contains(line, `"status":202`) {
		t.Fatalf("request log = %s", line)
	}
	if !strings.Contains(line, `"trace_id":"trace-7"`) {
		t.Fatalf("request log missing trace id: %s", line)
	}
}

func TestLoggingMiddlewareDemotesProbeRequests(t *testing.T) {
	logger, buf := captureLogger(t, slog.LevelInfo)
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/v1/health", "/v1/ready", "/v1/metrics"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if buf.Len() != 0 {
		t.Fatalf("probe requests logged at info: %s", buf.String())
	}

	debugLogger, debugBuf := captureLogger(t, slog.LevelDebug)
	h = LoggingMiddleware(debugLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if !strings.Contains(debugBuf.String(), `"path":"/v1/health"`) {
		t.Fatalf("probe request not logged at debug: %s", debugBuf.String())
	}
}

func TestPathLabelPinsUnknownRoutes(t *testing.T) {
	if got := pathLabel("/v1/chat"); got != "/v1/chat" {
		t.Fatalf("pathLabel(/v1/chat) = %q", got)
	}
	if got := pathLabel("/v1/chat/../../etc/passwd"); got != "other" {
		t.Fatalf("pathLabel(unknown) = %q", got)
	}
}
