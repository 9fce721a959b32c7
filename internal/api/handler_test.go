package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shekarbharathi/bank-fdic-v1/internal/auth"
	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
	"github.com/shekarbharathi/bank-fdic-v1/internal/config"
	"github.com/shekarbharathi/bank-fdic-v1/internal/ingest"
	"github.com/shekarbharathi/bank-fdic-v1/internal/nl2sql"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("fdicchat-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	return cfg
}

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

type fakeChatService struct {
	answer nl2sql.Answer
	err    error
}

func (f *fakeChatService) Answer(context.Context, string) (nl2sql.Answer, error) {
	return f.answer, f.err
}

func (f *fakeChatService) ProviderName() string { return "openai" }

type fakeSchemaSource struct {
	info bankdata.SchemaInfo
	err  error
}

func (f *fakeSchemaSource) Info(context.Context) (bankdata.SchemaInfo, error) {
	return f.info, f.err
}

type fakeIngestRunner struct {
	status  ingest.Status
	runErr  error
	started chan struct{}
}

func (f *fakeIngestRunner) Run(context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	return f.runErr
}

func (f *fakeIngestRunner) Status() ingest.Status { return f.status }

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{Chat: &fakeChatService{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("status field = %v", payload["status"])
	}
	if payload["llm_provider"] != "openai" {
		t.Fatalf("llm_provider = %v", payload["llm_provider"])
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{
		Readiness: func(context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["error_code"] != "NOT_READY" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
	if payload["retryable"] != true {
		t.Fatalf("retryable = %v", payload["retryable"])
	}
}

func TestReadyEndpointSucceedsWithoutChecks(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCombineReadinessChecksStopsOnFirstFailure(t *testing.T) {
	calls := 0
	failing := func(context.Context) error {
		calls++
		return errors.New("boom")
	}
	never := func(context.Context) error {
		t.Fatal("check after a failure should not run")
		return nil
	}

	combined := CombineReadinessChecks(nil, failing, never)
	if err := combined(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{
		Schema: &fakeSchemaSource{info: bankdata.SchemaInfo{
			Tables: []bankdata.TableInfo{{Name: "institutions"}},
		}},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var info bankdata.SchemaInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(info.Tables) != 1 || info.Tables[0].Name != "institutions" {
		t.Fatalf("unexpected schema payload: %+v", info)
	}
}

func TestSchemaEndpointReportsFailure(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{
		Schema: &fakeSchemaSource{err: errors.New("db unreachable")},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestIngestRunStartsAsyncRun(t *testing.T) {
	runner := &fakeIngestRunner{started: make(chan struct{})}
	h := NewHandler(testConfig(t), Dependencies{Ingest: runner})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ingest/run", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("run was not started")
	}
}

func TestIngestRunRejectsOverlap(t *testing.T) {
	runner := &fakeIngestRunner{status: ingest.Status{Running: true}}
	h := NewHandler(testConfig(t), Dependencies{Ingest: runner})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ingest/run", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["error_code"] != "INGEST_RUNNING" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
}

func TestIngestStatusEndpoint(t *testing.T) {
	runner := &fakeIngestRunner{status: ingest.Status{Institutions: 42}}
	h := NewHandler(testConfig(t), Dependencies{Ingest: runner})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ingest/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var status ingest.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if status.Institutions != 42 {
		t.Fatalf("institutions = %d", status.Institutions)
	}
}

func TestIngestEndpointsRequireAuthWhenConfigured(t *testing.T) {
	validator, err := auth.NewStaticAPIKeyValidator("ops-key:ops:ingest")
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := &fakeIngestRunner{started: make(chan struct{})}
	h := NewHandler(testConfig(t), Dependencies{
		Ingest:         runner,
		AuthMiddleware: auth.Middleware(logger, validator, auth.RoleIngest),
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ingest/run", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/run", nil)
	req.Header.Set("X-API-Key", "ops-key")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("authenticated status = %d", rr.Code)
	}
	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("ingest run did not start")
	}

	// Chat stays open even when ingest is key protected.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/chat", nil))
	if rr.Code == http.StatusUnauthorized {
		t.Fatal("chat endpoint should not require an api key")
	}
}

func TestUnconfiguredDependenciesReturn503(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/chat"},
		{http.MethodGet, "/v1/schema"},
		{http.MethodPost, "/v1/ingest/run"},
		{http.MethodGet, "/v1/ingest/status"},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s status = %d", tc.method, tc.path, rr.Code)
		}
	}
}
