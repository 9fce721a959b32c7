package nl2sql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

func TestNewProviderSelection(t *testing.T) {
	cases := []struct {
		provider string
		apiKey   string
		wantName string
	}{
		{"openai", "sk-test", "openai"},
		{"OpenAI", "sk-test", "openai"},
		{"anthropic", "sk-ant", "anthropic"},
		{"local", "", "local"},
		{"ollama", "", "local"},
	}
	for _, tc := range cases {
		p, err := NewProvider(ProviderConfig{Provider: tc.provider, APIKey: tc.apiKey})
		if err != nil {
			t.Fatalf("NewProvider(%q) failed: %v", tc.provider, err)
		}
		if p.Name() != tc.wantName {
			t.Fatalf("NewProvider(%q).Name() = %q, want %q", tc.provider, p.Name(), tc.wantName)
		}
	}
}

func TestNewProviderRejectsUnknownBackend(t *testing.T) {
	if _, err := NewProvider(ProviderConfig{Provider: "bedrock"}); err == nil {
		t.Fatal("unknown provider accepted")
	}
}

func TestNewProviderRequiresAPIKeyForHostedBackends(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic"} {
		if _, err := NewProvider(ProviderConfig{Provider: provider}); err == nil {
			t.Fatalf("%s accepted without api key", provider)
		}
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "\n  SELECT 1\n"}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}

	out, err := p.Generate(context.Background(), "show me banks")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "SELECT 1" {
		t.Fatalf("output = %q, want trimmed content", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if captured.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", captured.Model)
	}
	if captured.Temperature != 0.1 || captured.MaxTokens != 500 {
		t.Fatalf("sampling params = %v / %d", captured.Temperature, captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	if captured.Messages[1].Content != "show me banks" {
		t.Fatalf("user message = %q", captured.Messages[1].Content)
	}
}

func TestOpenAIGenerateWrapsHTTPFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}

	_, err = p.Generate(context.Background(), "q")
	var providerErr *bankdata.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T", err)
	}
	if providerErr.Provider != "openai" {
		t.Fatalf("provider = %q", providerErr.Provider)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error = %v", err)
	}
}

func TestOpenAIGenerateRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	if _, err := p.Generate(context.Background(), "q"); err == nil {
		t.Fatal("empty choices accepted")
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var captured struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var gotKey, gotVersion string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": " SELECT 2\n"},
			},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "sk-ant", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	out, err := p.Generate(context.Background(), "show me banks")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "SELECT 2" {
		t.Fatalf("output = %q", out)
	}
	if gotKey != "sk-ant" || gotVersion != "2023-06-01" {
		t.Fatalf("headers = %q / %q", gotKey, gotVersion)
	}
	if captured.Model != "claude-3-opus-20240229" {
		t.Fatalf("model = %q", captured.Model)
	}
	if captured.System == "" {
		t.Fatal("system prompt missing")
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
}

func TestOllamaGenerate(t *testing.T) {
	var captured struct {
		Model   string         `json:"model"`
		Prompt  string         `json:"prompt"`
		Stream  bool           `json:"stream"`
		Options map[string]any `json:"options"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "SELECT 3\n"})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	out, err := p.Generate(context.Background(), "show me banks")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "SELECT 3" {
		t.Fatalf("output = %q", out)
	}
	if captured.Model != "llama2" {
		t.Fatalf("model = %q", captured.Model)
	}
	if captured.Stream {
		t.Fatal("streaming should be disabled")
	}
	if !strings.Contains(captured.Prompt, "show me banks") {
		t.Fatalf("prompt = %q", captured.Prompt)
	}
	if captured.Options["num_predict"].(float64) != 500 {
		t.Fatalf("num_predict = %v", captured.Options["num_predict"])
	}
}

func TestOllamaGenerateSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	_, err = p.Generate(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("error = %v", err)
	}
}
