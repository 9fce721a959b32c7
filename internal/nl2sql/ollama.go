package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server. No credentials required.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(cfg ProviderConfig) (*OllamaProvider, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "llama2"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (p *OllamaProvider) Name() string { return "local" }

func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  p.model,
		"prompt": systemPrompt + "\n\n" + prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": generationTemperature,
			"num_predict": maxOutputTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", providerErr(p.Name(), fmt.Errorf("marshal generate payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", providerErr(p.Name(), fmt.Errorf("build generate request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", providerErr(p.Name(), fmt.Errorf("request generation: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", providerErr(p.Name(), fmt.Errorf("read generate response body: %w", err))
	}
	if resp.StatusCode >= 400 {
		return "", providerErr(p.Name(), fmt.Errorf("generation failed status=%d body=%s", resp.StatusCode, truncateBody(rawBody)))
	}

	var parsed struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return "", providerErr(p.Name(), fmt.Errorf("decode generate response: %w", err))
	}
	if parsed.Error != "" {
		return "", providerErr(p.Name(), fmt.Errorf("ollama error: %s", parsed.Error))
	}
	return strings.TrimSpace(parsed.Response), nil
}
