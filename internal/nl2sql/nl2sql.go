// Package nl2sql turns natural-language questions about FDIC bank data
// into validated PostgreSQL queries via a configurable LLM provider.
package nl2sql

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// Low temperature keeps SQL generation deterministic across retries.
	generationTemperature = 0.1
	maxOutputTokens       = 500

	systemPrompt = "You are a SQL expert. Generate only SQL queries, no explanations."
)

// Provider generates raw model output for an assembled prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig selects and parameterizes a single LLM backend.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "local", "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}
