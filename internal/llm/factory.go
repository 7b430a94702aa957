package llm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultMaxTokens = 4096
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3.1",
	ProviderClaude: "claude-3-5-haiku-latest",
	ProviderGemini: "gemini-1.5-flash",
}

// NewClient creates the client for cfg.Provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if !slices.Contains(Providers(), provider) {
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModels[provider]
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, model, cfg.BaseURL, maxTokens), nil

	case ProviderAzure:
		if cfg.BaseURL == "" || model == "" {
			return nil, fmt.Errorf("azure provider requires base_url and model (deployment name)")
		}
		return NewAzureClient(cfg.APIKey, model, cfg.BaseURL, cfg.APIVersion, maxTokens), nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		// Ollama ignores the key but the client sends one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		logger.Debug("using ollama via OpenAI-compatible API", "base_url", baseURL)
		return NewOpenAIClient(apiKey, model, baseURL, maxTokens), nil

	case ProviderClaude:
		return NewClaudeClient(cfg.APIKey, model, cfg.BaseURL, maxTokens), nil

	case ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, model, maxTokens)
	}
	return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
}
