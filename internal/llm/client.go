// Package llm provides text generation clients for the supported model
// providers behind a single Client interface.
package llm

import (
	"context"
	"io"
	"log/slog"
)

// Client generates a completion for a single prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Providers lists every supported provider name.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderAzure, ProviderOllama, ProviderClaude, ProviderGemini}
}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	APIVersion string // azure only
	MaxTokens  int
	Logger     *slog.Logger
}

// Close releases the resources held by c, if any.
func Close(c Client) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
