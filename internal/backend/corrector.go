// Package backend adapts a language model into a correction backend for
// the batched orchestrator.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sheetproof/internal/llm"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// LLMCorrector proofreads batches of cell text with a language model.
type LLMCorrector struct {
	client llm.Client
	logger *slog.Logger
}

func NewLLMCorrector(client llm.Client, logger *slog.Logger) *LLMCorrector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LLMCorrector{client: client, logger: logger}
}

// Correct returns one suggestion per text in batch, in order. Transport
// failures are returned as-is; malformed responses are marked fatal.
func (c *LLMCorrector) Correct(ctx context.Context, batch []string) ([]core.Suggestion, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(batch)
	if err != nil {
		return nil, core.Fatal(err)
	}

	raw, err := c.client.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate corrections: %w", err)
	}

	suggestions, err := parseSuggestions(raw, batch)
	if err != nil {
		c.logger.Debug("unusable model response", "texts", len(batch), "response", raw, "error", err)
		return nil, err
	}
	return suggestions, nil
}
