package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/sheetproof/internal/llm"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Correction.BatchSize <= 0 {
		return fmt.Errorf("correction.batch_size must be positive, got %d", c.Correction.BatchSize)
	}
	if c.Correction.MaxConcurrency <= 0 {
		return fmt.Errorf("correction.max_concurrency must be positive, got %d", c.Correction.MaxConcurrency)
	}
	if c.Correction.MaxRetries < 0 {
		return fmt.Errorf("correction.max_retries must not be negative, got %d", c.Correction.MaxRetries)
	}
	if c.Correction.BatchTimeout < 0 || c.Correction.InitialBackoff < 0 || c.Correction.MinInterval < 0 {
		return fmt.Errorf("correction durations must not be negative")
	}
	if !slices.Contains(llm.Providers(), c.LLM.Provider) {
		return fmt.Errorf("unknown llm provider %q (available: %s)\nHint: set llm.provider in sheetproof.yaml",
			c.LLM.Provider, strings.Join(llm.Providers(), ", "))
	}
	switch c.OutputFormat {
	case OutputTable, OutputJSON, OutputMarkdown:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or markdown)", c.OutputFormat)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	return nil
}
