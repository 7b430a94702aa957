// Package config provides configuration management for the sheetproof CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/sheetproof/internal/correct"
	"github.com/leapstack-labs/sheetproof/internal/llm"
	"github.com/leapstack-labs/sheetproof/internal/workbook"
)

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string           `koanf:"state_path"`
	Verbose      bool             `koanf:"verbose"`
	OutputFormat string           `koanf:"output"`
	LogFormat    string           `koanf:"log_format"`
	Correction   CorrectionConfig `koanf:"correction"`
	Workbook     WorkbookConfig   `koanf:"workbook"`
	LLM          LLMConfig        `koanf:"llm"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// CorrectionConfig tunes the batched correction pass.
type CorrectionConfig struct {
	BatchSize      int           `koanf:"batch_size"`
	MaxConcurrency int           `koanf:"max_concurrency"`
	BatchTimeout   time.Duration `koanf:"batch_timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MinInterval    time.Duration `koanf:"min_interval"`
}

// WorkbookConfig holds settings for writing workbooks.
type WorkbookConfig struct {
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

// LLMConfig selects the language model behind the correction backend.
type LLMConfig struct {
	Provider   string `koanf:"provider"`
	Model      string `koanf:"model"`
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	APIVersion string `koanf:"api_version"`
	MaxTokens  int    `koanf:"max_tokens"`
}

// Output formats.
const (
	OutputTable    = "table"
	OutputJSON     = "json"
	OutputMarkdown = "markdown"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration values.
const (
	DefaultStateFile  = ".sheetproof/history.db"
	DefaultOutput     = OutputTable
	DefaultLogFormat  = LogFormatText
	DefaultProvider   = llm.ProviderOpenAI
	DefaultConfigName = "sheetproof"
)

// CorrectionOptions converts the correction settings to orchestrator options.
func (c *Config) CorrectionOptions() correct.Options {
	return correct.Options{
		BatchSize:      c.Correction.BatchSize,
		MaxConcurrency: c.Correction.MaxConcurrency,
		BatchTimeout:   c.Correction.BatchTimeout,
		MaxRetries:     c.Correction.MaxRetries,
		InitialBackoff: c.Correction.InitialBackoff,
		MinInterval:    c.Correction.MinInterval,
	}
}

// ClientConfig converts the llm settings to a client configuration.
func (c *Config) ClientConfig() *llm.Config {
	return &llm.Config{
		Provider:   c.LLM.Provider,
		Model:      c.LLM.Model,
		APIKey:     c.LLM.APIKey,
		BaseURL:    c.LLM.BaseURL,
		APIVersion: c.LLM.APIVersion,
		MaxTokens:  c.LLM.MaxTokens,
	}
}

// LockTimeout returns the workbook lock timeout, falling back to the default.
func (c *Config) LockTimeout() time.Duration {
	if c.Workbook.LockTimeout <= 0 {
		return workbook.DefaultLockTimeout
	}
	return c.Workbook.LockTimeout
}
