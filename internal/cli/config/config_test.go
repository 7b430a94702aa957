package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sheetproof/internal/correct"
	"github.com/leapstack-labs/sheetproof/internal/llm"
	"github.com/leapstack-labs/sheetproof/internal/workbook"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("state", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.StringP("output", "o", "", "")
	flags.String("provider", "", "")
	flags.String("model", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, OutputTable, cfg.OutputFormat)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, correct.DefaultOptions().BatchSize, cfg.Correction.BatchSize)
	assert.Equal(t, correct.DefaultBatchTimeout, cfg.Correction.BatchTimeout)
	assert.Equal(t, correct.DefaultMinInterval, cfg.Correction.MinInterval)
	assert.Equal(t, workbook.DefaultLockTimeout, cfg.LockTimeout())
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SHEETPROOF_TEST_KEY", "secret-key")
	writeFile(t, filepath.Join(dir, "sheetproof.yaml"), `
state_path: data/history.db
output: json
correction:
  batch_size: 5
  max_concurrency: 2
  batch_timeout: 30s
  min_interval: 0s
workbook:
  lock_timeout: 3s
llm:
  provider: Claude
  model: claude-3-5-haiku-latest
  api_key: ${SHEETPROOF_TEST_KEY}
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sheetproof.yaml"), GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "data", "history.db"), cfg.StatePath)
	assert.Equal(t, OutputJSON, cfg.OutputFormat)
	assert.Equal(t, 5, cfg.Correction.BatchSize)
	assert.Equal(t, 2, cfg.Correction.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Correction.BatchTimeout)
	assert.Zero(t, cfg.Correction.MinInterval)
	assert.Equal(t, correct.DefaultMaxRetries, cfg.Correction.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.LockTimeout())
	assert.Equal(t, llm.ProviderClaude, cfg.LLM.Provider)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)

	opts := cfg.CorrectionOptions()
	assert.Equal(t, 5, opts.BatchSize)
	assert.Equal(t, 30*time.Second, opts.BatchTimeout)

	client := cfg.ClientConfig()
	assert.Equal(t, "claude-3-5-haiku-latest", client.Model)
	assert.Equal(t, "secret-key", client.APIKey)
}

func TestLoadConfig_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "sheetproof.toml"), `
output = "markdown"

[llm]
provider = "ollama"
model = "llama3"
base_url = "http://gpu-box:11434"
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, OutputMarkdown, cfg.OutputFormat)
	assert.Equal(t, llm.ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", cfg.LLM.BaseURL)
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sheetproof.yml"), "output: markdown\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, OutputMarkdown, cfg.OutputFormat)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "verbose: true\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, GetConfigFileUsed())

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "sheetproof.yaml"), `
output: json
correction:
  batch_size: 5
llm:
  provider: gemini
  model: from-file
`)
	t.Setenv("SHEETPROOF_CORRECTION__BATCH_SIZE", "7")
	t.Setenv("SHEETPROOF_LLM__MODEL", "from-env")
	t.Setenv("SHEETPROOF_OUTPUT", "markdown")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--model", "from-flag", "--state", "flag.db", "-v"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Correction.BatchSize, "env overrides file")
	assert.Equal(t, OutputMarkdown, cfg.OutputFormat, "env overrides file")
	assert.Equal(t, "from-flag", cfg.LLM.Model, "flag overrides env")
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider, "unset flag keeps file value")
	assert.Equal(t, filepath.Join(dir, "flag.db"), cfg.StatePath)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_MemoryState(t *testing.T) {
	t.Chdir(t.TempDir())
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--state", ":memory:"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "sheetproof.yaml"), "llm:\n  provider: watson\n")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			OutputFormat: OutputTable,
			LogFormat:    LogFormatText,
			Correction:   CorrectionConfig{BatchSize: 15, MaxConcurrency: 8},
			LLM:          LLMConfig{Provider: llm.ProviderOpenAI},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero batch size", mutate: func(c *Config) { c.Correction.BatchSize = 0 }, errSubstr: "batch_size"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Correction.MaxConcurrency = 0 }, errSubstr: "max_concurrency"},
		{name: "negative retries", mutate: func(c *Config) { c.Correction.MaxRetries = -1 }, errSubstr: "max_retries"},
		{name: "negative timeout", mutate: func(c *Config) { c.Correction.BatchTimeout = -time.Second }, errSubstr: "durations"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "watson" }, errSubstr: "available: openai"},
		{name: "unknown output", mutate: func(c *Config) { c.OutputFormat = "yaml" }, errSubstr: "output format"},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, errSubstr: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SHEETPROOF_TEST_HOST", "example.com")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"https://${SHEETPROOF_TEST_HOST}/v1", "https://example.com/v1"},
		{"${SHEETPROOF_TEST_UNSET}", "${SHEETPROOF_TEST_UNSET}"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVars(tt.in), tt.in)
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "llm.api_key", envKey("SHEETPROOF_LLM__API_KEY"))
	assert.Equal(t, "state_path", envKey("SHEETPROOF_STATE_PATH"))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
