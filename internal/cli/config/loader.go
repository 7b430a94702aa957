package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/sheetproof/internal/correct"
	"github.com/leapstack-labs/sheetproof/internal/workbook"
)

// loggerKey is the context key of the command logger.
type loggerKey struct{}

// EnvPrefix is the prefix of environment variables read as configuration.
// A double underscore separates nested keys: SHEETPROOF_LLM__API_KEY -> llm.api_key.
const EnvPrefix = "SHEETPROOF_"

// maxUpwardSearchLevels bounds the parent directories visited when looking for a config file.
const maxUpwardSearchLevels = 10

// configNames lists the config file names in lookup order.
var configNames = []string{
	DefaultConfigName + ".yaml",
	DefaultConfigName + ".yml",
	DefaultConfigName + ".toml",
}

// flagKeys maps CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"state":    "state_path",
	"provider": "llm.provider",
	"model":    "llm.model",
}

// State of the last load.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// defaults returns the default configuration values.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"state_path":                 DefaultStateFile,
		"verbose":                    false,
		"output":                     DefaultOutput,
		"log_format":                 DefaultLogFormat,
		"correction.batch_size":      correct.DefaultBatchSize,
		"correction.max_concurrency": correct.DefaultMaxConcurrency,
		"correction.batch_timeout":   correct.DefaultBatchTimeout,
		"correction.max_retries":     correct.DefaultMaxRetries,
		"correction.initial_backoff": correct.DefaultInitialBackoff,
		"correction.min_interval":    correct.DefaultMinInterval,
		"workbook.lock_timeout":      workbook.DefaultLockTimeout,
		"llm.provider":               DefaultProvider,
	}
}

// configIn returns the config file in dir, or "" if there is none.
func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
// It gives up after maxUpwardSearchLevels directories.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// parserFor picks the koanf parser from the file extension.
func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Parser()
	}
	return yaml.Parser()
}

// resolvePathRelativeTo joins a relative path onto baseDir. Empty,
// in-memory and absolute paths are returned as is.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// envKey transforms SHEETPROOF_LLM__API_KEY into llm.api_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// ResetConfig forgets the last load. Tests call it between runs.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig merges defaults, the config file, SHEETPROOF_ environment
// variables and explicitly set flags, later sources winning, then
// validates the result.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, explicit or searched upward from the working directory
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	configFileUsed = cfgFile
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), parserFor(configFileUsed)); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	var flagStatePath string
	if flags != nil {
		if flags.Lookup("state") != nil && flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" && v != ":memory:" {
				flagStatePath, _ = filepath.Abs(v)
			}
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Decode
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve paths and expand secrets
	cfg.ProjectRoot = projectRoot
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = expandEnvVars(cfg.LLM.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the config file of the last load, or "".
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the result of the last successful LoadConfig, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key the root command stores its logger under.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger returns the command logger from ctx, or a discarding logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the value of VAR. Unset variables are
// left in place.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
