// Package commands implements the sheetproof CLI commands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sheetproof/internal/cli/config"
	"github.com/leapstack-labs/sheetproof/internal/engine"
)

// CommandContext holds common resources for command execution.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
	Out    io.Writer
}

// NewCommandContext creates a CommandContext with an engine.
// The returned cleanup function closes the engine.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", "error", err)
		}
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: eng,
		Out:    cmd.OutOrStdout(),
	}, cleanup, nil
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{
			StatePath:    config.DefaultStateFile,
			OutputFormat: config.DefaultOutput,
			LogFormat:    config.DefaultLogFormat,
			LLM:          config.LLMConfig{Provider: config.DefaultProvider},
		}
	}
	return cfg
}

// newEngine builds the engine for a command. Tests replace it to inject a
// correction backend.
var newEngine = createEngine

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	// Ensure state directory exists
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	llmCfg := cfg.ClientConfig()
	llmCfg.Logger = logger

	return engine.New(engine.Config{
		StatePath:   cfg.StatePath,
		LLM:         llmCfg,
		Correction:  cfg.CorrectionOptions(),
		LockTimeout: cfg.LockTimeout(),
		Logger:      logger,
	})
}

// sheetFlag reads the required --sheet flag.
func sheetFlag(cmd *cobra.Command) (string, error) {
	sheet, _ := cmd.Flags().GetString("sheet")
	if sheet == "" {
		return "", fmt.Errorf("--sheet is required")
	}
	return sheet, nil
}
