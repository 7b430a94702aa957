// Package engine ties the correction pipeline together: it tracks
// workbooks, runs correction passes over their sheets, stores the results
// and applies accepted corrections back to the files.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/sheetproof/internal/apply"
	"github.com/leapstack-labs/sheetproof/internal/backend"
	"github.com/leapstack-labs/sheetproof/internal/correct"
	"github.com/leapstack-labs/sheetproof/internal/llm"
	"github.com/leapstack-labs/sheetproof/internal/state"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// Engine orchestrates correction passes and reviews.
type Engine struct {
	// Correction backend (lazy initialized from llmConfig unless injected)
	backend      correct.Backend
	llmConfig    *llm.Config
	llmClient    llm.Client
	orchestrator *correct.Orchestrator
	backendMu    sync.Mutex

	correction correct.Options
	applier    *apply.Applier
	store      core.Store
	logger     *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// StatePath is the path to the SQLite history database
	StatePath string
	// Backend corrects batches of text. When nil, one is built from LLM on
	// the first correction pass.
	Backend correct.Backend
	// LLM configures the language model behind the default backend
	LLM *llm.Config
	// Correction tunes batching, concurrency and retries
	Correction correct.Options
	// LockTimeout bounds the wait for the workbook write lock
	LockTimeout time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine and opens its history store. The correction
// backend is only created when a correction pass runs.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine", "state_path", cfg.StatePath)

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	correction := cfg.Correction
	if correction.Logger == nil {
		correction.Logger = logger
	}

	return &Engine{
		backend:    cfg.Backend,
		llmConfig:  cfg.LLM,
		correction: correction,
		applier:    apply.NewApplier(apply.Options{LockTimeout: cfg.LockTimeout, Logger: logger}),
		store:      store,
		logger:     logger,
	}, nil
}

// ensureOrchestrator builds the correction backend and orchestrator on
// first use.
func (e *Engine) ensureOrchestrator(ctx context.Context) (*correct.Orchestrator, error) {
	e.backendMu.Lock()
	defer e.backendMu.Unlock()

	if e.orchestrator != nil {
		return e.orchestrator, nil
	}

	if e.backend == nil {
		if e.llmConfig == nil {
			return nil, fmt.Errorf("no correction backend configured: %w", core.ErrConfiguration)
		}
		cfg := *e.llmConfig
		if cfg.Logger == nil {
			cfg.Logger = e.logger
		}
		e.logger.Debug("creating llm client", "provider", cfg.Provider, "model", cfg.Model)
		client, err := llm.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		e.llmClient = client
		e.backend = backend.NewLLMCorrector(client, e.logger)
	}

	e.orchestrator = correct.New(e.backend, e.correction)
	return e.orchestrator, nil
}

// Store returns the history store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.llmClient != nil {
		if err := llm.Close(e.llmClient); err != nil {
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing engine: %v", errs)
	}
	return nil
}
