package correct

import (
	"log/slog"
	"time"
)

// Default orchestrator settings.
const (
	DefaultBatchSize      = 15
	DefaultMaxConcurrency = 8
	DefaultBatchTimeout   = 60 * time.Second
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMinInterval    = 400 * time.Millisecond
)

// Options configures an Orchestrator.
type Options struct {
	// BatchSize is the number of cell texts sent per backend call.
	BatchSize int
	// MaxConcurrency bounds the backend calls in flight across every grid
	// handled by the orchestrator.
	MaxConcurrency int
	// BatchTimeout bounds a single backend call.
	BatchTimeout time.Duration
	// MaxRetries is the number of extra attempts for a retryable failure.
	MaxRetries int
	// InitialBackoff is the first retry delay; later delays double.
	InitialBackoff time.Duration
	// MinInterval spaces out call starts. Zero disables pacing.
	MinInterval time.Duration
	Logger      *slog.Logger
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BatchSize:      DefaultBatchSize,
		MaxConcurrency: DefaultMaxConcurrency,
		BatchTimeout:   DefaultBatchTimeout,
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MinInterval:    DefaultMinInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = DefaultBatchTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = DefaultInitialBackoff
	}
	if o.MinInterval < 0 {
		o.MinInterval = 0
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
