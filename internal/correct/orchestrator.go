// Package correct runs the text of a sheet through a correction backend in
// bounded concurrent batches and assembles the corrected grid.
package correct

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// Backend corrects a batch of texts. The result must have the same length
// and order as the input. Errors marked with core.Fatal are not retried.
type Backend interface {
	Correct(ctx context.Context, batch []string) ([]core.Suggestion, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, batch []string) ([]core.Suggestion, error)

// Correct calls f.
func (f BackendFunc) Correct(ctx context.Context, batch []string) ([]core.Suggestion, error) {
	return f(ctx, batch)
}

// SkippedBatch is a batch whose backend call never succeeded. Its cells
// keep their original values.
type SkippedBatch struct {
	Index int
	Cells []core.Coordinate
	Err   error
}

// Result is the outcome of correcting one grid.
type Result struct {
	Grid    core.Grid
	Batches int
	Cells   int
	Skipped []SkippedBatch
}

// SkippedCells returns the number of cells left unchecked.
func (r *Result) SkippedCells() int {
	n := 0
	for _, s := range r.Skipped {
		n += len(s.Cells)
	}
	return n
}

// Orchestrator dispatches correction batches to a Backend. It is safe for
// concurrent use; the concurrency gate and pacing limiter are shared by all
// grids it handles.
type Orchestrator struct {
	backend Backend
	opts    Options
	gate    *semaphore.Weighted
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates an Orchestrator. Zero option fields take their defaults.
func New(backend Backend, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	o := &Orchestrator{
		backend: backend,
		opts:    opts,
		gate:    semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		logger:  opts.Logger,
	}
	if opts.MinInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return o
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

type batch struct {
	index int
	cells []core.Coordinate
	texts []string
}

// slot holds the outcome of one batch, indexed by batch number.
type slot struct {
	suggestions []core.Suggestion
	err         error
}

// CorrectGrid sends every non-empty cell of grid to the backend and returns
// a corrected copy. grid itself is not modified.
//
// A failing batch is reported in Result.Skipped and does not fail the grid.
// Cancellation of ctx aborts the whole grid and returns ctx's error.
func (o *Orchestrator) CorrectGrid(ctx context.Context, grid core.Grid) (*Result, error) {
	batches := o.partition(grid)
	slots := make([]slot, len(batches))

	o.logger.Debug("correcting grid", "cells", countCells(batches), "batches", len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.MaxConcurrency)
	for _, b := range batches {
		g.Go(func() error {
			suggestions, err := o.runBatch(gctx, b)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			slots[b.index] = slot{suggestions: suggestions, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Grid:    grid.Clone(),
		Batches: len(batches),
		Cells:   countCells(batches),
	}
	for _, b := range batches {
		s := slots[b.index]
		if s.err != nil {
			o.logger.Warn("skipping batch", "batch", b.index, "cells", len(b.cells), "error", s.err)
			result.Skipped = append(result.Skipped, SkippedBatch{Index: b.index, Cells: b.cells, Err: s.err})
			continue
		}
		for i, sug := range s.suggestions {
			if !shouldApply(sug) {
				continue
			}
			cell := b.cells[i]
			result.Grid[cell.Row][cell.Col] = sug.FixedText
		}
	}
	return result, nil
}

// partition collects the non-empty cells in row-major order and splits them
// into contiguous batches.
func (o *Orchestrator) partition(grid core.Grid) []batch {
	var cells []core.Coordinate
	var texts []string
	for r, row := range grid {
		for c, v := range row {
			if v == "" {
				continue
			}
			cells = append(cells, core.Coordinate{Row: r, Col: c})
			texts = append(texts, v)
		}
	}

	var batches []batch
	for start := 0; start < len(texts); start += o.opts.BatchSize {
		end := min(start+o.opts.BatchSize, len(texts))
		batches = append(batches, batch{
			index: len(batches),
			cells: cells[start:end],
			texts: texts[start:end],
		})
	}
	return batches
}

func (o *Orchestrator) runBatch(ctx context.Context, b batch) ([]core.Suggestion, error) {
	backoff := retry.WithMaxRetries(uint64(o.opts.MaxRetries), retry.NewExponential(o.opts.InitialBackoff))

	var out []core.Suggestion
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		suggestions, err := o.call(ctx, b.texts)
		if err == nil {
			out = suggestions
			return nil
		}
		if ctx.Err() != nil || core.IsFatal(err) {
			return err
		}
		o.logger.Debug("batch failed, retrying", "batch", b.index, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("batch %d failed after %d attempt(s): %w", b.index, attempt, err)
	}
	return out, nil
}

// call performs one gated, paced and time-bounded backend call.
func (o *Orchestrator) call(ctx context.Context, texts []string) ([]core.Suggestion, error) {
	if err := o.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.gate.Release(1)

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.BatchTimeout)
	defer cancel()

	suggestions, err := o.backend.Correct(callCtx, texts)
	if err != nil {
		return nil, err
	}
	if len(suggestions) != len(texts) {
		return nil, core.Fatal(fmt.Errorf("backend returned %d results for %d texts", len(suggestions), len(texts)))
	}
	return suggestions, nil
}

// shouldApply reports whether a suggestion carries a real correction.
func shouldApply(s core.Suggestion) bool {
	return !s.Status && strings.TrimSpace(s.OriginalText) != strings.TrimSpace(s.FixedText)
}

func countCells(batches []batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.cells)
	}
	return n
}
