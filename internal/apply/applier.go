package apply

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sheetproof/internal/workbook"
	"github.com/leapstack-labs/sheetproof/pkg/cellref"
)

// Change is a single cell rewrite.
type Change struct {
	Path     string
	Sheet    string
	Cell     string
	OldValue string
	NewValue string
}

// Noop reports whether the change would leave the cell as it is.
func (c Change) Noop() bool {
	return c.OldValue == c.NewValue
}

// Options configures an Applier.
type Options struct {
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// Applier writes changes into workbooks on disk.
type Applier struct {
	edit         workbook.EditOptions
	transplanter *Transplanter
	logger       *slog.Logger
}

func NewApplier(opts Options) *Applier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{
		edit:         workbook.EditOptions{LockTimeout: opts.LockTimeout, Logger: logger},
		transplanter: &Transplanter{Logger: logger},
		logger:       logger,
	}
}

// Apply writes one change. A change whose old and new values are equal is
// a no-op and the workbook is not opened.
func (a *Applier) Apply(ctx context.Context, ch Change) (bool, error) {
	n, err := a.ApplyAll(ctx, ch.Path, []Change{ch})
	return n > 0, err
}

// ApplyAll writes every change to the workbook at path under a single lock
// and save. No-op changes are skipped; if all are no-ops the workbook is
// not opened. It returns the number of cells written.
func (a *Applier) ApplyAll(ctx context.Context, path string, changes []Change) (int, error) {
	var pending []Change
	for _, ch := range changes {
		if ch.Noop() {
			continue
		}
		cell, err := normalizeCell(ch.Cell)
		if err != nil {
			return 0, err
		}
		ch.Cell = cell
		pending = append(pending, ch)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	err := workbook.Edit(ctx, path, a.edit, func(wb *workbook.Workbook) error {
		for _, ch := range pending {
			sheet, err := wb.Sheet(ch.Sheet)
			if err != nil {
				return err
			}
			if err := a.transplanter.Transplant(sheet, ch.Cell, ch.OldValue, ch.NewValue); err != nil {
				return fmt.Errorf("failed to apply change to %s!%s: %w", ch.Sheet, ch.Cell, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	a.logger.Debug("applied changes", "path", path, "cells", len(pending))
	return len(pending), nil
}

// ApplyTo writes one change into an already open document.
func (a *Applier) ApplyTo(doc Document, cell, oldValue, newValue string) (bool, error) {
	if oldValue == newValue {
		return false, nil
	}
	cell, err := normalizeCell(cell)
	if err != nil {
		return false, err
	}
	if err := a.transplanter.Transplant(doc, cell, oldValue, newValue); err != nil {
		return false, err
	}
	return true, nil
}

func normalizeCell(cell string) (string, error) {
	row, col, err := cellref.AddressToCoord(cell)
	if err != nil {
		return "", err
	}
	return cellref.CoordToAddress(row, col)
}
