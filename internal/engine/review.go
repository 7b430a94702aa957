package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sheetproof/internal/apply"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// Corrections returns the stored corrections of a sheet in insertion
// order. An empty status returns every correction.
func (e *Engine) Corrections(ctx context.Context, path, sheet string, status core.CorrectionStatus) ([]core.Correction, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return nil, err
	}
	all, err := e.store.GetCorrections(ctx, rec.ID, sheet)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}

	out := make([]core.Correction, 0, len(all))
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

// LatestRun returns the most recent correction run of a sheet, or nil.
func (e *Engine) LatestRun(ctx context.Context, path, sheet string) (*core.CorrectionRun, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.store.GetLatestRun(ctx, rec.ID, sheet)
}

// lookup resolves cell addresses to their stored corrections.
func (e *Engine) lookup(ctx context.Context, rec *core.FileRecord, sheet string, cells []string) ([]core.Correction, error) {
	out := make([]core.Correction, 0, len(cells))
	for _, cell := range cells {
		coord, err := core.ParseCoordinate(cell)
		if err != nil {
			return nil, err
		}
		c, err := e.store.GetCorrection(ctx, rec.ID, sheet, coord)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("no correction for %s!%s: %w", sheet, coord.Address(), core.ErrNotFound)
		}
		out = append(out, *c)
	}
	return out, nil
}

// Accept writes the corrections of the given cells into the workbook,
// keeping the formatting of unchanged words, and marks them accepted.
// Corrections that are already accepted are left alone. It returns the
// number of cells written.
func (e *Engine) Accept(ctx context.Context, path, sheet string, cells []string) (int, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return 0, err
	}
	corrections, err := e.lookup(ctx, rec, sheet, cells)
	if err != nil {
		return 0, err
	}

	var changes []apply.Change
	var pending []core.Correction
	for _, c := range corrections {
		if c.Status == core.CorrectionAccepted {
			e.logger.Debug("correction already accepted", "sheet", sheet, "cell", c.Cell)
			continue
		}
		changes = append(changes, apply.Change{
			Path:     rec.LocalPath,
			Sheet:    sheet,
			Cell:     c.Cell,
			OldValue: c.OldValue,
			NewValue: c.NewValue,
		})
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	n, err := e.applier.ApplyAll(ctx, rec.LocalPath, changes)
	if err != nil {
		return 0, err
	}

	for _, c := range pending {
		if err := e.store.SetCorrectionStatus(ctx, rec.ID, sheet, c.Coordinate, core.CorrectionAccepted); err != nil {
			return n, err
		}
	}
	e.logger.Info("corrections accepted", "path", rec.LocalPath, "sheet", sheet, "cells", len(pending))
	return n, nil
}

// Reject marks the corrections of the given cells as rejected. The
// workbook is not modified.
func (e *Engine) Reject(ctx context.Context, path, sheet string, cells []string) error {
	rec, err := e.File(ctx, path)
	if err != nil {
		return err
	}
	corrections, err := e.lookup(ctx, rec, sheet, cells)
	if err != nil {
		return err
	}
	for _, c := range corrections {
		if err := e.store.SetCorrectionStatus(ctx, rec.ID, sheet, c.Coordinate, core.CorrectionRejected); err != nil {
			return err
		}
	}
	e.logger.Info("corrections rejected", "path", rec.LocalPath, "sheet", sheet, "cells", len(corrections))
	return nil
}

// ChangeCell rewrites one cell of a tracked workbook, keeping the
// formatting of words shared by oldValue and newValue. It reports whether
// the workbook was written.
func (e *Engine) ChangeCell(ctx context.Context, path, sheet, cell, oldValue, newValue string) (bool, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return false, err
	}
	return e.applier.Apply(ctx, apply.Change{
		Path:     rec.LocalPath,
		Sheet:    sheet,
		Cell:     cell,
		OldValue: oldValue,
		NewValue: newValue,
	})
}
