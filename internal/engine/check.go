package engine

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sheetproof/internal/correct"
	"github.com/leapstack-labs/sheetproof/internal/diff"
	"github.com/leapstack-labs/sheetproof/internal/workbook"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// CheckResult is the outcome of one correction pass over a sheet.
type CheckResult struct {
	Sheet       string
	Run         *core.CorrectionRun
	Cells       int
	Batches     int
	Corrections []core.Correction
	Skipped     []correct.SkippedBatch
}

// SkippedCells returns the number of cells whose batch failed.
func (r *CheckResult) SkippedCells() int {
	n := 0
	for _, s := range r.Skipped {
		n += len(s.Cells)
	}
	return n
}

// CheckSheet runs a correction pass over one sheet of a tracked workbook
// and stores the resulting corrections, replacing earlier results for that
// sheet. Corrections of other sheets are kept.
//
// If ctx is cancelled nothing is stored.
func (e *Engine) CheckSheet(ctx context.Context, path, sheet string) (*CheckResult, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return nil, err
	}
	orch, err := e.ensureOrchestrator(ctx)
	if err != nil {
		return nil, err
	}

	wb, err := workbook.Open(rec.LocalPath)
	if err != nil {
		return nil, err
	}
	grid, err := wb.Grid(sheet)
	sheets := wb.SheetNames()
	_ = wb.Close()
	if err != nil {
		return nil, err
	}

	e.logger.Info("checking sheet", "path", rec.LocalPath, "sheet", sheet)
	result, err := e.checkGrid(ctx, orch, rec, sheet, grid)
	if err != nil {
		return nil, err
	}

	records, err := e.otherCorrections(ctx, rec, sheets, sheet)
	if err != nil {
		e.failRun(ctx, result.Run, err)
		return nil, err
	}
	records = append(records, result.Corrections...)
	if err := e.store.ReplaceCorrections(ctx, rec.ID, records); err != nil {
		e.failRun(ctx, result.Run, err)
		return nil, err
	}

	e.finishRun(ctx, result)
	return result, nil
}

// CheckWorkbook runs a correction pass over every sheet of a tracked
// workbook. All sheets are corrected concurrently, sharing the backend
// concurrency limit, and their corrections replace the file's history in a
// single write. If any sheet fails nothing is stored.
func (e *Engine) CheckWorkbook(ctx context.Context, path string) ([]*CheckResult, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return nil, err
	}
	orch, err := e.ensureOrchestrator(ctx)
	if err != nil {
		return nil, err
	}

	wb, err := workbook.Open(rec.LocalPath)
	if err != nil {
		return nil, err
	}
	sheets := wb.SheetNames()
	grids := make([]core.Grid, len(sheets))
	for i, name := range sheets {
		if grids[i], err = wb.Grid(name); err != nil {
			_ = wb.Close()
			return nil, err
		}
	}
	_ = wb.Close()

	e.logger.Info("checking workbook", "path", rec.LocalPath, "sheets", len(sheets))

	results := make([]*CheckResult, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range sheets {
		g.Go(func() error {
			res, err := e.checkGrid(gctx, orch, rec, name, grids[i])
			if err != nil {
				return fmt.Errorf("sheet %q: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, res := range results {
			if res != nil {
				e.failRun(ctx, res.Run, fmt.Errorf("workbook check aborted: %w", err))
			}
		}
		return nil, err
	}

	var records []core.Correction
	for _, res := range results {
		records = append(records, res.Corrections...)
	}
	if err := e.store.ReplaceCorrections(ctx, rec.ID, records); err != nil {
		for _, res := range results {
			e.failRun(ctx, res.Run, err)
		}
		return nil, err
	}

	for _, res := range results {
		e.finishRun(ctx, res)
	}
	return results, nil
}

// checkGrid corrects and diffs one grid under a new run. On failure the run
// is marked failed.
func (e *Engine) checkGrid(ctx context.Context, orch *correct.Orchestrator, rec *core.FileRecord, sheet string, grid core.Grid) (*CheckResult, error) {
	run, err := e.store.CreateRun(ctx, rec.ID, sheet)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("created run", "run_id", run.ID, "sheet", sheet)

	corrected, err := orch.CorrectGrid(ctx, grid)
	if err != nil {
		e.failRun(ctx, run, err)
		return nil, err
	}

	corrections, err := diff.DiffSheet(sheet, grid, corrected.Grid)
	if err != nil {
		e.failRun(ctx, run, err)
		return nil, err
	}

	return &CheckResult{
		Sheet:       sheet,
		Run:         run,
		Cells:       corrected.Cells,
		Batches:     corrected.Batches,
		Corrections: corrections,
		Skipped:     corrected.Skipped,
	}, nil
}

// otherCorrections returns the stored corrections of every sheet except
// skip. Sheets known from registration and from the live workbook are both
// consulted.
func (e *Engine) otherCorrections(ctx context.Context, rec *core.FileRecord, live []string, skip string) ([]core.Correction, error) {
	names := slices.Clone(rec.SheetNames)
	for _, name := range live {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	var out []core.Correction
	for _, name := range names {
		if name == skip {
			continue
		}
		records, err := e.store.GetCorrections(ctx, rec.ID, name)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (e *Engine) finishRun(ctx context.Context, res *CheckResult) {
	outcome := core.RunOutcome{
		Status:      core.RunStatusCompleted,
		Cells:       res.Cells,
		Batches:     res.Batches,
		Corrections: len(res.Corrections),
		Skipped:     res.SkippedCells(),
	}
	if err := e.store.CompleteRun(context.WithoutCancel(ctx), res.Run.ID, outcome); err != nil {
		e.logger.Warn("failed to record run outcome", "run_id", res.Run.ID, "error", err)
		return
	}

	completed, err := e.store.GetRun(context.WithoutCancel(ctx), res.Run.ID)
	if err == nil {
		res.Run = completed
	}
	e.logger.Info("sheet checked", "run_id", res.Run.ID, "sheet", res.Sheet,
		"cells", res.Cells, "corrections", len(res.Corrections), "skipped", outcome.Skipped)
}

func (e *Engine) failRun(ctx context.Context, run *core.CorrectionRun, cause error) {
	e.logger.Info("run failed", "run_id", run.ID, "error", cause.Error())
	outcome := core.RunOutcome{Status: core.RunStatusFailed, Error: cause.Error()}
	if err := e.store.CompleteRun(context.WithoutCancel(ctx), run.ID, outcome); err != nil {
		e.logger.Warn("failed to record run failure", "run_id", run.ID, "error", err)
	}
}
