package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/sheetproof/internal/workbook"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// AddFile registers a workbook for correction. Registering a path again
// replaces the record and discards its correction history.
func (e *Engine) AddFile(ctx context.Context, path, onlineURL string) (*core.FileRecord, error) {
	local := core.NormalizePath(path)
	if local == "" {
		return nil, fmt.Errorf("file path is empty")
	}
	if err := workbook.CheckSupported(local); err != nil {
		return nil, err
	}
	if _, err := os.Stat(local); err != nil {
		return nil, fmt.Errorf("failed to access workbook: %w", err)
	}

	wb, err := workbook.Open(local)
	if err != nil {
		return nil, err
	}
	sheets := wb.SheetNames()
	_ = wb.Close()

	rec := &core.FileRecord{
		LocalPath:  local,
		OnlineURL:  onlineURL,
		SheetNames: sheets,
	}
	if err := e.store.AddFile(ctx, rec); err != nil {
		return nil, err
	}
	e.logger.Info("file added", "id", rec.ID, "path", rec.LocalPath, "sheets", len(sheets))
	return rec, nil
}

// Files returns every tracked file.
func (e *Engine) Files(ctx context.Context) ([]*core.FileRecord, error) {
	return e.store.ListFiles(ctx)
}

// File returns the tracked record for path, or core.ErrNotFound.
func (e *Engine) File(ctx context.Context, path string) (*core.FileRecord, error) {
	rec, err := e.store.GetFileByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("file %s is not tracked: %w", core.NormalizePath(path), core.ErrNotFound)
	}
	return rec, nil
}

// RemoveFile stops tracking path and deletes its history.
func (e *Engine) RemoveFile(ctx context.Context, path string) error {
	rec, err := e.File(ctx, path)
	if err != nil {
		return err
	}
	if err := e.store.DeleteFile(ctx, rec.ID); err != nil {
		return err
	}
	e.logger.Info("file removed", "id", rec.ID, "path", rec.LocalPath)
	return nil
}

// SheetNames returns the current sheet names of a tracked workbook.
func (e *Engine) SheetNames(ctx context.Context, path string) ([]string, error) {
	rec, err := e.File(ctx, path)
	if err != nil {
		return nil, err
	}
	wb, err := workbook.Open(rec.LocalPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()
	return wb.SheetNames(), nil
}
