// Package workbook reads and edits spreadsheet files through excelize.
//
// Edits go through Edit, which holds an exclusive file lock for the whole
// open, mutate and save sequence and replaces the file atomically.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// SupportedTypes lists the file extensions, without the dot, that can be
// opened and edited.
var SupportedTypes = []string{"xlsx", "xlsm"}

// CheckSupported returns core.ErrUnsupportedFile for paths whose extension
// is not one of SupportedTypes.
func CheckSupported(path string) error {
	if !slices.Contains(SupportedTypes, core.FileType(path)) {
		return fmt.Errorf("%s: %w (want .xlsx or .xlsm)", filepath.Base(path), core.ErrUnsupportedFile)
	}
	return nil
}

// Workbook is an open spreadsheet file.
type Workbook struct {
	f    *excelize.File
	path string
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	if err := CheckSupported(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Grid returns the cell values of a sheet as a rectangular grid. Rows are
// padded with empty strings to the width of the widest row.
func (w *Workbook) Grid(sheet string) (core.Grid, error) {
	if !w.HasSheet(sheet) {
		return nil, fmt.Errorf("sheet %q: %w", sheet, core.ErrNotFound)
	}
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	grid := core.Grid(rows)
	_, cols := grid.Shape()
	for i, row := range grid {
		if len(row) < cols {
			grid[i] = append(row, make([]string, cols-len(row))...)
		}
	}
	return grid, nil
}

// Sheet returns an editable view of the named sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	if !w.HasSheet(name) {
		return nil, fmt.Errorf("sheet %q: %w", name, core.ErrNotFound)
	}
	return &Sheet{f: w.f, name: name}, nil
}

// Save writes the workbook back to its path. The content is written to a
// temporary file in the same directory and renamed over the original, so
// readers never observe a partially written file.
func (w *Workbook) Save() error {
	dir, base := filepath.Split(w.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := w.f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if info, err := os.Stat(w.path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	committed = true
	return nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}
