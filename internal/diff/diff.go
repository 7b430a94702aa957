// Package diff compares an original grid with its corrected counterpart
// and produces the pending corrections for review.
package diff

import (
	"strings"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// Diff returns one pending correction per cell whose value changed by more
// than surrounding whitespace, in row-major order.
//
// Both grids must have the same number of rows and matching row lengths;
// otherwise a *core.ShapeError is returned.
func Diff(old, updated core.Grid) ([]core.Correction, error) {
	if err := checkShape(old, updated); err != nil {
		return nil, err
	}

	var out []core.Correction
	for r, row := range old {
		for c, before := range row {
			after := updated[r][c]
			if before == after || strings.TrimSpace(before) == strings.TrimSpace(after) {
				continue
			}
			coord := core.Coordinate{Row: r, Col: c}
			out = append(out, core.Correction{
				OldValue:   before,
				NewValue:   after,
				Coordinate: coord,
				Cell:       coord.Address(),
				Status:     core.CorrectionPending,
			})
		}
	}
	return out, nil
}

// DiffSheet is Diff with every correction stamped with the sheet name.
func DiffSheet(sheet string, old, updated core.Grid) ([]core.Correction, error) {
	out, err := Diff(old, updated)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Sheet = sheet
	}
	return out, nil
}

func checkShape(old, updated core.Grid) error {
	oldRows, oldCols := old.Shape()
	newRows, newCols := updated.Shape()
	if oldRows != newRows {
		return &core.ShapeError{
			OldRows: oldRows, OldCols: oldCols,
			NewRows: newRows, NewCols: newCols,
			Row: -1,
		}
	}
	for r := range old {
		if len(old[r]) != len(updated[r]) {
			return &core.ShapeError{
				OldRows: oldRows, OldCols: oldCols,
				NewRows: newRows, NewCols: newCols,
				Row: r,
			}
		}
	}
	return nil
}
