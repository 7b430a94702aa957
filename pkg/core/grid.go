package core

import (
	"fmt"

	"github.com/leapstack-labs/sheetproof/pkg/cellref"
)

// Grid is a row-major 2-D array of cell values for one sheet.
// The empty string is the canonical empty cell.
type Grid [][]string

// Shape returns the number of rows and the width of the widest row.
func (g Grid) Shape() (rows, cols int) {
	for _, row := range g {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return len(g), cols
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// SameShape reports whether both grids have the same number of rows and
// every row pair has the same length.
func (g Grid) SameShape(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(other[i]) {
			return false
		}
	}
	return true
}

// Coordinate is a 0-based cell position.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Address returns the 1-based spreadsheet address ("A1") of the coordinate.
// Negative coordinates yield an empty string.
func (c Coordinate) Address() string {
	addr, err := cellref.CoordToAddress(c.Row, c.Col)
	if err != nil {
		return ""
	}
	return addr
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// ParseCoordinate parses a spreadsheet address into a Coordinate.
// Unparsable input yields a *cellref.FormatError.
func ParseCoordinate(addr string) (Coordinate, error) {
	row, col, err := cellref.AddressToCoord(addr)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Row: row, Col: col}, nil
}
