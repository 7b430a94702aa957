// Package cellref converts between 0-based grid coordinates and
// spreadsheet-style cell addresses such as "A1" or "AB12".
package cellref

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Limits of the xlsx format.
const (
	MaxColumns = excelize.MaxColumns
	MaxRows    = excelize.TotalRows
)

// FormatError reports a cell address that cannot be parsed or a
// coordinate that has no address.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid cell address %q: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// CoordToAddress returns the address of the 0-based (row, col) pair.
func CoordToAddress(row, col int) (string, error) {
	if row < 0 || col < 0 {
		return "", &FormatError{
			Input: fmt.Sprintf("(%d,%d)", row, col),
			Err:   fmt.Errorf("coordinates must be non-negative"),
		}
	}
	addr, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", &FormatError{Input: fmt.Sprintf("(%d,%d)", row, col), Err: err}
	}
	return addr, nil
}

// MustAddress is CoordToAddress for coordinates already known to be valid.
// It panics on out-of-range input.
func MustAddress(row, col int) string {
	addr, err := CoordToAddress(row, col)
	if err != nil {
		panic(err)
	}
	return addr
}

// AddressToCoord parses an address like "b7" or " AA10 " into a 0-based
// (row, col) pair. Absolute markers ("$A$1") are rejected.
func AddressToCoord(addr string) (row, col int, err error) {
	cleaned := strings.ToUpper(strings.TrimSpace(addr))
	if cleaned == "" || strings.ContainsAny(cleaned, "$!: ") {
		return 0, 0, &FormatError{Input: addr, Err: fmt.Errorf("expected column letters followed by a row number")}
	}
	c, r, perr := excelize.CellNameToCoordinates(cleaned)
	if perr != nil {
		return 0, 0, &FormatError{Input: addr, Err: perr}
	}
	return r - 1, c - 1, nil
}

// ColumnName returns the letters for a 0-based column index ("A", "Z", "AA").
func ColumnName(col int) (string, error) {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return "", &FormatError{Input: fmt.Sprintf("column %d", col), Err: err}
	}
	return name, nil
}
