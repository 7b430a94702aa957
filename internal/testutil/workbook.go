package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// SheetData is the content of one sheet of a generated workbook.
type SheetData struct {
	Name string
	Rows [][]string
}

// WriteWorkbook creates dir/name as an .xlsx workbook with the given sheets,
// in order. Empty strings leave the cell blank.
func WriteWorkbook(t testing.TB, dir, name string, sheets ...SheetData) string {
	t.Helper()
	require.NotEmpty(t, sheets, "at least one sheet is required")

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName("Sheet1", sheets[0].Name))
	for _, s := range sheets[1:] {
		_, err := f.NewSheet(s.Name)
		require.NoError(t, err)
	}

	for _, s := range sheets {
		for r, row := range s.Rows {
			for c, v := range row {
				if v == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellStr(s.Name, cell, v))
			}
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}
