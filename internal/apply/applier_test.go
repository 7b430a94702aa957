package apply

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/sheetproof/internal/testutil"
	"github.com/leapstack-labs/sheetproof/internal/workbook"
	"github.com/leapstack-labs/sheetproof/pkg/cellref"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// writeRichWorkbook creates a workbook whose A1 holds "Hello world" with a
// bold "Hello".
func writeRichWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellRichText("Sheet1", "A1", []excelize.RichTextRun{
		{Text: "Hello", Font: &excelize.Font{Bold: true}},
		{Text: " world"},
	}))
	path := filepath.Join(t.TempDir(), "rich.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestApplier_Apply(t *testing.T) {
	path := writeRichWorkbook(t)
	a := NewApplier(Options{Logger: testutil.NewTestLogger(t)})

	applied, err := a.Apply(context.Background(), Change{
		Path:     path,
		Sheet:    "Sheet1",
		Cell:     "a1",
		OldValue: "Hello world",
		NewValue: "Hello earth",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer wb.Close()
	sheet, err := wb.Sheet("Sheet1")
	require.NoError(t, err)

	runs, err := sheet.CellRuns("A1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Hello ", runs[0].Text)
	require.NotNil(t, runs[0].Style)
	assert.True(t, runs[0].Style.Bold)
	assert.Equal(t, "earth", runs[1].Text)
	assert.Nil(t, runs[1].Style)
}

func TestApplier_NoopDoesNotOpenWorkbook(t *testing.T) {
	a := NewApplier(Options{})

	// The path does not exist; opening it would fail.
	applied, err := a.Apply(context.Background(), Change{
		Path:     filepath.Join(t.TempDir(), "missing.xlsx"),
		Sheet:    "Sheet1",
		Cell:     "A1",
		OldValue: "same",
		NewValue: "same",
	})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestApplier_NoopLeavesFileUntouched(t *testing.T) {
	path := writeRichWorkbook(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	n, err := NewApplier(Options{}).ApplyAll(context.Background(), path, []Change{
		{Sheet: "Sheet1", Cell: "A1", OldValue: "Hello world", NewValue: "Hello world"},
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApplier_ApplyAll(t *testing.T) {
	path := testutil.WriteWorkbook(t, t.TempDir(), "book.xlsx", testutil.SheetData{
		Name: "Notes",
		Rows: [][]string{{"Teh cat", "fine"}, {"sit down"}},
	})

	n, err := NewApplier(Options{}).ApplyAll(context.Background(), path, []Change{
		{Sheet: "Notes", Cell: "A1", OldValue: "Teh cat", NewValue: "The cat"},
		{Sheet: "Notes", Cell: "B1", OldValue: "fine", NewValue: "fine"},
		{Sheet: "Notes", Cell: "A2", OldValue: "sit down", NewValue: "sit down."},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer wb.Close()
	grid, err := wb.Grid("Notes")
	require.NoError(t, err)
	assert.Equal(t, core.Grid{{"The cat", "fine"}, {"sit down.", ""}}, grid)
}

func TestApplier_Errors(t *testing.T) {
	path := writeRichWorkbook(t)
	a := NewApplier(Options{})

	_, err := a.Apply(context.Background(), Change{Path: path, Sheet: "Sheet1", Cell: "1A", OldValue: "a", NewValue: "b"})
	var formatErr *cellref.FormatError
	assert.ErrorAs(t, err, &formatErr)

	_, err = a.Apply(context.Background(), Change{Path: path, Sheet: "Nope", Cell: "A1", OldValue: "a", NewValue: "b"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = a.Apply(context.Background(), Change{Path: "notes.csv", Sheet: "Sheet1", Cell: "A1", OldValue: "a", NewValue: "b"})
	assert.ErrorIs(t, err, core.ErrUnsupportedFile)
}

func TestApplier_ApplyTo(t *testing.T) {
	a := NewApplier(Options{})
	doc := newMemDoc()
	doc.cells["A1"] = []core.TextRun{{Text: "same", Style: bold}}

	applied, err := a.ApplyTo(doc, "A1", "same", "same")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, doc.writes)

	applied, err = a.ApplyTo(doc, "a1", "same", "same thing")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []core.TextRun{
		{Text: "same ", Style: bold},
		{Text: "thing"},
	}, doc.cells["A1"])
}
