package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/sheetproof/internal/correct"
	"github.com/leapstack-labs/sheetproof/internal/testutil"
	"github.com/leapstack-labs/sheetproof/internal/workbook"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// fixer is a correction backend that rewrites known texts.
type fixer struct {
	fixes map[string]string
	calls atomic.Int32
}

func (f *fixer) Correct(_ context.Context, batch []string) ([]core.Suggestion, error) {
	f.calls.Add(1)
	out := make([]core.Suggestion, len(batch))
	for i, s := range batch {
		if fixed, ok := f.fixes[s]; ok {
			out[i] = core.Suggestion{Status: false, OriginalText: s, FixedText: fixed}
		} else {
			out[i] = core.Suggestion{Status: true, OriginalText: s, FixedText: s}
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, backend correct.Backend) *Engine {
	t.Helper()
	eng, err := New(Config{
		StatePath:  ":memory:",
		Backend:    backend,
		Correction: correct.Options{BatchSize: 2, MaxConcurrency: 4, BatchTimeout: time.Second, InitialBackoff: time.Millisecond},
		Logger:     testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func defaultFixer() *fixer {
	return &fixer{fixes: map[string]string{
		"Teh cat sit.":  "The cat sat.",
		"I has a apple": "I have an apple",
		"Thier house":   "Their house",
	}}
}

func writeBook(t *testing.T) string {
	t.Helper()
	return testutil.WriteWorkbook(t, t.TempDir(), "book.xlsx",
		testutil.SheetData{Name: "Notes", Rows: [][]string{
			{"Teh cat sit.", "fine"},
			{"", "I has a apple"},
		}},
		testutil.SheetData{Name: "Extra", Rows: [][]string{{"Thier house"}}},
	)
}

func cellValue(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer wb.Close()
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)
	v, err := s.CellText(cell)
	require.NoError(t, err)
	return v
}

func TestEngine_Files(t *testing.T) {
	eng := newTestEngine(t, defaultFixer())
	ctx := context.Background()
	path := writeBook(t)

	rec, err := eng.AddFile(ctx, `"`+path+`"`, "https://example.com/book")
	require.NoError(t, err)
	assert.Equal(t, path, rec.LocalPath)
	assert.Equal(t, []string{"Notes", "Extra"}, rec.SheetNames)
	assert.Equal(t, "xlsx", rec.FileType)

	sheets, err := eng.SheetNames(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Notes", "Extra"}, sheets)

	files, err := eng.Files(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// Adding again replaces the record.
	again, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, again.ID)
	files, err = eng.Files(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, eng.RemoveFile(ctx, path))
	_, err = eng.File(ctx, path)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, eng.RemoveFile(ctx, path), core.ErrNotFound)
}

func TestEngine_AddFile_Rejects(t *testing.T) {
	eng := newTestEngine(t, defaultFixer())
	ctx := context.Background()

	_, err := eng.AddFile(ctx, filepath.Join(t.TempDir(), "notes.csv"), "")
	assert.ErrorIs(t, err, core.ErrUnsupportedFile)

	_, err = eng.AddFile(ctx, filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)

	_, err = eng.AddFile(ctx, "  ", "")
	assert.Error(t, err)
}

func TestEngine_CheckSheet(t *testing.T) {
	backend := defaultFixer()
	eng := newTestEngine(t, backend)
	ctx := context.Background()
	path := writeBook(t)
	_, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)

	res, err := eng.CheckSheet(ctx, path, "Notes")
	require.NoError(t, err)

	assert.Equal(t, "Notes", res.Sheet)
	assert.Equal(t, 3, res.Cells)
	assert.Equal(t, 2, res.Batches)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Corrections, 2)
	assert.Equal(t, "A1", res.Corrections[0].Cell)
	assert.Equal(t, "The cat sat.", res.Corrections[0].NewValue)
	assert.Equal(t, "B2", res.Corrections[1].Cell)

	require.NotNil(t, res.Run)
	assert.Equal(t, core.RunStatusCompleted, res.Run.Status)
	assert.Equal(t, 2, res.Run.Corrections)

	stored, err := eng.Corrections(ctx, path, "Notes", "")
	require.NoError(t, err)
	assert.Equal(t, res.Corrections, stored)

	latest, err := eng.LatestRun(ctx, path, "Notes")
	require.NoError(t, err)
	assert.Equal(t, res.Run.ID, latest.ID)

	// Checking another sheet keeps the first sheet's results.
	_, err = eng.CheckSheet(ctx, path, "Extra")
	require.NoError(t, err)
	stored, err = eng.Corrections(ctx, path, "Notes", "")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	extra, err := eng.Corrections(ctx, path, "Extra", "")
	require.NoError(t, err)
	require.Len(t, extra, 1)
	assert.Equal(t, "Their house", extra[0].NewValue)

	_, err = eng.CheckSheet(ctx, path, "Missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestEngine_CheckWorkbook(t *testing.T) {
	eng := newTestEngine(t, defaultFixer())
	ctx := context.Background()
	path := writeBook(t)
	_, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)

	results, err := eng.CheckWorkbook(ctx, path)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Notes", results[0].Sheet)
	assert.Len(t, results[0].Corrections, 2)
	assert.Equal(t, "Extra", results[1].Sheet)
	assert.Len(t, results[1].Corrections, 1)
	for _, r := range results {
		assert.Equal(t, core.RunStatusCompleted, r.Run.Status)
	}
}

func TestEngine_CheckCancelledStoresNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := correct.BackendFunc(func(ctx context.Context, _ []string) ([]core.Suggestion, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	eng := newTestEngine(t, backend)
	path := writeBook(t)
	_, err := eng.AddFile(context.Background(), path, "")
	require.NoError(t, err)

	_, err = eng.CheckSheet(ctx, path, "Notes")
	require.ErrorIs(t, err, context.Canceled)

	stored, err := eng.Corrections(context.Background(), path, "Notes", "")
	require.NoError(t, err)
	assert.Empty(t, stored)

	run, err := eng.LatestRun(context.Background(), path, "Notes")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, core.RunStatusFailed, run.Status)
}

func TestEngine_SkippedBatchesKeepOldValues(t *testing.T) {
	backend := correct.BackendFunc(func(_ context.Context, _ []string) ([]core.Suggestion, error) {
		return nil, core.Fatal(errors.New("garbled response"))
	})
	eng := newTestEngine(t, backend)
	ctx := context.Background()
	path := writeBook(t)
	_, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)

	res, err := eng.CheckSheet(ctx, path, "Notes")
	require.NoError(t, err)
	assert.Empty(t, res.Corrections)
	assert.Equal(t, 3, res.SkippedCells())
	assert.Equal(t, 3, res.Run.Skipped)
}

func TestEngine_NoBackendConfigured(t *testing.T) {
	eng, err := New(Config{StatePath: ":memory:"})
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	path := writeBook(t)
	_, err = eng.AddFile(ctx, path, "")
	require.NoError(t, err)

	_, err = eng.CheckSheet(ctx, path, "Notes")
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestEngine_AcceptAndReject(t *testing.T) {
	eng := newTestEngine(t, defaultFixer())
	ctx := context.Background()
	path := writeBook(t)
	_, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)
	_, err = eng.CheckSheet(ctx, path, "Notes")
	require.NoError(t, err)

	n, err := eng.Accept(ctx, path, "Notes", []string{"a1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "The cat sat.", cellValue(t, path, "Notes", "A1"))

	// Accepting twice does not rewrite the cell.
	n, err = eng.Accept(ctx, path, "Notes", []string{"A1"})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, eng.Reject(ctx, path, "Notes", []string{"B2"}))
	assert.Equal(t, "I has a apple", cellValue(t, path, "Notes", "B2"))

	accepted, err := eng.Corrections(ctx, path, "Notes", core.CorrectionAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "A1", accepted[0].Cell)

	rejected, err := eng.Corrections(ctx, path, "Notes", core.CorrectionRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "B2", rejected[0].Cell)

	_, err = eng.Accept(ctx, path, "Notes", []string{"C9"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, eng.Reject(ctx, path, "Notes", []string{"C9"}), core.ErrNotFound)
	_, err = eng.Accept(ctx, path, "Notes", []string{"9C"})
	assert.Error(t, err)
}

func TestEngine_AcceptKeepsFormatting(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellRichText("Sheet1", "A1", []excelize.RichTextRun{
		{Text: "Teh "},
		{Text: "cat", Font: &excelize.Font{Italic: true}},
		{Text: " sit."},
	}))
	path := filepath.Join(t.TempDir(), "styled.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	eng := newTestEngine(t, defaultFixer())
	ctx := context.Background()
	_, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)
	_, err = eng.CheckSheet(ctx, path, "Sheet1")
	require.NoError(t, err)
	_, err = eng.Accept(ctx, path, "Sheet1", []string{"A1"})
	require.NoError(t, err)

	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer wb.Close()
	sheet, err := wb.Sheet("Sheet1")
	require.NoError(t, err)
	runs, err := sheet.CellRuns("A1")
	require.NoError(t, err)

	assert.Equal(t, "The cat sat.", core.RunsText(runs))
	require.Len(t, runs, 3)
	assert.Equal(t, "cat ", runs[1].Text)
	require.NotNil(t, runs[1].Style)
	assert.True(t, runs[1].Style.Italic)
}

func TestEngine_ChangeCell(t *testing.T) {
	eng := newTestEngine(t, defaultFixer())
	ctx := context.Background()
	path := writeBook(t)
	_, err := eng.AddFile(ctx, path, "")
	require.NoError(t, err)

	changed, err := eng.ChangeCell(ctx, path, "Notes", "B1", "fine", "fine")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = eng.ChangeCell(ctx, path, "Notes", "B1", "fine", "very fine")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "very fine", cellValue(t, path, "Notes", "B1"))

	_, err = eng.ChangeCell(ctx, filepath.Join(t.TempDir(), "untracked.xlsx"), "Notes", "B1", "a", "b")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
