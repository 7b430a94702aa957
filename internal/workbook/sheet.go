package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// Sheet is one worksheet of an open workbook, addressed by "A1" cells.
type Sheet struct {
	f    *excelize.File
	name string
}

// Name returns the sheet name.
func (s *Sheet) Name() string {
	return s.name
}

// CellText returns the displayed text of a cell.
func (s *Sheet) CellText(cell string) (string, error) {
	v, err := s.f.GetCellValue(s.name, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read %s!%s: %w", s.name, cell, err)
	}
	return v, nil
}

// CellRuns returns the formatted runs of a cell. A cell without rich text
// yields a single run with a nil style; an empty cell yields no runs.
func (s *Sheet) CellRuns(cell string) ([]core.TextRun, error) {
	rich, err := s.f.GetCellRichText(s.name, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to read rich text %s!%s: %w", s.name, cell, err)
	}
	if len(rich) > 0 {
		runs := make([]core.TextRun, 0, len(rich))
		for _, r := range rich {
			runs = append(runs, core.TextRun{Text: r.Text, Style: fontStyle(r.Font)})
		}
		return runs, nil
	}

	text, err := s.CellText(cell)
	if err != nil || text == "" {
		return nil, err
	}
	return []core.TextRun{{Text: text}}, nil
}

// SetCellText replaces the cell content with plain text, dropping any
// per-character formatting.
func (s *Sheet) SetCellText(cell, value string) error {
	if err := s.f.SetCellStr(s.name, cell, value); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", s.name, cell, err)
	}
	return nil
}

// SetCellRuns writes formatted runs into a cell. Runs that all inherit the
// cell style are written as plain text.
func (s *Sheet) SetCellRuns(cell string, runs []core.TextRun) error {
	styled := false
	for _, r := range runs {
		if r.Style != nil {
			styled = true
			break
		}
	}
	if !styled {
		return s.SetCellText(cell, core.RunsText(runs))
	}

	rich := make([]excelize.RichTextRun, 0, len(runs))
	for _, r := range runs {
		rich = append(rich, excelize.RichTextRun{Text: r.Text, Font: styleFont(r.Style)})
	}
	if err := s.f.SetCellRichText(s.name, cell, rich); err != nil {
		return fmt.Errorf("failed to write rich text %s!%s: %w", s.name, cell, err)
	}
	return nil
}

// DefaultStyle returns the font of the cell style, or nil when the cell
// uses the workbook default.
func (s *Sheet) DefaultStyle(cell string) (*core.CharStyle, error) {
	idx, err := s.f.GetCellStyle(s.name, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to read style of %s!%s: %w", s.name, cell, err)
	}
	if idx == 0 {
		return nil, nil
	}
	style, err := s.f.GetStyle(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to read style %d: %w", idx, err)
	}
	return fontStyle(style.Font), nil
}

func fontStyle(f *excelize.Font) *core.CharStyle {
	if f == nil {
		return nil
	}
	return &core.CharStyle{
		Bold:   f.Bold,
		Italic: f.Italic,
		Color:  f.Color,
		Size:   f.Size,
		Font:   f.Family,
	}
}

func styleFont(s *core.CharStyle) *excelize.Font {
	if s == nil {
		return nil
	}
	return &excelize.Font{
		Bold:   s.Bold,
		Italic: s.Italic,
		Color:  s.Color,
		Size:   s.Size,
		Family: s.Font,
	}
}
