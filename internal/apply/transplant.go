// Package apply writes accepted corrections into live spreadsheet cells
// while carrying the character formatting of unchanged words over to the
// new text.
package apply

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/sheetproof/internal/align"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// Document is the narrow view of one live sheet that styling needs.
type Document interface {
	CellRuns(cell string) ([]core.TextRun, error)
	SetCellText(cell, value string) error
	SetCellRuns(cell string, runs []core.TextRun) error
}

// WordInfo is the character range of a word and the style of its first
// character. The range includes the following space.
type WordInfo struct {
	Chars []int
	Style *core.CharStyle
}

// snapshot is the per-character view of a cell.
type snapshot struct {
	text   []rune
	styles []*core.CharStyle
	words  []WordInfo
}

func takeSnapshot(runs []core.TextRun) snapshot {
	var s snapshot
	for _, r := range runs {
		for _, ch := range r.Text {
			s.text = append(s.text, ch)
			s.styles = append(s.styles, r.Style)
		}
	}
	s.words = sampleWords(string(s.text), s.styles)
	return s
}

// SampleWordStyles returns the word ranges and styles of a cell, indexed
// by word. An empty cell has no words.
func SampleWordStyles(doc Document, cell string) ([]WordInfo, error) {
	runs, err := doc.CellRuns(cell)
	if err != nil {
		return nil, err
	}
	return takeSnapshot(runs).words, nil
}

func sampleWords(text string, styles []*core.CharStyle) []WordInfo {
	if text == "" {
		return nil
	}
	n := len(styles)
	words := align.Words(text)
	out := make([]WordInfo, len(words))
	i := 0
	for k, w := range words {
		end := min(i+utf8.RuneCountInString(w), n-1)
		var info WordInfo
		for ch := i; ch <= end; ch++ {
			info.Chars = append(info.Chars, ch)
		}
		if i < n {
			info.Style = styles[i]
		}
		out[k] = info
		i += utf8.RuneCountInString(w) + 1
	}
	return out
}

// collapse groups consecutive characters with equal styles into runs.
func collapse(text []rune, styles []*core.CharStyle) []core.TextRun {
	var runs []core.TextRun
	var sb strings.Builder
	start := 0
	for i := range text {
		if i > start && !styles[i].Equal(styles[start]) {
			runs = append(runs, core.TextRun{Text: sb.String(), Style: styles[start]})
			sb.Reset()
			start = i
		}
		sb.WriteRune(text[i])
	}
	if sb.Len() > 0 {
		runs = append(runs, core.TextRun{Text: sb.String(), Style: styles[start]})
	}
	return runs
}

// Transplanter rewrites cells and restores word formatting.
type Transplanter struct {
	Logger *slog.Logger
}

// Transplant replaces the content of cell with newValue and gives every new
// word that aligns with a word of oldValue the style that word had.
//
// The current cell content is sampled before the write, so oldValue should
// match it. Aligned words that fall outside the sampled cell are skipped.
func (t *Transplanter) Transplant(doc Document, cell, oldValue, newValue string) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	runs, err := doc.CellRuns(cell)
	if err != nil {
		return err
	}
	before := takeSnapshot(runs)

	if err := doc.SetCellText(cell, newValue); err != nil {
		return err
	}

	runs, err = doc.CellRuns(cell)
	if err != nil {
		return err
	}
	after := takeSnapshot(runs)
	if len(after.text) == 0 {
		return nil
	}

	styles := append([]*core.CharStyle(nil), after.styles...)
	skipped := 0
	for _, p := range align.Cover(oldValue, newValue).Pairs() {
		if p.Old >= len(before.words) || p.New >= len(after.words) {
			skipped++
			continue
		}
		style := before.words[p.Old].Style
		for _, ch := range after.words[p.New].Chars {
			styles[ch] = style
		}
	}
	if skipped > 0 {
		logger.Warn("cell content differs from the expected old value; some words were not restyled",
			"cell", cell, "skipped", skipped)
	}

	if err := doc.SetCellRuns(cell, collapse(after.text, styles)); err != nil {
		return fmt.Errorf("failed to restyle %s: %w", cell, err)
	}
	return nil
}

// Transplant is Transplanter.Transplant without logging.
func Transplant(doc Document, cell, oldValue, newValue string) error {
	return (&Transplanter{}).Transplant(doc, cell, oldValue, newValue)
}
