package core

// CharStyle is the font formatting of one character.
type CharStyle struct {
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Color  string  `json:"color,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Font   string  `json:"font,omitempty"`
}

// TextRun is a span of text sharing one style. A nil Style inherits the
// cell's default font.
type TextRun struct {
	Text  string
	Style *CharStyle
}

// RunsText concatenates the text of all runs.
func RunsText(runs []TextRun) string {
	n := 0
	for _, r := range runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// Equal reports whether two styles are identical. Two nil styles are equal.
func (s *CharStyle) Equal(other *CharStyle) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}
