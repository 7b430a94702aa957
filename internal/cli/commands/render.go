package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sheetproof/internal/cli/config"
	"github.com/leapstack-labs/sheetproof/internal/engine"
	"github.com/leapstack-labs/sheetproof/pkg/core"
)

// tabular renders rows as a table in the configured output format.
func tabular(w io.Writer, format string, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)

	if format == config.OutputMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// oneLine keeps multi-line cell values on a single table row.
func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

func renderCorrections(w io.Writer, format string, corrections []core.Correction) error {
	if format == config.OutputJSON {
		if corrections == nil {
			corrections = []core.Correction{}
		}
		return renderJSON(w, corrections)
	}
	if len(corrections) == 0 {
		_, _ = fmt.Fprintln(w, "(0 corrections)")
		return nil
	}

	rows := make([]table.Row, len(corrections))
	for i, c := range corrections {
		rows[i] = table.Row{c.Cell, oneLine(c.OldValue), oneLine(c.NewValue), c.Status}
	}
	tabular(w, format, table.Row{"Cell", "Original", "Correction", "Status"}, rows)
	if format == config.OutputTable {
		_, _ = fmt.Fprintf(w, "(%d corrections)\n", len(corrections))
	}
	return nil
}

type fileView struct {
	ID        int64    `json:"id"`
	Path      string   `json:"path"`
	URL       string   `json:"url,omitempty"`
	Type      string   `json:"type"`
	Sheets    []string `json:"sheets"`
	CreatedAt string   `json:"created_at"`
}

func renderFiles(w io.Writer, format string, files []*core.FileRecord) error {
	views := make([]fileView, len(files))
	for i, f := range files {
		views[i] = fileView{
			ID:        f.ID,
			Path:      f.LocalPath,
			URL:       f.OnlineURL,
			Type:      f.FileType,
			Sheets:    f.SheetNames,
			CreatedAt: f.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	if format == config.OutputJSON {
		return renderJSON(w, views)
	}
	if len(views) == 0 {
		_, _ = fmt.Fprintln(w, "(0 files)")
		return nil
	}

	rows := make([]table.Row, len(views))
	for i, v := range views {
		rows[i] = table.Row{v.ID, v.Path, v.Type, strings.Join(v.Sheets, ", "), v.CreatedAt}
	}
	tabular(w, format, table.Row{"ID", "Path", "Type", "Sheets", "Added"}, rows)
	return nil
}

type checkView struct {
	Sheet        string            `json:"sheet"`
	RunID        string            `json:"run_id"`
	Cells        int               `json:"cells"`
	Batches      int               `json:"batches"`
	SkippedCells int               `json:"skipped_cells"`
	Corrections  []core.Correction `json:"corrections"`
}

func renderCheck(w io.Writer, format string, results []*engine.CheckResult) error {
	if format == config.OutputJSON {
		views := make([]checkView, len(results))
		for i, r := range results {
			corrections := r.Corrections
			if corrections == nil {
				corrections = []core.Correction{}
			}
			views[i] = checkView{
				Sheet:        r.Sheet,
				RunID:        r.Run.ID,
				Cells:        r.Cells,
				Batches:      r.Batches,
				SkippedCells: r.SkippedCells(),
				Corrections:  corrections,
			}
		}
		return renderJSON(w, views)
	}

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s: %d cells in %d batches, %d corrections\n",
			r.Sheet, r.Cells, r.Batches, len(r.Corrections))
		if n := r.SkippedCells(); n > 0 {
			_, _ = fmt.Fprintf(w, "  warning: %d cells were not checked (%d failed batches)\n", n, len(r.Skipped))
		}
		if len(r.Corrections) > 0 {
			if err := renderCorrections(w, format, r.Corrections); err != nil {
				return err
			}
		}
	}
	return nil
}
