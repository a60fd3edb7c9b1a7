package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column is one column of a plain-text report table.
type column struct {
	title string
	right bool
}

// textTable lays out report rows in aligned columns. Widths are measured in
// terminal cells so Hanzi rows line up with Latin ones.
type textTable struct {
	title   string
	columns []column
	rows    [][]string
}

func newTextTable(title string, columns ...column) *textTable {
	return &textTable{title: title, columns: columns}
}

func (t *textTable) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// lines renders the title, the header and every row. Cells past the last
// column are dropped.
func (t *textTable) lines() []string {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range t.rows {
		for i := range t.columns {
			widths[i] = max(widths[i], runewidth.StringWidth(cellAt(row, i)))
		}
	}

	out := make([]string, 0, len(t.rows)+2)
	if t.title != "" {
		out = append(out, t.title)
	}
	header := make([]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = c.title
	}
	out = append(out, t.join(header, widths))
	for _, row := range t.rows {
		out = append(out, t.join(row, widths))
	}
	return out
}

func (t *textTable) join(row []string, widths []int) string {
	cells := make([]string, len(t.columns))
	for i, c := range t.columns {
		if c.right {
			cells[i] = runewidth.FillLeft(cellAt(row, i), widths[i])
		} else {
			cells[i] = runewidth.FillRight(cellAt(row, i), widths[i])
		}
	}
	return strings.Join(cells, " ")
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
