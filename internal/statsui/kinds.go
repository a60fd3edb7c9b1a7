package statsui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kewen/internal/model"
)

var kindColumns = []table.Column{
	{Title: "Kind", Width: 22},
	{Title: "Accuracy", Width: 9},
	{Title: "Avg Time (s)", Width: 12},
	{Title: "Correct", Width: 7},
	{Title: "Incorrect", Width: 9},
}

func kindTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	s.Cell = s.Cell.PaddingLeft(0)
	s.Selected = s.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return s
}

func newKindTable(aggs []model.KindAggregate, width, height int) table.Model {
	return table.New(
		table.WithColumns(kindColumns),
		table.WithRows(kindRows(aggs)),
		table.WithWidth(width),
		table.WithHeight(max(1, height-1)),
		table.WithStyles(kindTableStyles()),
	)
}

func answered(agg model.KindAggregate) int {
	return agg.Correct + agg.Incorrect
}

// kindRows lists kinds with the most answered questions first.
func kindRows(aggs []model.KindAggregate) []table.Row {
	sorted := append([]model.KindAggregate(nil), aggs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if answered(sorted[i]) != answered(sorted[j]) {
			return answered(sorted[i]) > answered(sorted[j])
		}
		return sorted[i].Kind < sorted[j].Kind
	})

	rows := make([]table.Row, len(sorted))
	for i, agg := range sorted {
		var acc, avg float64
		if n := answered(agg); n > 0 {
			acc = float64(agg.Correct) / float64(n) * 100
			avg = float64(agg.TimeSumMs) / float64(n) / 1000
		}
		rows[i] = table.Row{
			string(agg.Kind),
			fmt.Sprintf("%.1f%%", acc),
			fmt.Sprintf("%.1f", avg),
			strconv.Itoa(agg.Correct),
			strconv.Itoa(agg.Incorrect),
		}
	}
	return rows
}
