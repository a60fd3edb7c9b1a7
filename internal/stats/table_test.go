package stats

import "testing"

func TestTextTableAlignsColumns(t *testing.T) {
	tbl := newTextTable("Kinds",
		column{title: "Kind"},
		column{title: "Accuracy", right: true},
		column{title: "Correct", right: true},
	)
	tbl.add("matching", "97.50%", "12")
	tbl.add("reading", "8.00%", "3")

	lines := tbl.lines()
	want := []string{
		"Kinds",
		"Kind     Accuracy Correct",
		"matching   97.50%      12",
		"reading     8.00%       3",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTextTableCountsWideRunes(t *testing.T) {
	tbl := newTextTable("", column{title: "Word"}, column{title: "N"})
	tbl.add("你好", "1")
	tbl.add("hi")

	lines := tbl.lines()
	if lines[1] != "你好 1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "hi    " {
		t.Fatalf("short row must pad missing cells: %q", lines[2])
	}
}
