package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

var plain = lipgloss.NewStyle()

func TestBuildAnswerRunesMarksMismatches(t *testing.T) {
	runes := buildAnswerRunes([]rune("nl3"), []rune("ni3"))
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("n") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != incorrectStyle.Render("l") {
		t.Fatalf("expected incorrect style for second rune")
	}
	if runes[2].s != correctStyle.Render("3") {
		t.Fatalf("expected correct style for third rune")
	}
}

func TestBuildAnswerRunesExtraRunesAreWrong(t *testing.T) {
	runes := buildAnswerRunes([]rune("ab c"), []rune("ab"))
	if runes[2].s != incorrectStyle.Render("•") {
		t.Fatalf("expected dot for extra space")
	}
	if runes[3].s != incorrectStyle.Render("c") {
		t.Fatalf("expected incorrect style for extra rune")
	}
}

func TestWrapBreaksAtSpaces(t *testing.T) {
	if got := wrapText("one two", 4, plain); got != "one\ntwo" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapBreaksBetweenHanzi(t *testing.T) {
	if got := wrapText("你好世界", 4, plain); got != "你好\n世界" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	runes := styleText("你", plain)
	if runes[0].width != 2 || !runes[0].wide {
		t.Fatalf("expected a wide rune, got %+v", runes[0])
	}
}

func TestWrapKeepsParagraphs(t *testing.T) {
	if got := wrapText("ab\ncd", 10, plain); got != "ab\ncd" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}
