package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
	// wide runes (Hanzi) allow a line break after them.
	wide bool
}

func styleText(text string, style lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   w,
			isSpace: r == ' ',
			wide:    w > 1,
		})
	}
	return out
}

// buildAnswerRunes styles answer against expected position by position. Runes
// past the end of expected count as wrong.
func buildAnswerRunes(answer, expected []rune) []styledRune {
	out := make([]styledRune, 0, len(answer))
	for i, r := range answer {
		displayed := r
		style := correctStyle
		switch {
		case i >= len(expected) || expected[i] != r:
			style = incorrectStyle
			if r == ' ' {
				displayed = '•'
			}
		}
		w := runewidth.RuneWidth(displayed)
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   w,
			isSpace: displayed == ' ',
			wide:    w > 1,
		})
	}
	return out
}

func wrapText(text string, width int, style lipgloss.Style) string {
	paragraphs := strings.Split(text, "\n")
	for i, p := range paragraphs {
		paragraphs[i] = wrapStyledRunes(styleText(p, style), width)
	}
	return strings.Join(paragraphs, "\n")
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastBreakIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastBreakIdx >= 0 {
				keep := line[:lastBreakIdx+1]
				if line[lastBreakIdx].isSpace {
					keep = line[:lastBreakIdx]
				}
				out.WriteString(renderStyledRunes(keep))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastBreakIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastBreakIdx = lastBreakIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastBreakIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace || item.wide {
			lastBreakIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastBreakIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace || line[i].wide {
			return i
		}
	}
	return -1
}
