package model

import (
	"fmt"
	"strings"
	"unicode"
)

// BlankMarker marks a blank inside SentenceWithBlanks.
const BlankMarker = "___"

// Tile is one movable word of a sentence-construction question.
type Tile struct {
	ID   string
	Word string
}

// Tiles returns the scrambled words as tiles. Ids follow scrambled positions
// so repeated words stay distinct.
func (q Question) Tiles() []Tile {
	tiles := make([]Tile, len(q.ScrambledWords))
	for i, w := range q.ScrambledWords {
		tiles[i] = Tile{ID: fmt.Sprintf("t%d", i), Word: w}
	}
	return tiles
}

// BlankKey returns the canonical token for every blank, in order. Without
// explicit blanks the correct answer is split into tokens; an unseparated
// answer with exactly one character per blank is split per character. The
// key is nil when no split yields one token per blank.
func (q Question) BlankKey() []string {
	if len(q.Blanks) > 0 {
		out := make([]string, len(q.Blanks))
		for i, b := range q.Blanks {
			out[i] = strings.TrimSpace(b)
		}
		return out
	}
	count := q.BlankCount()
	tokens := splitAnswerTokens(q.CorrectAnswer)
	if len(tokens) == count {
		return tokens
	}
	if len(tokens) == 1 {
		if chars := []rune(tokens[0]); len(chars) == count {
			out := make([]string, count)
			for i, r := range chars {
				out[i] = string(r)
			}
			return out
		}
	}
	return nil
}

// BlankCount returns how many blanks the question has.
func (q Question) BlankCount() int {
	if len(q.Blanks) > 0 {
		return len(q.Blanks)
	}
	if n := strings.Count(q.SentenceWithBlanks, BlankMarker); n > 0 {
		return n
	}
	return len(splitAnswerTokens(q.CorrectAnswer))
}

// BlankedLine returns the index of the first dialogue line to complete, or -1.
func (q Question) BlankedLine() int {
	for i, line := range q.Dialogue {
		if line.IsBlank {
			return i
		}
	}
	return -1
}

func splitAnswerTokens(answer string) []string {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == '，' || r == '、' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
