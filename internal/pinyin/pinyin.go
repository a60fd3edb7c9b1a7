// Package pinyin canonicalizes pinyin transcriptions for comparison.
package pinyin

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type marked struct {
	base rune
	tone rune
}

var toneMarks = map[rune]marked{
	'ā': {'a', '1'}, 'á': {'a', '2'}, 'ǎ': {'a', '3'}, 'à': {'a', '4'},
	'ē': {'e', '1'}, 'é': {'e', '2'}, 'ě': {'e', '3'}, 'è': {'e', '4'},
	'ī': {'i', '1'}, 'í': {'i', '2'}, 'ǐ': {'i', '3'}, 'ì': {'i', '4'},
	'ō': {'o', '1'}, 'ó': {'o', '2'}, 'ǒ': {'o', '3'}, 'ò': {'o', '4'},
	'ū': {'u', '1'}, 'ú': {'u', '2'}, 'ǔ': {'u', '3'}, 'ù': {'u', '4'},
	'ǖ': {'v', '1'}, 'ǘ': {'v', '2'}, 'ǚ': {'v', '3'}, 'ǜ': {'v', '4'},
	'ü': {'v', 0},
	'ń': {'n', '2'}, 'ň': {'n', '3'}, 'ǹ': {'n', '4'},
	'ḿ': {'m', '2'},
}

// Normalize returns the canonical key of a pinyin string: lowercase letters
// with ü spelled v, separators removed, and each tone number 1-4 written
// right after the vowel that carries it. Tone numbers bind to the syllable
// they follow; tone marks bind where they stand. Neutral tones (5, 0 or
// unmarked) carry no digit.
//
//	Normalize("xué sheng") == Normalize("xue2sheng") == "xue2sheng"
//	Normalize("hǎo") == Normalize("hao3") == "ha3o"
func Normalize(s string) string {
	s = norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
	s = strings.ReplaceAll(s, "u:", "v")

	var out []rune
	// syllable is where the letters not yet tied to a tone begin.
	syllable := 0
	for _, r := range s {
		if m, ok := toneMarks[r]; ok {
			out = append(out, m.base)
			if m.tone != 0 {
				out = append(out, m.tone)
				syllable = len(out)
			}
			continue
		}
		switch {
		case r >= '1' && r <= '4':
			out = placeTone(out, syllable, r)
			syllable = len(out)
		case unicode.IsLetter(r):
			out = append(out, r)
		default:
			syllable = len(out)
		}
	}
	return string(out)
}

// placeTone inserts tone after the vowel of out[from:] that takes the mark:
// a or e when present, o in "ou", otherwise the last vowel of the final
// vowel group.
func placeTone(out []rune, from int, tone rune) []rune {
	end := -1
	for i := len(out) - 1; i >= from; i-- {
		if isVowel(out[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return append(out, tone)
	}
	start := end
	for start > from && isVowel(out[start-1]) {
		start--
	}

	pos := end
	if a := indexRune(out, start, end, 'a'); a >= 0 {
		pos = a
	} else if e := indexRune(out, start, end, 'e'); e >= 0 {
		pos = e
	} else if o := indexRune(out, start, end, 'o'); o >= 0 && o < end && out[o+1] == 'u' {
		pos = o
	}
	tail := append([]rune{tone}, out[pos+1:]...)
	return append(out[:pos+1], tail...)
}

func indexRune(rs []rune, start, end int, want rune) int {
	for i := start; i <= end; i++ {
		if rs[i] == want {
			return i
		}
	}
	return -1
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'v':
		return true
	}
	return false
}

// Equal reports whether two pinyin spellings are equivalent.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
