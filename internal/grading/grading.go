// Package grading holds the local correctness rules for quiz answers.
package grading

import (
	"math"
	"strings"
	"unicode"

	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/pinyin"
)

// PassingMatchScore is the matching score at which the question counts as correct.
const PassingMatchScore = 50

// IncorrectMatchPenalty is deducted per wrong matching attempt.
const IncorrectMatchPenalty = 5

// CheckChoice compares a chosen option against the canonical answer,
// ignoring surrounding whitespace and case.
func CheckChoice(answer, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(correct))
}

// CheckTyped compares a typed answer. Pinyin mode folds tone marks,
// tone numbers and ü/v spelling before comparing.
func CheckTyped(answer, correct string, mode model.InputMode) bool {
	if mode == model.InputPinyin {
		if strings.TrimSpace(answer) == "" {
			return false
		}
		return pinyin.Equal(answer, correct)
	}
	return CheckChoice(answer, correct)
}

// CheckBlanks compares each filled blank with its canonical token. The
// second return value is true only when every blank is correct.
func CheckBlanks(filled map[int]string, key []string) ([]bool, bool) {
	results := make([]bool, len(key))
	all := len(key) > 0
	for i, want := range key {
		got, ok := filled[i]
		results[i] = ok && strings.TrimSpace(got) == want
		if !results[i] {
			all = false
		}
	}
	return results, all
}

// CheckBlanksJoined compares the filled blanks, joined in order, with the
// answer stripped of separators. Every blank gets the overall verdict.
func CheckBlanksJoined(filled map[int]string, count int, answer string) ([]bool, bool) {
	var got strings.Builder
	all := count > 0
	for i := 0; i < count; i++ {
		word, ok := filled[i]
		if !ok {
			all = false
		}
		got.WriteString(strings.TrimSpace(word))
	}
	want := strings.Join(strings.FieldsFunc(answer, isAnswerSeparator), "")
	correct := all && got.String() == want
	results := make([]bool, count)
	for i := range results {
		results[i] = correct
	}
	return results, correct
}

func isAnswerSeparator(r rune) bool {
	return r == ',' || r == '，' || r == '、' || unicode.IsSpace(r)
}

// MatchingScore returns round(matched/total*100) minus the per-attempt
// penalty, floored at zero.
func MatchingScore(matched, total, incorrect int) int {
	if total <= 0 {
		return 0
	}
	score := int(math.Round(float64(matched)/float64(total)*100)) - IncorrectMatchPenalty*incorrect
	if score < 0 {
		return 0
	}
	return score
}

// MatchingPoints converts a matching score into session points.
func MatchingPoints(score, pointsPerQuestion int) int {
	return int(math.Round(float64(score) / 100 * float64(pointsPerQuestion)))
}

// MatchingPassed reports whether a matching score counts as correct.
func MatchingPassed(score int) bool {
	return score >= PassingMatchScore
}
