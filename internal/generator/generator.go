// Package generator builds quizzes from a local chapter deck.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/kewen/internal/deck"
	"github.com/verte-zerg/kewen/internal/model"
)

const (
	optionCount  = 4
	maxPairs     = 5
	extraBankLen = 3
)

// Generator produces randomized quizzes.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Supports reports whether kind can be generated offline.
func Supports(kind model.ExerciseKind) bool {
	switch kind {
	case model.KindVocabulary, model.KindTextInput, model.KindMatching,
		model.KindFillBlank, model.KindSentence:
		return true
	}
	return false
}

// Generate builds a quiz of count questions of kind from a chapter.
func (g *Generator) Generate(ch deck.Chapter, kind model.ExerciseKind, count int) (model.Quiz, error) {
	if count <= 0 {
		return model.Quiz{}, fmt.Errorf("count must be positive")
	}
	var questions []model.Question
	var err error
	switch kind {
	case model.KindVocabulary:
		questions, err = g.vocabulary(ch, count)
	case model.KindTextInput:
		questions, err = g.textInput(ch, count)
	case model.KindMatching:
		questions, err = g.matching(ch, count)
	case model.KindFillBlank:
		questions, err = g.fillBlank(ch, count)
	case model.KindSentence:
		questions, err = g.sentence(ch, count)
	default:
		return model.Quiz{}, fmt.Errorf("%s quizzes need the quiz service", kind)
	}
	if err != nil {
		return model.Quiz{}, err
	}
	for i := range questions {
		questions[i].ID = fmt.Sprintf("%s-%d", kind, i+1)
		questions[i].Kind = kind
		questions[i].SourceCitation = fmt.Sprintf("chapter %s", ch.ID)
	}
	return model.Quiz{ID: uuid.NewString(), Questions: questions}, nil
}

func (g *Generator) vocabulary(ch deck.Chapter, count int) ([]model.Question, error) {
	words := deck.Filter(ch.Words, deck.FilterForKind(model.KindVocabulary))
	if len(words) < 2 {
		return nil, fmt.Errorf("chapter %s needs at least 2 words with translations", ch.ID)
	}
	picked := g.pick(len(words), count)
	out := make([]model.Question, 0, len(picked))
	for _, idx := range picked {
		w := words[idx]
		out = append(out, model.Question{
			Prompt:        fmt.Sprintf("What does %s mean?", w.Hanzi),
			CorrectAnswer: w.English,
			Options:       g.options(words, idx, func(w deck.Word) string { return w.English }),
			Explanation:   fmt.Sprintf("%s (%s) means %q.", w.Hanzi, w.Pinyin, w.English),
		})
	}
	return out, nil
}

func (g *Generator) textInput(ch deck.Chapter, count int) ([]model.Question, error) {
	words := deck.Filter(ch.Words, deck.FilterForKind(model.KindTextInput))
	if len(words) == 0 {
		return nil, fmt.Errorf("chapter %s has no words with pinyin", ch.ID)
	}
	picked := g.pick(len(words), count)
	out := make([]model.Question, 0, len(picked))
	for _, idx := range picked {
		w := words[idx]
		out = append(out, model.Question{
			Prompt:        fmt.Sprintf("Type the pinyin for %s", w.Hanzi),
			CorrectAnswer: w.Pinyin,
			Placeholder:   "e.g. ni3 hao3",
			InputMode:     model.InputPinyin,
			Explanation:   fmt.Sprintf("%s is read %s.", w.Hanzi, w.Pinyin),
		})
	}
	return out, nil
}

func (g *Generator) matching(ch deck.Chapter, count int) ([]model.Question, error) {
	words := deck.Filter(ch.Words, deck.FilterForKind(model.KindMatching))
	if len(words) < 2 {
		return nil, fmt.Errorf("chapter %s needs at least 2 words with translations", ch.ID)
	}
	size := min(maxPairs, len(words))
	out := make([]model.Question, 0, count)
	for i := 0; i < count; i++ {
		perm := g.rnd.Perm(len(words))[:size]
		pairs := make([]model.MatchPair, 0, size)
		for _, idx := range perm {
			pairs = append(pairs, model.MatchPair{Left: words[idx].Hanzi, Right: words[idx].English})
		}
		out = append(out, model.Question{
			Prompt: "Match each word with its meaning",
			Pairs:  pairs,
		})
	}
	return out, nil
}

func (g *Generator) fillBlank(ch deck.Chapter, count int) ([]model.Question, error) {
	sentences := usableSentences(ch.Sentences, 2)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("chapter %s has no sentences to blank", ch.ID)
	}
	picked := g.pick(len(sentences), count)
	out := make([]model.Question, 0, len(picked))
	for _, idx := range picked {
		s := sentences[idx]
		blankAt := g.rnd.Intn(len(s.Words))
		parts := make([]string, len(s.Words))
		copy(parts, s.Words)
		answer := parts[blankAt]
		parts[blankAt] = model.BlankMarker

		bank := []string{answer}
		for _, w := range g.rnd.Perm(len(ch.Words)) {
			if len(bank) > extraBankLen {
				break
			}
			if hz := ch.Words[w].Hanzi; hz != answer {
				bank = append(bank, hz)
			}
		}
		g.rnd.Shuffle(len(bank), func(i, j int) { bank[i], bank[j] = bank[j], bank[i] })

		out = append(out, model.Question{
			Prompt:             "Fill in the blank",
			SentenceWithBlanks: strings.Join(parts, ""),
			WordBank:           bank,
			Blanks:             []string{answer},
			CorrectAnswer:      answer,
			Explanation:        fmt.Sprintf("%s: %s", s.Hanzi, s.English),
		})
	}
	return out, nil
}

func (g *Generator) sentence(ch deck.Chapter, count int) ([]model.Question, error) {
	sentences := usableSentences(ch.Sentences, 2)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("chapter %s has no sentences to build", ch.ID)
	}
	picked := g.pick(len(sentences), count)
	out := make([]model.Question, 0, len(picked))
	for _, idx := range picked {
		s := sentences[idx]
		scrambled := make([]string, len(s.Words))
		copy(scrambled, s.Words)
		g.rnd.Shuffle(len(scrambled), func(i, j int) { scrambled[i], scrambled[j] = scrambled[j], scrambled[i] })
		out = append(out, model.Question{
			Prompt:         fmt.Sprintf("Build the sentence: %s", s.English),
			ScrambledWords: scrambled,
			CorrectAnswer:  strings.Join(s.Words, ""),
			Explanation:    s.Hanzi,
		})
	}
	return out, nil
}

// pick selects count indexes from n, without repeats until n is exhausted.
func (g *Generator) pick(n, count int) []int {
	out := make([]int, 0, count)
	for len(out) < count {
		perm := g.rnd.Perm(n)
		for _, idx := range perm {
			if len(out) == count {
				break
			}
			out = append(out, idx)
		}
	}
	return out
}

// options returns up to optionCount shuffled labels including the correct one.
func (g *Generator) options(words []deck.Word, correct int, label func(deck.Word) string) []string {
	opts := []string{label(words[correct])}
	seen := map[string]bool{opts[0]: true}
	for _, idx := range g.rnd.Perm(len(words)) {
		if len(opts) == optionCount {
			break
		}
		l := label(words[idx])
		if seen[l] {
			continue
		}
		seen[l] = true
		opts = append(opts, l)
	}
	g.rnd.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

func usableSentences(sentences []deck.Sentence, minWords int) []deck.Sentence {
	out := make([]deck.Sentence, 0, len(sentences))
	for _, s := range sentences {
		if len(s.Words) >= minWords {
			out = append(out, s)
		}
	}
	return out
}
