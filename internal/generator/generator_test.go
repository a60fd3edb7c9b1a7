package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/verte-zerg/kewen/internal/deck"
	"github.com/verte-zerg/kewen/internal/model"
)

func chapter() deck.Chapter {
	return deck.Chapter{
		ID: "1",
		Words: []deck.Word{
			{Hanzi: "你好", Pinyin: "nǐ hǎo", English: "hello"},
			{Hanzi: "谢谢", Pinyin: "xièxie", English: "thanks"},
			{Hanzi: "再见", Pinyin: "zàijiàn", English: "goodbye"},
			{Hanzi: "学生", Pinyin: "xuésheng", English: "student"},
			{Hanzi: "老师", Pinyin: "lǎoshī", English: "teacher"},
			{Hanzi: "我", Pinyin: "wǒ", English: "I"},
		},
		Sentences: []deck.Sentence{
			{Hanzi: "我是学生", Words: []string{"我", "是", "学生"}, English: "I am a student"},
			{Hanzi: "你好", Words: []string{"你好"}},
		},
	}
}

func TestVocabularyOptionsContainAnswer(t *testing.T) {
	quiz, err := NewWithSeed(1).Generate(chapter(), model.KindVocabulary, 8)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if quiz.ID == "" || len(quiz.Questions) != 8 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	for _, q := range quiz.Questions {
		if q.Kind != model.KindVocabulary || len(q.Options) != optionCount {
			t.Fatalf("unexpected question: %+v", q)
		}
		found := false
		for _, o := range q.Options {
			if o == q.CorrectAnswer {
				found = true
			}
		}
		if !found {
			t.Fatalf("options %v miss answer %q", q.Options, q.CorrectAnswer)
		}
	}
}

func TestPickCoversAllBeforeRepeating(t *testing.T) {
	g := NewWithSeed(3)
	seen := map[int]bool{}
	for _, idx := range g.pick(6, 6) {
		seen[idx] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct picks, got %d", len(seen))
	}
}

func TestFillBlankHasAnswerInBank(t *testing.T) {
	quiz, err := NewWithSeed(2).Generate(chapter(), model.KindFillBlank, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, q := range quiz.Questions {
		if strings.Count(q.SentenceWithBlanks, model.BlankMarker) != 1 {
			t.Fatalf("expected one blank in %q", q.SentenceWithBlanks)
		}
		if q.BlankCount() != 1 {
			t.Fatalf("expected blank count 1, got %d", q.BlankCount())
		}
		found := false
		for _, w := range q.WordBank {
			if w == q.Blanks[0] {
				found = true
			}
		}
		if !found {
			t.Fatalf("word bank %v misses %q", q.WordBank, q.Blanks[0])
		}
	}
}

func TestSentenceScramblesWords(t *testing.T) {
	quiz, err := NewWithSeed(4).Generate(chapter(), model.KindSentence, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, q := range quiz.Questions {
		if q.CorrectAnswer != "我是学生" || len(q.ScrambledWords) != 3 {
			t.Fatalf("unexpected question: %+v", q)
		}
	}
}

func TestMatchingAndTextInput(t *testing.T) {
	g := NewWithSeed(5)
	quiz, err := g.Generate(chapter(), model.KindMatching, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(quiz.Questions[0].Pairs) != maxPairs {
		t.Fatalf("expected %d pairs, got %d", maxPairs, len(quiz.Questions[0].Pairs))
	}
	quiz, err = g.Generate(chapter(), model.KindTextInput, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if quiz.Questions[0].InputMode != model.InputPinyin {
		t.Fatalf("expected pinyin input mode")
	}
}

func TestUnsupportedKind(t *testing.T) {
	if Supports(model.KindReading) {
		t.Fatalf("reading should need the quiz service")
	}
	if _, err := New().Generate(chapter(), model.KindDialogue, 1); err == nil {
		t.Fatalf("expected error for dialogue")
	}
	if _, err := New().Generate(chapter(), model.KindVocabulary, 0); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestDeckSourceUsesChapter(t *testing.T) {
	src := DeckSource{Gen: NewWithSeed(6), Deck: deck.Deck{Book: "hsk1", Chapters: []deck.Chapter{chapter()}}}
	quiz, err := src.GenerateQuiz(context.Background(), model.QuizRequest{ChapterID: "1", Kind: model.KindVocabulary, Count: 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(quiz.Questions) != 2 || quiz.Questions[0].SourceCitation != "chapter 1" {
		t.Fatalf("unexpected quiz: %+v", quiz.Questions)
	}
	if _, err := src.GenerateQuiz(context.Background(), model.QuizRequest{ChapterID: "9", Kind: model.KindVocabulary, Count: 1}); err == nil {
		t.Fatalf("expected error for unknown chapter")
	}
}
