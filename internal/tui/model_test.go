package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/kewen/internal/apiclient"
	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/quiz"
	"github.com/verte-zerg/kewen/internal/session"
)

type staticSource struct {
	quiz model.Quiz
	err  error
}

func (s staticSource) GenerateQuiz(context.Context, model.QuizRequest) (model.Quiz, error) {
	return s.quiz, s.err
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, src staticSource) *Model {
	t.Helper()
	ctrl := quiz.New(session.NewStore(), nil, nil, quiz.Config{})
	m := NewModel(ctrl, src, model.QuizRequest{ChapterID: "1", Kind: model.KindVocabulary}, nil, "")
	if m.phase != phaseLoading {
		t.Fatalf("expected loading phase, got %v", m.phase)
	}
	m.Update(m.Init()())
	return m
}

func TestChoiceFlowToResults(t *testing.T) {
	m := loaded(t, staticSource{quiz: model.Quiz{ID: "q", Questions: []model.Question{
		{ID: "1", Kind: model.KindVocabulary, Prompt: "hello?", Options: []string{"你好", "谢谢"}, CorrectAnswer: "你好"},
		{ID: "2", Kind: model.KindVocabulary, Prompt: "thanks?", Options: []string{"你好", "谢谢"}, CorrectAnswer: "谢谢"},
	}}})
	if m.phase != phaseQuestion {
		t.Fatalf("expected question phase, got %v", m.phase)
	}
	m.Update(key("1"))
	if m.phase != phaseFeedback || !m.outcome.Correct {
		t.Fatalf("expected correct feedback, got %+v", m.outcome)
	}
	if !strings.Contains(m.View(), "Correct! +10") {
		t.Fatalf("feedback missing: %s", m.View())
	}
	m.Update(key("enter"))
	m.Update(key("down"))
	m.Update(key("j"))
	m.Update(key("enter"))
	if !m.outcome.Complete || m.outcome.Correct != true {
		t.Fatalf("expected completing correct answer, got %+v", m.outcome)
	}
	m.Update(key("enter"))
	if m.phase != phaseResults {
		t.Fatalf("expected results phase, got %v", m.phase)
	}
	if !strings.Contains(m.View(), "Score: 20 / 20 (100%)") {
		t.Fatalf("results missing: %s", m.View())
	}
	if !m.hasLast || m.lastPct != 100 {
		t.Fatalf("expected footer stats updated, got %v", m.lastPct)
	}
}

func TestWordBankKeys(t *testing.T) {
	m := loaded(t, staticSource{quiz: model.Quiz{ID: "q", Questions: []model.Question{{
		ID:                 "1",
		Kind:               model.KindFillBlank,
		SentenceWithBlanks: "我___学生",
		WordBank:           []string{"是", "有"},
		Blanks:             []string{"是"},
	}}}})
	m.Update(key("9"))
	if m.phase != phaseQuestion {
		t.Fatalf("out of range slot must be ignored")
	}
	m.Update(key("1"))
	if m.phase != phaseFeedback || !m.outcome.Correct {
		t.Fatalf("expected auto-submitted correct blank, got %+v", m.outcome)
	}
	if got := fillBlanks(model.Question{SentenceWithBlanks: "a___b___"}, map[int]string{1: "x"}); got != "a____b[x]" {
		t.Fatalf("unexpected fill: %q", got)
	}
}

func TestMatchingKeys(t *testing.T) {
	m := loaded(t, staticSource{quiz: model.Quiz{ID: "q", Questions: []model.Question{{
		ID:   "1",
		Kind: model.KindMatching,
		Pairs: []model.MatchPair{
			{Left: "你好", Right: "hello"},
			{Left: "谢谢", Right: "thanks"},
		},
	}}}})
	// rights sorted: hello, thanks
	m.Update(key("2"))
	if m.notice != "Not a match." {
		t.Fatalf("expected mismatch notice, got %q", m.notice)
	}
	m.Update(key("1"))
	if m.cursor != 1 {
		t.Fatalf("expected cursor on next unmatched, got %d", m.cursor)
	}
	m.Update(key("2"))
	if m.phase != phaseFeedback || m.outcome.MatchScore != 95 {
		t.Fatalf("expected matching feedback at 95, got %+v", m.outcome)
	}
}

func TestLoadFailureShowsAuthMessage(t *testing.T) {
	m := loaded(t, staticSource{err: &apiclient.Error{Kind: apiclient.KindAuth, Status: 401}})
	if m.phase != phaseFailed || !strings.Contains(m.errMsg, "Sign in again") {
		t.Fatalf("expected auth failure, got %v %q", m.phase, m.errMsg)
	}
	m = loaded(t, staticSource{err: errors.New("boom")})
	if m.errMsg != "boom" {
		t.Fatalf("unexpected message %q", m.errMsg)
	}
}

func TestTypedAnswerShowsDiff(t *testing.T) {
	m := loaded(t, staticSource{quiz: model.Quiz{ID: "q", Questions: []model.Question{{
		ID:            "1",
		Kind:          model.KindTextInput,
		Prompt:        "pinyin for 你",
		CorrectAnswer: "nǐ",
		InputMode:     model.InputPinyin,
	}}}})
	m.Update(key("enter"))
	if m.notice == "" {
		t.Fatalf("expected notice for empty answer")
	}
	m.Update(key("n"))
	m.Update(key("i"))
	m.Update(key("enter"))
	if m.phase != phaseFeedback || m.outcome.Correct {
		t.Fatalf("expected incorrect typed answer, got %+v", m.outcome)
	}
	if !strings.Contains(m.View(), "Expected:") {
		t.Fatalf("expected diff in view")
	}
}
