package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/kewen/internal/model"
)

func TestAttemptMetrics(t *testing.T) {
	pct, acc := AttemptMetrics(model.QuizAttempt{Score: 15, MaxScore: 20, TotalQuestions: 4, CorrectCount: 3})
	if pct != 75 || acc != 0.75 {
		t.Fatalf("unexpected metrics: %v %v", pct, acc)
	}
	pct, acc = AttemptMetrics(model.QuizAttempt{})
	if pct != 0 || acc != 0 {
		t.Fatalf("expected zero metrics, got %v %v", pct, acc)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 100}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
}

func TestWeakestKinds(t *testing.T) {
	aggs := []model.KindAggregate{
		{Kind: model.KindMatching, Correct: 9, Incorrect: 1},
		{Kind: model.KindReading, Correct: 1, Incorrect: 3},
		{Kind: model.KindGrammar, Correct: 2, Incorrect: 2},
		{Kind: model.KindDialogue},
	}
	weak := WeakestKinds(aggs, 2)
	if len(weak) != 2 || weak[0] != model.KindReading || weak[1] != model.KindGrammar {
		t.Fatalf("unexpected weak kinds: %v", weak)
	}
}

func TestRenderReport(t *testing.T) {
	mastered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := Report{
		Attempts: []model.QuizAttempt{
			{QuizID: "a", Score: 10, MaxScore: 20, TotalQuestions: 2, CorrectCount: 1},
			{QuizID: "b", Score: 20, MaxScore: 20, TotalQuestions: 2, CorrectCount: 2},
		},
		Kinds: []model.KindAggregate{
			{Kind: model.KindFillBlank, Correct: 3, Incorrect: 1, TimeSumMs: 8000},
		},
		Mastery: []model.Mastery{
			{Kind: model.KindFillBlank, BestScore: 100, Attempts: 2, MasteredAt: &mastered},
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, report, 1, 40); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Quizzes: 2",
		"Avg Score: 75.0%",
		"Best Score: 100.0%",
		"50.0% -> 100.0% over 2 quizzes",
		"fill in blank",
		"75.0%",
		"Practice next: fill in blank",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Report{}, 5, 80); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No quiz attempts found." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
