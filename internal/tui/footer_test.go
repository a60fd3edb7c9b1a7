package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/quiz"
	"github.com/verte-zerg/kewen/internal/session"
)

func TestRenderFooterFormats(t *testing.T) {
	st := session.NewStore()
	st.StartSession("quiz-1", []model.Question{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}})
	st.Advance()
	st.AddScore(10)
	m := &Model{
		ctrl:    quiz.New(st, nil, nil, quiz.Config{}),
		hasLast: true,
		lastPct: 72.4,
		bestPct: 96.9,
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Question 2/4", "Score 10", "Last 72%", "Best 97%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterEmptyWhenIdle(t *testing.T) {
	m := &Model{ctrl: quiz.New(session.NewStore(), nil, nil, quiz.Config{})}
	if out := m.renderFooter(); out != "" {
		t.Fatalf("expected no footer, got %q", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
