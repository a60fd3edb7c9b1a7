// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kewen/internal/apiclient"
	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/quiz"
	statsPkg "github.com/verte-zerg/kewen/internal/stats"
)

// QuizSource produces quizzes.
type QuizSource interface {
	GenerateQuiz(ctx context.Context, req model.QuizRequest) (model.Quiz, error)
}

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseFeedback
	phaseResults
	phaseFailed
)

type quizLoadedMsg struct {
	quiz model.Quiz
	err  error
}

type outcomeMsg struct {
	out quiz.Outcome
	err error
}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	ctrl   *quiz.Controller
	source QuizSource
	req    model.QuizRequest
	stats  statsPkg.Source
	userID string

	phase  phase
	width  int
	height int

	input   textinput.Model
	spinner spinner.Model
	pending bool

	cursor   int
	notice   string
	errMsg   string
	outcome  *quiz.Outcome
	subNotes []string

	lastPct float64
	bestPct float64
	hasLast bool
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a quiz TUI model. When ctrl already holds an active
// session, the UI picks it up instead of requesting a new quiz.
func NewModel(ctrl *quiz.Controller, source QuizSource, req model.QuizRequest, st statsPkg.Source, userID string) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	m := &Model{
		ctrl:    ctrl,
		source:  source,
		req:     req,
		stats:   st,
		userID:  userID,
		input:   input,
		spinner: sp,
	}
	switch {
	case ctrl.IsComplete():
		m.phase = phaseResults
	case ctrl.HasActiveQuiz():
		m.enterQuestion()
	default:
		m.phase = phaseLoading
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.phase == phaseLoading {
		return m.loadQuiz()
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.contentWidth()-4)
		return m, nil
	case quizLoadedMsg:
		return m, m.startQuiz(msg)
	case outcomeMsg:
		m.pending = false
		if msg.err != nil {
			m.notice = describeError(msg.err)
			return m, nil
		}
		m.showOutcome(msg.out)
		return m, nil
	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseLoading:
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
	case phaseFailed:
		switch msg.String() {
		case "r":
			m.phase = phaseLoading
			return m, m.loadQuiz()
		case "q", "esc":
			return m, tea.Quit
		}
	case phaseFeedback:
		switch msg.String() {
		case "enter", " ":
			return m, m.advance()
		case "q", "esc":
			return m, tea.Quit
		}
	case phaseResults:
		switch msg.String() {
		case "n", "enter":
			m.ctrl.Continue()
			m.phase = phaseLoading
			return m, m.loadQuiz()
		case "q", "esc":
			return m, tea.Quit
		}
	case phaseQuestion:
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.pending {
			return m, nil
		}
		return m.handleAnswerKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderBody()
	if m.width == 0 || m.height == 0 {
		return content
	}
	contentWidth := m.contentWidth()
	content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) loadQuiz() tea.Cmd {
	src, req := m.source, m.req
	return func() tea.Msg {
		q, err := src.GenerateQuiz(context.Background(), req)
		return quizLoadedMsg{quiz: q, err: err}
	}
}

func (m *Model) startQuiz(msg quizLoadedMsg) tea.Cmd {
	if msg.err == nil && len(msg.quiz.Questions) == 0 {
		msg.err = quiz.ErrNoQuestion
	}
	if msg.err != nil {
		m.phase = phaseFailed
		m.errMsg = describeError(msg.err)
		return nil
	}
	meta := model.QuizMeta{ChapterID: m.req.ChapterID, BookID: m.req.BookID, Kind: m.req.Kind}
	if err := m.ctrl.Start(msg.quiz, meta); err != nil {
		m.phase = phaseFailed
		m.errMsg = describeError(err)
		return nil
	}
	return m.enterQuestion()
}

func (m *Model) enterQuestion() tea.Cmd {
	m.phase = phaseQuestion
	m.cursor = 0
	m.notice = ""
	m.outcome = nil
	m.subNotes = nil
	m.input.Reset()
	q, ok := m.ctrl.Store().CurrentQuestion()
	if !ok || !usesTextInput(q) {
		m.input.Blur()
		return nil
	}
	m.input.Placeholder = q.Placeholder
	return m.input.Focus()
}

func (m *Model) advance() tea.Cmd {
	if m.ctrl.IsComplete() {
		m.phase = phaseResults
		return nil
	}
	if err := m.ctrl.Next(); err != nil {
		m.notice = describeError(err)
		return nil
	}
	return m.enterQuestion()
}

func (m *Model) showOutcome(out quiz.Outcome) {
	m.outcome = &out
	m.phase = phaseFeedback
	m.input.Blur()
	if out.Complete {
		r := m.ctrl.Results()
		if r.MaxScore > 0 {
			m.lastPct = float64(r.Score) / float64(r.MaxScore) * 100
			m.bestPct = max(m.bestPct, m.lastPct)
			m.hasLast = true
		}
	}
}

func (m *Model) loadFooterStats() {
	if m.stats == nil {
		return
	}
	attempts, err := m.stats.ListAttempts(context.Background(), model.StatsConfig{UserID: m.userID, Kind: m.req.Kind})
	if err != nil {
		logErrf("failed to load quiz stats: %v\n", err)
		return
	}
	if len(attempts) == 0 {
		return
	}
	m.lastPct, _ = statsPkg.AttemptMetrics(attempts[len(attempts)-1])
	m.hasLast = true
	for _, a := range attempts {
		pct, _ := statsPkg.AttemptMetrics(a)
		m.bestPct = max(m.bestPct, pct)
	}
}

func (m *Model) renderBody() string {
	switch m.phase {
	case phaseLoading:
		return pendingStyle.Render("Generating quiz...")
	case phaseFailed:
		return incorrectStyle.Render(m.errMsg) + "\n\n" + footerStyle.Render("r: retry  q: quit")
	case phaseResults:
		return m.renderResults()
	}
	q, ok := m.ctrl.Store().CurrentQuestion()
	if !ok {
		return ""
	}
	parts := []string{m.renderQuestion(q)}
	if m.phase == phaseFeedback && m.outcome != nil {
		parts = append(parts, m.renderFeedback(q, *m.outcome))
	} else {
		if m.pending {
			parts = append(parts, m.spinner.View()+pendingStyle.Render(" Checking answer..."))
		}
		if m.notice != "" {
			parts = append(parts, incorrectStyle.Render(m.notice))
		}
		parts = append(parts, footerStyle.Render(answerHelp(q)))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderFeedback(q model.Question, out quiz.Outcome) string {
	var lines []string
	if out.Correct {
		lines = append(lines, correctStyle.Render(fmt.Sprintf("Correct! +%d", out.Points)))
	} else {
		verdict := "Incorrect"
		if out.Points > 0 {
			verdict = fmt.Sprintf("Partly right: +%d", out.Points)
		}
		lines = append(lines, incorrectStyle.Render(verdict))
	}
	if v := out.Validation; v != nil && v.IsAlternative {
		lines = append(lines, correctStyle.Render("Accepted as an alternative answer."))
	}
	if q.Kind == model.KindMatching {
		lines = append(lines, fmt.Sprintf("Matching score: %d%%", out.MatchScore))
	}
	for i, ok := range out.BlankResults {
		mark := correctStyle.Render("✓")
		if !ok {
			mark = incorrectStyle.Render("✗")
		}
		lines = append(lines, fmt.Sprintf("Blank %d %s", i+1, mark))
	}
	if !out.Correct && isTyped(q) && q.CorrectAnswer != "" {
		width := m.contentWidth()
		lines = append(lines,
			"Your answer: "+wrapStyledRunes(buildAnswerRunes([]rune(out.Answer), []rune(q.CorrectAnswer)), width),
			"Expected:    "+promptStyle.Render(q.CorrectAnswer))
	} else if !out.Correct && q.CorrectAnswer != "" && q.Kind != model.KindReading {
		lines = append(lines, "Answer: "+promptStyle.Render(q.CorrectAnswer))
	}
	if out.Explanation != "" {
		lines = append(lines, wrapText(out.Explanation, m.contentWidth(), pendingStyle))
	}
	next := "enter: next question"
	if out.Complete {
		next = "enter: see results"
	}
	lines = append(lines, footerStyle.Render(next))
	return strings.Join(lines, "\n")
}

func (m *Model) renderResults() string {
	r := m.ctrl.Results()
	pct := 0
	if r.MaxScore > 0 {
		pct = r.Score * 100 / r.MaxScore
	}
	lines := []string{
		headerStyle.Render("Quiz complete"),
		fmt.Sprintf("Score: %d / %d (%d%%)", r.Score, r.MaxScore, pct),
		fmt.Sprintf("Correct answers: %d / %d", r.CorrectCount, r.Total),
		"",
		footerStyle.Render("n: new quiz  q: quit"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	st := m.ctrl.Store()
	if !st.HasActiveQuiz() {
		return ""
	}
	index := min(st.Cursor()+1, st.Len())
	segments := []string{
		fmt.Sprintf("Question %d/%d", index, st.Len()),
		fmt.Sprintf("Score %d", st.Score()),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.0f%% · Best %.0f%%", m.lastPct, m.bestPct))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func describeError(err error) string {
	switch apiclient.KindOf(err) {
	case apiclient.KindAuth:
		return "Your session has expired. Sign in again and retry."
	case apiclient.KindTimeout:
		return "The quiz service took too long to respond."
	case apiclient.KindNetwork:
		return "Cannot reach the quiz service. Check your connection."
	case apiclient.KindNotFound:
		return "That chapter has no quiz content yet."
	}
	if errors.Is(err, quiz.ErrNoQuestion) {
		return "The quiz came back empty."
	}
	return err.Error()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
