// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/stats"
)

const (
	tabOverview = iota
	tabKinds
	tabMastery
	tabCount
)

var tabTitles = [tabCount]string{"Overview", "Kinds", "Mastery"}

// Width used before the first window size message.
const fallbackWidth = 80

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true)
	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	idleTabStyle = tabStyle.
			Foreground(lipgloss.Color("#B0B0B0")).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI. Overview and mastery are
// scrollable pages; the kinds tab is an interactive table.
type Model struct {
	source stats.Source
	cfg    model.StatsConfig

	report  stats.Report
	loadErr string

	tab   int
	pages [tabCount]viewport.Model
	kinds table.Model
	form  filterForm

	width  int
	height int
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(src stats.Source, cfg model.StatsConfig) *Model {
	if cfg.Window <= 0 {
		cfg.Window = 5
	}
	m := &Model{source: src, cfg: cfg, form: newFilterForm()}
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.renderPages()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.form.active {
		cfg, applied, cmd := m.form.update(msg, m.cfg)
		if applied {
			m.cfg = cfg
			m.reload()
			m.resize()
		}
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.selectTab(m.tab - 1)
		return m, tea.ClearScreen
	case "right", "l":
		m.selectTab(m.tab + 1)
		return m, tea.ClearScreen
	case "=":
		m.cfg.Window += 5 - m.cfg.Window%5
		m.renderPages()
		return m, nil
	case "-":
		m.cfg.Window = max(1, m.cfg.Window-5)
		m.renderPages()
		return m, nil
	case "/":
		return m, m.form.open(m.cfg)
	}

	var cmd tea.Cmd
	if m.tab == tabKinds {
		m.kinds, cmd = m.kinds.Update(msg)
	} else {
		m.pages[m.tab], cmd = m.pages[m.tab].Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	top, body, bottom := m.heights()
	return strings.Join([]string{
		frame(m.header(), m.width, top),
		frame(m.body(), m.width, body),
		frame(m.footer(), m.width, bottom),
	}, "\n")
}

// heights splits the window into header, body and footer rows.
func (m *Model) heights() (top, body, bottom int) {
	top = max(1, lipgloss.Height(activeTabStyle.Render("X"))) + 1
	bottom = 1
	if !m.form.active && m.loadErr != "" {
		bottom = 2
	}
	return top, max(1, m.height-top-bottom), bottom
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.heights()
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = body
	}
	m.kinds.SetWidth(m.width)
	m.kinds.SetHeight(max(1, body-1))
	m.form.setWidth(m.width)
}

func (m *Model) selectTab(tab int) {
	m.tab = (tab + tabCount) % tabCount
	if m.tab == tabKinds {
		m.kinds.Focus()
		return
	}
	m.kinds.Blur()
}

func (m *Model) header() string {
	tabs := make([]string, 0, tabCount)
	for i, title := range tabTitles {
		style := idleTabStyle
		if i == m.tab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(title))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + headerStyle.Render(clip(m.settingsLine(), m.width))
}

func (m *Model) settingsLine() string {
	kind, since, last := "any", "any", "all"
	if m.cfg.Kind != "" {
		kind = string(m.cfg.Kind)
	}
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Settings: kind=%s  since=%s  last=%s  window=%d", kind, since, last, m.cfg.Window)
}

func (m *Model) footer() string {
	if m.form.active {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Settings: /  Quit: q")
	if m.loadErr != "" {
		help += "\n" + errorStyle.Render(m.loadErr)
	}
	return help
}

func (m *Model) body() string {
	switch {
	case m.form.active:
		return m.form.view()
	case m.tab != tabKinds:
		return m.pages[m.tab].View()
	case len(m.report.Kinds) == 0:
		return "No question results found."
	default:
		return mutedStyle.Render(m.kinds.View())
	}
}

// reload fetches the report for the current config and rebuilds every tab.
func (m *Model) reload() {
	m.report, m.loadErr = stats.Report{}, ""
	report, err := stats.BuildReport(context.Background(), m.source, m.cfg)
	if err != nil {
		m.loadErr = err.Error()
	} else {
		m.report = report
	}
	_, body, _ := m.heights()
	m.kinds = newKindTable(m.report.Kinds, m.contentWidth(), body)
	if m.tab == tabKinds {
		m.kinds.Focus()
	}
	m.renderPages()
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return fallbackWidth
	}
	return m.width
}

func (m *Model) renderPages() {
	if m.loadErr != "" {
		for i := range m.pages {
			m.pages[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.pages[tabOverview].SetContent(overviewPage(m.report, m.cfg.Window, m.contentWidth()))
	m.pages[tabMastery].SetContent(masteryPage(m.report.Mastery))
}

func overviewPage(r stats.Report, window, width int) string {
	if len(r.Attempts) == 0 {
		return "No quiz attempts found."
	}
	var sumPct, bestPct float64
	var correct, asked int
	for _, a := range r.Attempts {
		pct, _ := stats.AttemptMetrics(a)
		sumPct += pct
		bestPct = max(bestPct, pct)
		correct += a.CorrectCount
		asked += a.TotalQuestions
	}
	accuracy := 0.0
	if asked > 0 {
		accuracy = float64(correct) / float64(asked) * 100
	}
	cards := []string{
		card("Quizzes", strconv.Itoa(len(r.Attempts))),
		card("Avg Score", fmt.Sprintf("%.1f%%", sumPct/float64(len(r.Attempts)))),
		card("Best Score", fmt.Sprintf("%.1f%%", bestPct)),
		card("Accuracy", fmt.Sprintf("%.1f%%", accuracy)),
	}
	var b strings.Builder
	if width >= fallbackWidth {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	} else {
		b.WriteString(strings.Join(cards, "\n"))
	}
	b.WriteString("\n\n")

	var trend bytes.Buffer
	if err := stats.RenderTrend(&trend, r.Attempts, window, width); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	b.Write(trend.Bytes())
	if weak := stats.WeakestKinds(r.Kinds, 3); len(weak) > 0 {
		names := make([]string, len(weak))
		for i, k := range weak {
			names[i] = string(k)
		}
		b.WriteString(headerStyle.Render("Weakest: " + strings.Join(names, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func card(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func masteryPage(rows []model.Mastery) string {
	if len(rows) == 0 {
		return "No mastery recorded yet."
	}
	var buf bytes.Buffer
	if err := stats.RenderMastery(&buf, rows); err != nil {
		return fmt.Sprintf("Failed to render mastery: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}
