package statsui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kewen/internal/model"
)

const dateLayout = "2006-01-02"

const (
	fieldKind = iota
	fieldSince
	fieldLast
	fieldWindow
)

// filterForm edits the report filter. While active it replaces the tab body.
type filterForm struct {
	active bool
	focus  int
	err    string
	fields []textinput.Model
}

func newFilterForm() filterForm {
	prompts := []string{"Kind: ", "Since (YYYY-MM-DD): ", "Last: ", "Trend window: "}
	f := filterForm{fields: make([]textinput.Model, len(prompts))}
	for i, prompt := range prompts {
		in := textinput.New()
		in.Prompt = prompt
		in.Cursor.SetMode(cursor.CursorBlink)
		f.fields[i] = in
	}
	return f
}

// open loads cfg into the fields and focuses the first one.
func (f *filterForm) open(cfg model.StatsConfig) tea.Cmd {
	since, last := "", ""
	if cfg.Since != nil {
		since = cfg.Since.Format(dateLayout)
	}
	if cfg.Last > 0 {
		last = strconv.Itoa(cfg.Last)
	}
	f.fields[fieldKind].SetValue(string(cfg.Kind))
	f.fields[fieldSince].SetValue(since)
	f.fields[fieldLast].SetValue(last)
	f.fields[fieldWindow].SetValue(strconv.Itoa(cfg.Window))
	f.active = true
	f.err = ""
	return f.focusField(0)
}

func (f *filterForm) focusField(i int) tea.Cmd {
	f.focus = (i + len(f.fields)) % len(f.fields)
	var cmd tea.Cmd
	for j := range f.fields {
		if j == f.focus {
			cmd = f.fields[j].Focus()
			continue
		}
		f.fields[j].Blur()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.fields {
		f.fields[i].Width = max(10, width-lipgloss.Width(f.fields[i].Prompt)-2)
	}
}

// update handles one key while the form is open. applied reports that enter
// produced a valid config, returned in cfg; otherwise cfg is base.
func (f *filterForm) update(msg tea.KeyMsg, base model.StatsConfig) (cfg model.StatsConfig, applied bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.active = false
		f.err = ""
		return base, false, nil
	case tea.KeyEnter:
		next, err := parseFilter(base.UserID, f.value(fieldKind), f.value(fieldSince), f.value(fieldLast), f.value(fieldWindow))
		if err != nil {
			f.err = err.Error()
			return base, false, nil
		}
		f.active = false
		f.err = ""
		return next, true, nil
	case tea.KeyTab:
		return base, false, f.focusField(f.focus + 1)
	case tea.KeyShiftTab:
		return base, false, f.focusField(f.focus - 1)
	}
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return base, false, cmd
}

func (f *filterForm) value(i int) string {
	return strings.TrimSpace(f.fields[i].Value())
}

func (f *filterForm) view() string {
	var b strings.Builder
	b.WriteString("Settings (enter to apply, esc to cancel)")
	for _, in := range f.fields {
		b.WriteString("\n" + in.View())
	}
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err))
	}
	return b.String()
}

// parseFilter builds a stats config from form values. Empty values mean any
// kind, any date, every attempt and a trend window of one.
func parseFilter(userID, kind, since, last, window string) (model.StatsConfig, error) {
	cfg := model.StatsConfig{UserID: userID, Kind: model.ExerciseKind(kind), Window: 1}
	if cfg.Kind != "" && !cfg.Kind.Valid() {
		return model.StatsConfig{}, fmt.Errorf("unknown exercise kind %q", kind)
	}
	if since != "" {
		t, err := time.ParseInLocation(dateLayout, since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &t
	}
	if last != "" {
		n, err := strconv.Atoi(last)
		if err != nil || n < 0 {
			return model.StatsConfig{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = n
	}
	if window != "" {
		n, err := strconv.Atoi(window)
		if err != nil || n < 1 {
			return model.StatsConfig{}, fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		cfg.Window = n
	}
	return cfg, nil
}
