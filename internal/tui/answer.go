package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/quiz"
)

const emptyBlank = "____"

func usesTextInput(q model.Question) bool {
	switch q.Kind {
	case model.KindDialogue:
		return true
	case model.KindFillBlank:
		return len(q.WordBank) == 0
	case model.KindVocabulary, model.KindGrammar, model.KindTextInput:
		return len(q.Options) == 0
	}
	return false
}

func isTyped(q model.Question) bool {
	return usesTextInput(q) && q.Kind != model.KindFillBlank
}

func answerHelp(q model.Question) string {
	switch {
	case q.Kind == model.KindMatching:
		return "up/down: pick word  1-9: pick meaning  s: submit board"
	case q.Kind == model.KindSentence:
		return "1-9: place tile  backspace: remove last  x: clear  enter: submit"
	case q.Kind == model.KindFillBlank && len(q.WordBank) > 0:
		return "1-9: fill next blank  backspace: clear last blank"
	case q.Kind == model.KindFillBlank:
		return "type the missing words separated by commas, enter: submit"
	case usesTextInput(q):
		return "enter: submit  esc: quit"
	}
	return "1-9 or up/down+enter: choose  esc: quit"
}

// digit maps keys 1-9 to indexes 0-8.
func digit(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '1'), true
}

func (m *Model) handleAnswerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q, ok := m.ctrl.Store().CurrentQuestion()
	if !ok {
		return m, nil
	}
	if usesTextInput(q) {
		return m.textKey(q, msg)
	}
	m.notice = ""
	switch {
	case q.Kind == model.KindMatching:
		m.matchingKey(q, msg)
	case q.Kind == model.KindSentence:
		return m, m.sentenceKey(msg)
	case q.Kind == model.KindFillBlank:
		m.wordBankKey(msg)
	case q.Kind == model.KindReading && len(q.SubQuestions) > 0:
		m.readingKey(q, msg)
	default:
		m.choiceKey(q, msg)
	}
	return m, nil
}

func (m *Model) submitAsync(fn func(ctx context.Context) (quiz.Outcome, error)) tea.Cmd {
	m.pending = true
	m.notice = ""
	return tea.Batch(func() tea.Msg {
		out, err := fn(context.Background())
		return outcomeMsg{out: out, err: err}
	}, m.spinner.Tick)
}

func (m *Model) afterSubmit(out quiz.Outcome, err error) {
	if err != nil {
		m.notice = describeError(err)
		return
	}
	m.showOutcome(out)
}

func (m *Model) choiceKey(q model.Question, msg tea.KeyMsg) {
	idx, ok := digit(msg)
	switch {
	case ok:
	case msg.String() == "up" || msg.String() == "k":
		m.cursor = max(0, m.cursor-1)
		return
	case msg.String() == "down" || msg.String() == "j":
		m.cursor = min(len(q.Options)-1, m.cursor+1)
		return
	case msg.Type == tea.KeyEnter:
		idx = m.cursor
	default:
		return
	}
	if idx < 0 || idx >= len(q.Options) {
		return
	}
	m.afterSubmit(m.ctrl.SubmitChoice(context.Background(), q.Options[idx]))
}

func (m *Model) textKey(q model.Question, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	value := m.input.Value()
	if strings.TrimSpace(value) == "" {
		m.notice = "Type an answer first."
		return m, nil
	}
	ctx := context.Background()
	switch q.Kind {
	case model.KindDialogue:
		return m, m.submitAsync(func(ctx context.Context) (quiz.Outcome, error) {
			return m.ctrl.SubmitDialogue(ctx, value)
		})
	case model.KindFillBlank:
		words := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '，' })
		for i := 0; i < q.BlankCount(); i++ {
			word := ""
			if i < len(words) {
				word = words[i]
			}
			if err := m.ctrl.FillBlank(i, word); err != nil {
				m.notice = describeError(err)
				return m, nil
			}
		}
		m.afterSubmit(m.ctrl.SubmitBlanks(ctx))
	default:
		m.afterSubmit(m.ctrl.SubmitTyped(ctx, value))
	}
	return m, nil
}

func (m *Model) wordBankKey(msg tea.KeyMsg) {
	if msg.Type == tea.KeyBackspace {
		filled := m.ctrl.Store().BlankAnswers()
		last := -1
		for k := range filled {
			last = max(last, k)
		}
		if last >= 0 {
			if err := m.ctrl.ClearBlank(last); err != nil {
				m.notice = describeError(err)
			}
		}
		return
	}
	idx, ok := digit(msg)
	if !ok {
		return
	}
	out, err := m.ctrl.SelectWord(context.Background(), idx)
	switch {
	case err != nil:
		m.notice = describeError(err)
	case out != nil:
		m.showOutcome(*out)
	}
}

func (m *Model) matchingKey(q model.Question, msg tea.KeyMsg) {
	ctx := context.Background()
	switch msg.String() {
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
		return
	case "down", "j":
		m.cursor = min(len(q.Pairs)-1, m.cursor+1)
		return
	case "s":
		m.afterSubmit(m.ctrl.SubmitMatching(ctx, nil, 0))
		return
	}
	idx, ok := digit(msg)
	rights := sortedRights(q)
	if !ok || idx >= len(rights) || m.cursor >= len(q.Pairs) {
		return
	}
	matched, out, err := m.ctrl.TryMatch(ctx, q.Pairs[m.cursor].Left, rights[idx])
	switch {
	case err != nil:
		m.notice = describeError(err)
	case !matched:
		m.notice = "Not a match."
	case out != nil:
		m.showOutcome(*out)
	default:
		m.cursor = nextUnmatched(q, m.ctrl.MatchState(), m.cursor)
	}
}

func (m *Model) sentenceKey(msg tea.KeyMsg) tea.Cmd {
	var err error
	switch msg.String() {
	case "enter":
		return m.submitAsync(m.ctrl.SubmitSentence)
	case "backspace":
		placed := m.ctrl.PlacedTiles()
		if len(placed) > 0 {
			err = m.ctrl.RemoveTile(placed[len(placed)-1].ID)
		}
	case "x":
		err = m.ctrl.ClearTiles()
	default:
		idx, ok := digit(msg)
		tiles := m.ctrl.AvailableTiles()
		if ok && idx < len(tiles) {
			err = m.ctrl.PlaceTile(tiles[idx].ID)
		}
	}
	if err != nil {
		m.notice = describeError(err)
	}
	return nil
}

func (m *Model) readingKey(q model.Question, msg tea.KeyMsg) {
	sub := currentSub(q, m.ctrl.ReadingAnswers())
	idx, ok := digit(msg)
	if sub < 0 || !ok || idx >= len(q.SubQuestions[sub].Options) {
		return
	}
	res, out, err := m.ctrl.AnswerSub(context.Background(), sub, q.SubQuestions[sub].Options[idx])
	if err != nil {
		m.notice = describeError(err)
		return
	}
	note := fmt.Sprintf("Q%d: ", sub+1)
	if res.Correct {
		note += correctStyle.Render(fmt.Sprintf("correct +%d", res.Points))
	} else {
		note += incorrectStyle.Render("incorrect, answer: " + q.SubQuestions[sub].CorrectAnswer)
	}
	m.subNotes = append(m.subNotes, note)
	if out != nil {
		m.showOutcome(*out)
	}
}

func currentSub(q model.Question, answered map[int]string) int {
	for i := range q.SubQuestions {
		if _, ok := answered[i]; !ok {
			return i
		}
	}
	return -1
}

// sortedRights lists the right-hand items in a stable order unrelated to the pairing.
func sortedRights(q model.Question) []string {
	rights := make([]string, len(q.Pairs))
	for i, p := range q.Pairs {
		rights[i] = p.Right
	}
	sort.Strings(rights)
	return rights
}

func nextUnmatched(q model.Question, state quiz.MatchState, from int) int {
	for step := 1; step <= len(q.Pairs); step++ {
		i := (from + step) % len(q.Pairs)
		if _, done := state.Matched[q.Pairs[i].Left]; !done {
			return i
		}
	}
	return from
}

func (m *Model) renderQuestion(q model.Question) string {
	st := m.ctrl.Store()
	width := m.contentWidth()
	lines := []string{
		headerStyle.Render(fmt.Sprintf("Question %d of %d · %s", st.Cursor()+1, st.Len(), strings.ReplaceAll(string(q.Kind), "_", " "))),
		wrapText(q.Prompt, width, promptStyle),
	}
	if q.Passage != "" {
		lines = append(lines, wrapText(q.Passage, width, pendingStyle))
	}

	switch {
	case q.Kind == model.KindDialogue:
		for i, line := range q.Dialogue {
			text := line.Text
			if i == q.BlankedLine() {
				text = emptyBlank
			}
			lines = append(lines, fmt.Sprintf("%s: %s", line.Speaker, text))
		}
		lines = append(lines, m.input.View())
	case q.Kind == model.KindFillBlank:
		lines = append(lines, wrapText(fillBlanks(q, st.BlankAnswers()), width, promptStyle))
		if len(q.WordBank) == 0 {
			lines = append(lines, m.input.View())
			break
		}
		used := map[int]bool{}
		for _, slot := range st.BlankAnswerIndices() {
			used[slot] = true
		}
		lines = append(lines, numbered(q.WordBank, func(i int) bool { return used[i] }, -1))
	case q.Kind == model.KindMatching:
		lines = append(lines, m.renderMatching(q))
	case q.Kind == model.KindSentence:
		placed := m.ctrl.PlacedTiles()
		words := make([]string, len(placed))
		for i, t := range placed {
			words[i] = t.Word
		}
		available := m.ctrl.AvailableTiles()
		labels := make([]string, len(available))
		for i, t := range available {
			labels[i] = t.Word
		}
		lines = append(lines,
			"Your sentence: "+promptStyle.Render(quiz.JoinSentence(words, q.CorrectAnswer)),
			numbered(labels, nil, -1))
	case q.Kind == model.KindReading && len(q.SubQuestions) > 0:
		lines = append(lines, m.subNotes...)
		if sub := currentSub(q, m.ctrl.ReadingAnswers()); sub >= 0 && m.phase == phaseQuestion {
			sq := q.SubQuestions[sub]
			lines = append(lines, fmt.Sprintf("%d. %s", sub+1, sq.Question), numbered(sq.Options, nil, -1))
		}
	case usesTextInput(q):
		lines = append(lines, m.input.View())
	default:
		cursor := m.cursor
		if m.phase != phaseQuestion {
			cursor = -1
		}
		lines = append(lines, numbered(q.Options, nil, cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderMatching(q model.Question) string {
	state := m.ctrl.MatchState()
	var lines []string
	for i, p := range q.Pairs {
		marker := "  "
		if i == m.cursor && m.phase == phaseQuestion {
			marker = selectedStyle.Render("> ")
		}
		if right, done := state.Matched[p.Left]; done {
			lines = append(lines, marker+correctStyle.Render(fmt.Sprintf("%s = %s", p.Left, right)))
			continue
		}
		lines = append(lines, marker+p.Left)
	}
	lines = append(lines, "", numbered(sortedRights(q), nil, -1))
	if state.Incorrect > 0 {
		lines = append(lines, incorrectStyle.Render(fmt.Sprintf("Wrong attempts: %d", state.Incorrect)))
	}
	return strings.Join(lines, "\n")
}

// fillBlanks substitutes filled words into the sentence markers in order.
func fillBlanks(q model.Question, filled map[int]string) string {
	if !strings.Contains(q.SentenceWithBlanks, model.BlankMarker) {
		parts := make([]string, q.BlankCount())
		for i := range parts {
			parts[i] = emptyBlank
			if w, ok := filled[i]; ok {
				parts[i] = "[" + w + "]"
			}
		}
		return strings.TrimSpace(q.SentenceWithBlanks + " " + strings.Join(parts, " "))
	}
	pieces := strings.Split(q.SentenceWithBlanks, model.BlankMarker)
	var b strings.Builder
	for i, piece := range pieces {
		b.WriteString(piece)
		if i == len(pieces)-1 {
			break
		}
		if w, ok := filled[i]; ok {
			b.WriteString("[" + w + "]")
		} else {
			b.WriteString(emptyBlank)
		}
	}
	return b.String()
}

func numbered(items []string, dimmed func(int) bool, cursor int) string {
	lines := make([]string, len(items))
	for i, item := range items {
		label := fmt.Sprintf("%d) %s", i+1, item)
		switch {
		case dimmed != nil && dimmed(i):
			label = pendingStyle.Render(label)
		case i == cursor:
			label = selectedStyle.Render("> " + label)
		}
		lines[i] = label
	}
	return strings.Join(lines, "\n")
}
