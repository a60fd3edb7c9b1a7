package quiz

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/verte-zerg/kewen/internal/grading"
	"github.com/verte-zerg/kewen/internal/model"
)

var choiceKinds = []model.ExerciseKind{model.KindVocabulary, model.KindGrammar, model.KindTextInput}

// SubmitChoice answers a multiple-choice question. A reading question
// without sub-questions is answered the same way.
func (c *Controller) SubmitChoice(ctx context.Context, answer string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(append(choiceKinds, model.KindReading)...)
	if err != nil {
		return Outcome{}, err
	}
	if q.Kind == model.KindReading && len(q.SubQuestions) > 0 {
		return Outcome{}, ErrWrongKind
	}
	answeredAt := c.now()
	correct := grading.CheckChoice(answer, q.CorrectAnswer)
	return c.finish(ctx, q, index, answer, correct, c.pointsIf(correct), answeredAt), nil
}

// SubmitTyped answers a typed question. Pinyin questions accept tone marks
// or tone numbers and either ü or v.
func (c *Controller) SubmitTyped(ctx context.Context, answer string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(choiceKinds...)
	if err != nil {
		return Outcome{}, err
	}
	answeredAt := c.now()
	correct := grading.CheckTyped(answer, q.CorrectAnswer, q.InputMode)
	return c.finish(ctx, q, index, strings.TrimSpace(answer), correct, c.pointsIf(correct), answeredAt), nil
}

// SubmitDialogue answers a dialogue-completion question through the
// answer validator.
func (c *Controller) SubmitDialogue(ctx context.Context, answer string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindDialogue)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(answer) == "" {
		return Outcome{}, ErrIncomplete
	}
	return c.submitValidated(ctx, q, index, answer, c.now())
}

// submitValidated grades through the answer validator. The time spent on the
// question stops at answeredAt, so validation latency is not counted.
func (c *Controller) submitValidated(ctx context.Context, q model.Question, index int, answer string, answeredAt time.Time) (Outcome, error) {
	res, err := c.validateRemote(ctx, q, index, answer)
	if err != nil {
		return Outcome{}, err
	}
	out := c.finish(ctx, q, index, answer, res.IsCorrect, c.pointsIf(res.IsCorrect), answeredAt)
	out.Validation = &res
	if res.Explanation != "" {
		out.Explanation = res.Explanation
	}
	return out, nil
}

// SelectWord places word bank entry slot into the first empty blank. When
// that fills the last blank the question is submitted at once and the
// returned outcome is non-nil.
func (c *Controller) SelectWord(ctx context.Context, slot int) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindFillBlank)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= len(q.WordBank) {
		return nil, ErrUnknownTile
	}
	used := c.store.BlankAnswerIndices()
	for _, s := range used {
		if s == slot {
			return nil, ErrSlotUsed
		}
	}

	filled := c.store.BlankAnswers()
	count := q.BlankCount()
	blank := -1
	for i := 0; i < count; i++ {
		if _, ok := filled[i]; !ok {
			blank = i
			break
		}
	}
	if blank < 0 {
		return nil, ErrIncomplete
	}

	word := q.WordBank[slot]
	c.store.SetBlankAnswer(blank, word, slot)
	filled[blank] = word
	if len(filled) < count {
		return nil, nil
	}
	// The map just built is graded directly, not re-read from the store.
	out := c.gradeBlanks(ctx, q, index, filled, c.now())
	return &out, nil
}

// ClearBlank empties one blank and returns its word to the bank.
func (c *Controller) ClearBlank(blank int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, _, err := c.current(model.KindFillBlank)
	if err != nil {
		return err
	}
	if blank < 0 || blank >= q.BlankCount() {
		return ErrUnknownBlank
	}
	c.store.ClearBlankAnswer(blank)
	return nil
}

// FillBlank types a word into a blank without using the word bank.
func (c *Controller) FillBlank(blank int, word string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, _, err := c.current(model.KindFillBlank)
	if err != nil {
		return err
	}
	if blank < 0 || blank >= q.BlankCount() {
		return ErrUnknownBlank
	}
	word = strings.TrimSpace(word)
	if word == "" {
		c.store.ClearBlankAnswer(blank)
		return nil
	}
	c.store.SetBlankAnswer(blank, word, -1)
	return nil
}

// SubmitBlanks grades the blanks as currently held by the store. Every
// blank must be filled.
func (c *Controller) SubmitBlanks(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindFillBlank)
	if err != nil {
		return Outcome{}, err
	}
	answeredAt := c.now()
	filled := c.store.BlankAnswers()
	for i := 0; i < q.BlankCount(); i++ {
		if _, ok := filled[i]; !ok {
			return Outcome{}, ErrIncomplete
		}
	}
	return c.gradeBlanks(ctx, q, index, filled, answeredAt), nil
}

// gradeBlanks checks every blank against its key token. A question whose
// answer cannot be split into one token per blank is graded on the joined
// words instead, and every blank shares that verdict.
func (c *Controller) gradeBlanks(ctx context.Context, q model.Question, index int, filled map[int]string, answeredAt time.Time) Outcome {
	var (
		results []bool
		correct bool
	)
	if key := q.BlankKey(); key != nil {
		results, correct = grading.CheckBlanks(filled, key)
	} else {
		c.logger.Printf("quiz: question %s has %d blanks but no per-blank key; grading the joined answer", q.ID, q.BlankCount())
		results, correct = grading.CheckBlanksJoined(filled, q.BlankCount(), q.CorrectAnswer)
	}
	out := c.finish(ctx, q, index, encodeAnswer(filled), correct, c.pointsIf(correct), answeredAt)
	out.BlankResults = results
	return out
}

// PlaceTile moves an available tile to the end of the constructed sentence.
func (c *Controller) PlaceTile(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, _, err := c.current(model.KindSentence)
	if err != nil {
		return err
	}
	if _, ok := tileWord(q, id); !ok {
		return ErrUnknownTile
	}
	for _, placed := range c.store.PlacedTileIDs() {
		if placed == id {
			return ErrSlotUsed
		}
	}
	c.store.PlaceTile(id)
	return nil
}

// RemoveTile returns a placed tile to the available pool.
func (c *Controller) RemoveTile(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, err := c.current(model.KindSentence); err != nil {
		return err
	}
	c.store.RemoveTile(id)
	return nil
}

// ClearTiles returns every placed tile to the pool.
func (c *Controller) ClearTiles() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, err := c.current(model.KindSentence); err != nil {
		return err
	}
	c.store.ClearTiles()
	return nil
}

// AvailableTiles returns unplaced tiles in their scrambled order.
func (c *Controller) AvailableTiles() []model.Tile {
	q, ok := c.store.CurrentQuestion()
	if !ok {
		return nil
	}
	placed := map[string]bool{}
	for _, id := range c.store.PlacedTileIDs() {
		placed[id] = true
	}
	var out []model.Tile
	for _, t := range q.Tiles() {
		if !placed[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// PlacedTiles returns the placed tiles in placement order.
func (c *Controller) PlacedTiles() []model.Tile {
	q, ok := c.store.CurrentQuestion()
	if !ok {
		return nil
	}
	ids := c.store.PlacedTileIDs()
	out := make([]model.Tile, 0, len(ids))
	for _, id := range ids {
		if w, ok := tileWord(q, id); ok {
			out = append(out, model.Tile{ID: id, Word: w})
		}
	}
	return out
}

// SubmitSentence grades the constructed sentence through the answer
// validator. Every tile must be placed.
func (c *Controller) SubmitSentence(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindSentence)
	if err != nil {
		return Outcome{}, err
	}
	answeredAt := c.now()
	ids := c.store.PlacedTileIDs()
	if len(ids) != len(q.ScrambledWords) {
		return Outcome{}, ErrIncomplete
	}
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		w, _ := tileWord(q, id)
		words = append(words, w)
	}
	return c.submitValidated(ctx, q, index, JoinSentence(words, q.CorrectAnswer), answeredAt)
}

// JoinSentence joins tile words. Words are separated by a space only when
// the canonical answer itself uses spaces.
func JoinSentence(words []string, canonical string) string {
	sep := ""
	if strings.Contains(strings.TrimSpace(canonical), " ") {
		sep = " "
	}
	return strings.Join(words, sep)
}

// AnswerSub answers one reading-comprehension sub-question. Each correct
// sub-answer earns points at once; the parent question is recorded when
// the last sub-question is answered, and the returned outcome is non-nil.
// Sub-answers live in the session store, so a restored session cannot
// answer the same sub-question twice.
func (c *Controller) AnswerSub(ctx context.Context, sub int, answer string) (SubOutcome, *Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindReading)
	if err != nil {
		return SubOutcome{}, nil, err
	}
	if sub < 0 || sub >= len(q.SubQuestions) {
		return SubOutcome{}, nil, ErrUnknownSubQuestion
	}
	answeredAt := c.now()
	answers, _ := c.store.SubAnswers()
	if _, done := answers[sub]; done {
		return SubOutcome{}, nil, ErrAlreadyAnswered
	}

	sq := q.SubQuestions[sub]
	correct := grading.CheckChoice(answer, sq.CorrectAnswer)
	c.store.RecordSubAnswer(sub, answer, correct)
	points := c.pointsIf(correct)
	c.store.AddScore(points)
	subOut := SubOutcome{Sub: sub, Correct: correct, Points: points, Explanation: sq.Explanation}

	answers, verdicts := c.store.SubAnswers()
	if len(answers) < len(q.SubQuestions) {
		return subOut, nil, nil
	}
	all := true
	for i := range q.SubQuestions {
		if !verdicts[i] {
			all = false
		}
	}
	out := c.finish(ctx, q, index, encodeAnswer(answers), all, 0, answeredAt)
	return subOut, &out, nil
}

// SubOutcome is the result of one reading sub-question.
type SubOutcome struct {
	Sub         int
	Correct     bool
	Points      int
	Explanation string
}

// ReadingAnswers returns the sub-answers given so far for the current question.
func (c *Controller) ReadingAnswers() map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	answers, _ := c.store.SubAnswers()
	return answers
}

func (c *Controller) pointsIf(correct bool) int {
	if correct {
		return c.points
	}
	return 0
}

func tileWord(q model.Question, id string) (string, bool) {
	for _, t := range q.Tiles() {
		if t.ID == id {
			return t.Word, true
		}
	}
	return "", false
}

func encodeAnswer(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
