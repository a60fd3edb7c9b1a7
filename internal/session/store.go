// Package session holds the in-progress quiz session state.
package session

import (
	"sync"

	"github.com/verte-zerg/kewen/internal/model"
)

// Store owns one quiz session. Mutations are atomic with respect to each
// other; the store performs no I/O.
type Store struct {
	mu sync.Mutex

	quizID    string
	meta      model.QuizMeta
	questions []model.Question
	cursor    int
	answers   map[int]string
	results   map[int]bool
	score     int

	blankAnswers       map[int]string
	blankAnswerIndices map[int]int
	placedTileIDs      []string

	// Multi-step boards of the current question.
	matched     map[string]string
	matchMisses int
	subAnswers  map[int]string
	subCorrect  map[int]bool

	feedback model.Feedback
}

// NewStore returns an idle store.
func NewStore() *Store {
	s := &Store{}
	s.resetLocked()
	return s
}

// StartSession replaces the session. A nil questions slice keeps the
// already-loaded question list so the payload can arrive later.
func (s *Store) StartSession(quizID string, questions []model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizID = quizID
	if questions != nil {
		s.questions = cloneQuestions(questions)
	}
	s.cursor = 0
	s.answers = map[int]string{}
	s.results = map[int]bool{}
	s.score = 0
	s.clearEphemeralLocked()
	s.feedback = model.Feedback{}
}

// SetMeta records what the active quiz was generated for.
func (s *Store) SetMeta(meta model.QuizMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
}

// Meta returns the active quiz metadata.
func (s *Store) Meta() model.QuizMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// SetQuestions replaces the question list without touching cursor, answers or score.
func (s *Store) SetQuestions(questions []model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = cloneQuestions(questions)
}

// CurrentQuestion returns the question at the cursor, or false when the
// cursor is out of range or nothing is loaded.
func (s *Store) CurrentQuestion() (model.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 || s.cursor >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[s.cursor], true
}

// IsLastQuestion reports whether the cursor is on the final question.
func (s *Store) IsLastQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions) > 0 && s.cursor == len(s.questions)-1
}

// HasActiveQuiz reports whether a quiz identity and payload are loaded.
func (s *Store) HasActiveQuiz() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizID != "" && len(s.questions) > 0
}

// QuizID returns the active quiz identity, empty when idle.
func (s *Store) QuizID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizID
}

// Cursor returns the index of the displayed question.
func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len returns the number of loaded questions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// Score returns the accumulated session score.
func (s *Store) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Answer returns the recorded answer for a question index.
func (s *Store) Answer(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[index]
	return a, ok
}

// Answers returns a copy of all recorded answers.
func (s *Store) Answers() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStrings(s.answers)
}

// RecordAnswer upserts the answer for a question index.
func (s *Store) RecordAnswer(index int, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[index] = answer
}

// AddScore adds non-negative points to the score.
func (s *Store) AddScore(points int) {
	if points <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score += points
}

// Advance moves the cursor forward and drops per-question state. It does
// not clamp; callers check IsLastQuestion first.
func (s *Store) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor++
	s.clearEphemeralLocked()
	s.feedback = model.Feedback{}
}

// SetBlankAnswer fills a blank. A negative slot records no word bank slot.
func (s *Store) SetBlankAnswer(blank int, word string, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blankAnswers[blank] = word
	if slot >= 0 {
		s.blankAnswerIndices[blank] = slot
	} else {
		delete(s.blankAnswerIndices, blank)
	}
}

// ClearBlankAnswer empties one blank.
func (s *Store) ClearBlankAnswer(blank int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blankAnswers, blank)
	delete(s.blankAnswerIndices, blank)
}

// BlankAnswers returns a copy of the filled blanks.
func (s *Store) BlankAnswers() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStrings(s.blankAnswers)
}

// BlankAnswerIndices returns a copy of the word bank slot per blank.
func (s *Store) BlankAnswerIndices() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneInts(s.blankAnswerIndices)
}

// PlaceTile appends a tile id to the placed sequence.
func (s *Store) PlaceTile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placedTileIDs = append(s.placedTileIDs, id)
}

// RemoveTile removes the first occurrence of id, keeping the order of the rest.
func (s *Store) RemoveTile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, placed := range s.placedTileIDs {
		if placed == id {
			s.placedTileIDs = append(s.placedTileIDs[:i:i], s.placedTileIDs[i+1:]...)
			return
		}
	}
}

// ClearTiles empties the placed sequence.
func (s *Store) ClearTiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placedTileIDs = []string{}
}

// PlacedTileIDs returns a copy of the placed tile ids in order.
func (s *Store) PlacedTileIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.placedTileIDs...)
}

// ShowFeedback makes the feedback flag visible with the given verdict.
func (s *Store) ShowFeedback(correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = model.Feedback{Visible: true, Correct: &correct}
}

// HideFeedback clears the feedback flag and its verdict.
func (s *Store) HideFeedback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = model.Feedback{}
}

// Feedback returns the current feedback flag.
func (s *Store) Feedback() model.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFeedback(s.feedback)
}

// Reset returns the store to the idle state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.quizID = ""
	s.meta = model.QuizMeta{}
	s.questions = nil
	s.cursor = 0
	s.answers = map[int]string{}
	s.results = map[int]bool{}
	s.score = 0
	s.clearEphemeralLocked()
	s.feedback = model.Feedback{}
}

func (s *Store) clearEphemeralLocked() {
	s.blankAnswers = map[int]string{}
	s.blankAnswerIndices = map[int]int{}
	s.placedTileIDs = []string{}
	s.matched = map[string]string{}
	s.matchMisses = 0
	s.subAnswers = map[int]string{}
	s.subCorrect = map[int]bool{}
}

func cloneQuestions(questions []model.Question) []model.Question {
	return append([]model.Question{}, questions...)
}

func cloneStrings(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneInts(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFeedback(f model.Feedback) model.Feedback {
	if f.Correct != nil {
		v := *f.Correct
		f.Correct = &v
	}
	return f
}
