package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/kewen/internal/model"
)

// Snapshot is a point-in-time copy of the session, used for display and
// for restoring an interrupted session.
type Snapshot struct {
	QuizID             string           `json:"quiz_id"`
	Meta               model.QuizMeta   `json:"meta"`
	Questions          []model.Question `json:"questions"`
	Cursor             int              `json:"cursor"`
	Answers            map[int]string   `json:"answers"`
	Score              int              `json:"score"`
	BlankAnswers       map[int]string   `json:"blank_answers"`
	BlankAnswerIndices map[int]int      `json:"blank_answer_indices"`
	PlacedTileIDs      []string         `json:"placed_tile_ids"`
	Feedback           model.Feedback   `json:"feedback"`

	Results     map[int]bool      `json:"results,omitempty"`
	Matched     map[string]string `json:"matched,omitempty"`
	MatchMisses int               `json:"match_misses,omitempty"`
	SubAnswers  map[int]string    `json:"sub_answers,omitempty"`
	SubCorrect  map[int]bool      `json:"sub_correct,omitempty"`
}

// Snapshot copies the whole session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		QuizID:             s.quizID,
		Meta:               s.meta,
		Questions:          cloneQuestions(s.questions),
		Cursor:             s.cursor,
		Answers:            cloneStrings(s.answers),
		Score:              s.score,
		BlankAnswers:       cloneStrings(s.blankAnswers),
		BlankAnswerIndices: cloneInts(s.blankAnswerIndices),
		PlacedTileIDs:      append([]string{}, s.placedTileIDs...),
		Feedback:           cloneFeedback(s.feedback),
		Results:            cloneBools(s.results),
		Matched:            clonePairs(s.matched),
		MatchMisses:        s.matchMisses,
		SubAnswers:         cloneStrings(s.subAnswers),
		SubCorrect:         cloneBools(s.subCorrect),
	}
}

// Restore replaces the session with a snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.quizID = snap.QuizID
	s.meta = snap.Meta
	if snap.Questions != nil {
		s.questions = cloneQuestions(snap.Questions)
	}
	if snap.Cursor > 0 && snap.Cursor <= len(s.questions) {
		s.cursor = snap.Cursor
	}
	if snap.Answers != nil {
		s.answers = cloneStrings(snap.Answers)
	}
	if snap.Score > 0 {
		s.score = snap.Score
	}
	if snap.BlankAnswers != nil {
		s.blankAnswers = cloneStrings(snap.BlankAnswers)
	}
	if snap.BlankAnswerIndices != nil {
		s.blankAnswerIndices = cloneInts(snap.BlankAnswerIndices)
	}
	if snap.PlacedTileIDs != nil {
		s.placedTileIDs = append([]string{}, snap.PlacedTileIDs...)
	}
	s.feedback = cloneFeedback(snap.Feedback)
	if snap.Results != nil {
		s.results = cloneBools(snap.Results)
	}
	if snap.Matched != nil {
		s.matched = clonePairs(snap.Matched)
	}
	if snap.MatchMisses > 0 {
		s.matchMisses = snap.MatchMisses
	}
	if snap.SubAnswers != nil {
		s.subAnswers = cloneStrings(snap.SubAnswers)
	}
	if snap.SubCorrect != nil {
		s.subCorrect = cloneBools(snap.SubCorrect)
	}
}

// SaveFile writes the snapshot as JSON, replacing path atomically.
func SaveFile(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp session: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot. A missing file is not an error; ok is false.
func LoadFile(path string) (snap Snapshot, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	return snap, true, nil
}

// RemoveFile deletes a saved snapshot. A missing file is not an error.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
