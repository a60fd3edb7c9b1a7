package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kewen/internal/model"
)

func threeQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Kind: model.KindVocabulary, CorrectAnswer: "你好"},
		{ID: "q2", Kind: model.KindVocabulary, CorrectAnswer: "谢谢"},
		{ID: "q3", Kind: model.KindVocabulary, CorrectAnswer: "再见"},
	}
}

func TestStartSessionResetsProgress(t *testing.T) {
	s := NewStore()
	s.StartSession("quiz-1", threeQuestions())
	s.RecordAnswer(0, "你好")
	s.AddScore(10)
	s.Advance()
	s.SetBlankAnswer(0, "我", 2)
	s.PlaceTile("t1")
	s.ShowFeedback(true)

	s.StartSession("quiz-2", nil)

	assert.Equal(t, "quiz-2", s.QuizID())
	assert.Equal(t, 3, s.Len(), "question list is kept when omitted")
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 0, s.Score())
	assert.Empty(t, s.Answers())
	assert.Empty(t, s.BlankAnswers())
	assert.Empty(t, s.BlankAnswerIndices())
	assert.Empty(t, s.PlacedTileIDs())
	assert.False(t, s.Feedback().Visible)
}

func TestSetQuestionsKeepsProgress(t *testing.T) {
	s := NewStore()
	s.StartSession("quiz-1", nil)
	assert.False(t, s.HasActiveQuiz())

	s.RecordAnswer(0, "a")
	s.AddScore(10)
	s.SetQuestions(threeQuestions())

	assert.True(t, s.HasActiveQuiz())
	assert.Equal(t, 10, s.Score())
	answer, ok := s.Answer(0)
	require.True(t, ok)
	assert.Equal(t, "a", answer)
}

func TestCurrentQuestionOutOfRange(t *testing.T) {
	s := NewStore()
	_, ok := s.CurrentQuestion()
	assert.False(t, ok)
	assert.False(t, s.IsLastQuestion())

	s.StartSession("quiz-1", threeQuestions())
	for i := 0; i < 2; i++ {
		assert.False(t, s.IsLastQuestion())
		s.Advance()
	}
	assert.True(t, s.IsLastQuestion())
	q, ok := s.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "q3", q.ID)

	s.Advance()
	assert.Equal(t, 3, s.Cursor())
	assert.False(t, s.IsLastQuestion())
	_, ok = s.CurrentQuestion()
	assert.False(t, ok)
}

func TestAddScoreIsMonotonic(t *testing.T) {
	s := NewStore()
	s.StartSession("quiz-1", threeQuestions())
	sum := 0
	prev := 0
	for _, p := range []int{10, 0, 3, 7, -5, 10} {
		s.AddScore(p)
		if p > 0 {
			sum += p
		}
		assert.GreaterOrEqual(t, s.Score(), prev)
		prev = s.Score()
	}
	assert.Equal(t, sum, s.Score())
}

func TestAdvanceClearsEphemeralState(t *testing.T) {
	s := NewStore()
	s.StartSession("quiz-1", threeQuestions())
	s.SetBlankAnswer(0, "我", 0)
	s.SetBlankAnswer(1, "是", -1)
	s.PlaceTile("t0")
	s.PlaceTile("t2")
	s.MatchPair("你好", "hello")
	s.AddMatchMiss()
	s.RecordSubAnswer(0, "x", true)
	s.RecordResult(0, true)
	s.ShowFeedback(false)

	s.Advance()

	matched, misses := s.MatchBoard()
	assert.Empty(t, matched)
	assert.Zero(t, misses)
	answers, verdicts := s.SubAnswers()
	assert.Empty(t, answers)
	assert.Empty(t, verdicts)
	assert.Equal(t, map[int]bool{0: true}, s.Results())
	assert.Empty(t, s.BlankAnswers())
	assert.Empty(t, s.BlankAnswerIndices())
	assert.Empty(t, s.PlacedTileIDs())
	fb := s.Feedback()
	assert.False(t, fb.Visible)
	assert.Nil(t, fb.Correct)
}

func TestBlankAnswers(t *testing.T) {
	s := NewStore()
	s.StartSession("quiz-1", threeQuestions())
	s.SetBlankAnswer(0, "我", 3)
	s.SetBlankAnswer(1, "我", 4)
	s.SetBlankAnswer(2, "你", -1)

	assert.Equal(t, map[int]string{0: "我", 1: "我", 2: "你"}, s.BlankAnswers())
	assert.Equal(t, map[int]int{0: 3, 1: 4}, s.BlankAnswerIndices())

	s.ClearBlankAnswer(0)
	assert.Equal(t, map[int]string{1: "我", 2: "你"}, s.BlankAnswers())
	assert.Equal(t, map[int]int{1: 4}, s.BlankAnswerIndices())
}

func TestTiles(t *testing.T) {
	s := NewStore()
	s.PlaceTile("t2")
	s.PlaceTile("t0")
	s.PlaceTile("t1")
	s.RemoveTile("t0")
	assert.Equal(t, []string{"t2", "t1"}, s.PlacedTileIDs())

	s.RemoveTile("missing")
	assert.Equal(t, []string{"t2", "t1"}, s.PlacedTileIDs())

	s.ClearTiles()
	assert.Empty(t, s.PlacedTileIDs())
}

func TestFeedback(t *testing.T) {
	s := NewStore()
	s.ShowFeedback(true)
	fb := s.Feedback()
	require.NotNil(t, fb.Correct)
	assert.True(t, fb.Visible)
	assert.True(t, *fb.Correct)

	s.HideFeedback()
	fb = s.Feedback()
	assert.False(t, fb.Visible)
	assert.Nil(t, fb.Correct)
}

func TestResetReturnsToIdle(t *testing.T) {
	s := NewStore()
	s.StartSession("quiz-1", threeQuestions())
	s.SetMeta(model.QuizMeta{ChapterID: "3", BookID: "hsk1", Kind: model.KindVocabulary})
	s.RecordAnswer(0, "x")
	s.AddScore(10)
	s.Advance()

	s.Reset()

	assert.Equal(t, "", s.QuizID())
	assert.Equal(t, model.QuizMeta{}, s.Meta())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 0, s.Score())
	assert.Empty(t, s.Answers())
	assert.False(t, s.HasActiveQuiz())
}

func TestIndependentStores(t *testing.T) {
	a := NewStore()
	b := NewStore()
	a.StartSession("a", threeQuestions())
	a.AddScore(10)
	assert.Equal(t, 0, b.Score())
	assert.False(t, b.HasActiveQuiz())
}

func TestSnapshotRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kewen", "session.json")

	s := NewStore()
	s.StartSession("quiz-1", threeQuestions())
	s.SetMeta(model.QuizMeta{ChapterID: "3", BookID: "hsk1", Kind: model.KindVocabulary})
	s.RecordAnswer(0, "你好")
	s.AddScore(10)
	s.RecordResult(0, false)
	s.Advance()
	s.SetBlankAnswer(0, "我", 1)
	s.MatchPair("你好", "hello")
	s.AddMatchMiss()
	s.RecordSubAnswer(1, "y", true)

	require.NoError(t, SaveFile(path, s.Snapshot()))

	snap, ok, err := LoadFile(path)
	require.NoError(t, err)
	require.True(t, ok)

	restored := NewStore()
	restored.Restore(snap)
	assert.True(t, restored.HasActiveQuiz())
	assert.Equal(t, 1, restored.Cursor())
	assert.Equal(t, 10, restored.Score())
	assert.Equal(t, "hsk1", restored.Meta().BookID)
	assert.Equal(t, map[int]string{0: "你好"}, restored.Answers())
	assert.Equal(t, map[int]int{0: 1}, restored.BlankAnswerIndices())
	assert.Equal(t, map[int]bool{0: false}, restored.Results())
	matched, misses := restored.MatchBoard()
	assert.Equal(t, map[string]string{"你好": "hello"}, matched)
	assert.Equal(t, 1, misses)
	answers, verdicts := restored.SubAnswers()
	assert.Equal(t, map[int]string{1: "y"}, answers)
	assert.Equal(t, map[int]bool{1: true}, verdicts)

	require.NoError(t, RemoveFile(path))
	_, ok, err = LoadFile(path)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, RemoveFile(path))
}
