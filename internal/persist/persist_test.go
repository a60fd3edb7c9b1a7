package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kewen/internal/model"
)

type fakeWriter struct {
	mu       sync.Mutex
	fail     error
	results  []model.QuestionResult
	attempts []model.QuizAttempt
	mastery  map[model.ExerciseKind]int
	calls    int
}

func (w *fakeWriter) setFail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = err
}

func (w *fakeWriter) InsertQuestionResult(_ context.Context, r model.QuestionResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fail != nil {
		return w.fail
	}
	w.results = append(w.results, r)
	return nil
}

func (w *fakeWriter) InsertQuizAttempt(_ context.Context, a model.QuizAttempt) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fail != nil {
		return w.fail
	}
	w.attempts = append(w.attempts, a)
	return nil
}

func (w *fakeWriter) RecordMastery(_ context.Context, _ string, kind model.ExerciseKind, score int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mastery == nil {
		w.mastery = map[model.ExerciseKind]int{}
	}
	w.mastery[kind] = score
	return nil
}

type staticIdentity string

func (s staticIdentity) CurrentUserID(context.Context) (string, bool) {
	return string(s), s != ""
}

func result(n int) model.QuestionResult {
	return model.QuestionResult{
		QuizID:     "quiz-1",
		QuestionID: fmt.Sprintf("q%d", n),
		Kind:       model.KindVocabulary,
		AnsweredAt: time.Unix(int64(n), 0).UTC(),
	}
}

func TestNoIdentitySkipsWrite(t *testing.T) {
	w := &fakeWriter{}
	g := NewGateway(w, staticIdentity(""), nil)

	assert.Equal(t, FailureNoIdentity, g.SaveQuestionResult(context.Background(), result(1)))
	assert.Equal(t, FailureNoIdentity, g.SaveQuizAttempt(context.Background(), model.QuizAttempt{}))
	assert.Equal(t, 0, w.calls)
	assert.Equal(t, 0, g.QueueLen())
}

func TestNilIdentityProviderSkipsWrite(t *testing.T) {
	w := &fakeWriter{}
	g := NewGateway(w, nil, nil)
	assert.Equal(t, FailureNoIdentity, g.SaveQuestionResult(context.Background(), result(1)))
	assert.Equal(t, 0, w.calls)
}

func TestSuccessfulWriteFillsUserID(t *testing.T) {
	w := &fakeWriter{}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	assert.Equal(t, FailureNone, g.SaveQuestionResult(context.Background(), result(1)))
	require.Len(t, w.results, 1)
	assert.Equal(t, "user-1", w.results[0].UserID)
}

func TestSchemaMissingIsNotQueued(t *testing.T) {
	w := &fakeWriter{fail: fmt.Errorf("insert: %w", ErrSchemaMissing)}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	assert.Equal(t, FailureSchemaMissing, g.SaveQuestionResult(context.Background(), result(1)))
	assert.Equal(t, 0, g.QueueLen())
}

func TestPermanentFailureIsNotQueued(t *testing.T) {
	w := &fakeWriter{fail: errors.New("constraint violated")}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	assert.Equal(t, FailurePermanent, g.SaveQuestionResult(context.Background(), result(1)))
	assert.Equal(t, 0, g.QueueLen())
}

func TestRetryQueueIsBounded(t *testing.T) {
	w := &fakeWriter{fail: ErrUnavailable}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	for i := 1; i <= 13; i++ {
		assert.Equal(t, FailureTransient, g.SaveQuestionResult(context.Background(), result(i)))
		assert.LessOrEqual(t, g.QueueLen(), MaxQueued)
	}

	pending := g.Pending()
	require.Len(t, pending, MaxQueued)
	assert.Equal(t, "q4", pending[0].QuestionID)
	assert.Equal(t, "q13", pending[MaxQueued-1].QuestionID)
}

func TestFlushAfterSuccessOldestFirst(t *testing.T) {
	w := &fakeWriter{fail: fmt.Errorf("dial: %w", ErrUnavailable)}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	for i := 1; i <= 3; i++ {
		g.SaveQuestionResult(context.Background(), result(i))
	}
	require.Equal(t, 3, g.QueueLen())

	w.setFail(nil)
	assert.Equal(t, FailureNone, g.SaveQuestionResult(context.Background(), result(4)))

	assert.Equal(t, 0, g.QueueLen())
	ids := make([]string, 0, len(w.results))
	for _, r := range w.results {
		ids = append(ids, r.QuestionID)
	}
	assert.Equal(t, []string{"q4", "q1", "q2", "q3"}, ids)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FailureNone, Classify(nil))
	assert.Equal(t, FailureTransient, Classify(context.DeadlineExceeded))
	assert.Equal(t, FailureTransient, Classify(fmt.Errorf("x: %w", ErrUnavailable)))
	assert.Equal(t, FailureSchemaMissing, Classify(fmt.Errorf("x: %w", ErrSchemaMissing)))
	assert.Equal(t, FailurePermanent, Classify(errors.New("bad")))
	assert.Equal(t, "schema-missing", FailureSchemaMissing.String())
}

func TestSaveQuizAttemptRecordsMastery(t *testing.T) {
	w := &fakeWriter{}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	failure := g.SaveQuizAttempt(context.Background(), model.QuizAttempt{
		QuizID:   "quiz-1",
		Kind:     model.KindMatching,
		Score:    20,
		MaxScore: 30,
	})

	assert.Equal(t, FailureNone, failure)
	require.Len(t, w.attempts, 1)
	assert.Equal(t, "user-1", w.attempts[0].UserID)
	assert.Equal(t, 66, w.mastery[model.KindMatching])
}

func TestSaveQuizAttemptTransientIsNotQueued(t *testing.T) {
	w := &fakeWriter{fail: ErrUnavailable}
	g := NewGateway(w, staticIdentity("user-1"), nil)

	assert.Equal(t, FailureTransient, g.SaveQuizAttempt(context.Background(), model.QuizAttempt{QuizID: "quiz-1"}))
	assert.Equal(t, 0, g.QueueLen())
	assert.Empty(t, w.mastery)
}
