// Package quiz drives a quiz session: it turns learner actions into graded
// answers, score changes and persistence writes.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/persist"
	"github.com/verte-zerg/kewen/internal/session"
	"github.com/verte-zerg/kewen/internal/validator"
)

// DefaultPointsPerQuestion is awarded for a correct answer.
const DefaultPointsPerQuestion = 10

var (
	ErrNoQuestion         = errors.New("no current question")
	ErrWrongKind          = errors.New("action does not apply to this exercise kind")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrNotAnswered        = errors.New("question not answered yet")
	ErrIncomplete         = errors.New("answer is incomplete")
	ErrSessionComplete    = errors.New("session is complete")
	ErrSlotUsed           = errors.New("word bank slot already used")
	ErrUnknownTile        = errors.New("unknown tile")
	ErrUnknownBlank       = errors.New("unknown blank")
	ErrUnknownSubQuestion = errors.New("unknown sub-question")
	ErrBusy               = errors.New("answer is being validated")
	ErrSessionChanged     = errors.New("session changed during validation")
)

// AnswerValidator decides correctness for answers that may be paraphrased.
type AnswerValidator interface {
	Validate(ctx context.Context, req validator.Request) model.ValidationResult
	IsValidating() bool
}

// Persister records results without blocking the session.
type Persister interface {
	SaveQuestionResult(ctx context.Context, r model.QuestionResult) persist.Failure
	SaveQuizAttempt(ctx context.Context, a model.QuizAttempt) persist.Failure
}

// Config tunes a Controller. Zero values select defaults.
type Config struct {
	PointsPerQuestion int
	Logger            *log.Logger
	Now               func() time.Time
}

// Outcome describes a submitted answer.
type Outcome struct {
	Index       int
	Correct     bool
	Points      int
	Answer      string
	Explanation string
	// Validation is set for kinds graded by the answer validator.
	Validation *model.ValidationResult
	// BlankResults holds per-blank correctness for fill-in-blank.
	BlankResults []bool
	// MatchScore is the 0-100 matching score.
	MatchScore int
	Complete   bool
}

// Results is the final state of a completed session.
type Results struct {
	QuizID       string
	Meta         model.QuizMeta
	Score        int
	MaxScore     int
	Total        int
	CorrectCount int
	Answers      map[int]string
}

// Controller owns the flow of one session at a time.
type Controller struct {
	store     *session.Store
	validator AnswerValidator
	persister Persister
	logger    *log.Logger
	now       func() time.Time
	points    int

	mu            sync.Mutex
	busy          bool
	complete      bool
	questionStart time.Time

	wg sync.WaitGroup
}

// New returns a controller over store. validator and persister may be nil:
// without a validator only exact answers count, without a persister nothing
// is recorded.
func New(store *session.Store, v AnswerValidator, p Persister, cfg Config) *Controller {
	c := &Controller{
		store:     store,
		validator: v,
		persister: p,
		logger:    cfg.Logger,
		now:       cfg.Now,
		points:    cfg.PointsPerQuestion,
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.points <= 0 {
		c.points = DefaultPointsPerQuestion
	}
	return c
}

// Store returns the session store the controller drives.
func (c *Controller) Store() *session.Store {
	return c.store
}

// PointsPerQuestion returns the points awarded for one correct answer.
func (c *Controller) PointsPerQuestion() int {
	return c.points
}

// Start replaces the session with a new quiz.
func (c *Controller) Start(quiz model.Quiz, meta model.QuizMeta) error {
	if len(quiz.Questions) == 0 {
		return ErrNoQuestion
	}
	quizID := quiz.ID
	if quizID == "" {
		quizID = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.StartSession(quizID, quiz.Questions)
	c.store.SetMeta(meta)
	c.busy = false
	c.complete = false
	c.questionStart = c.now()
	return nil
}

// HasActiveQuiz reports whether the store holds a resumable session. It has
// no side effects.
func (c *Controller) HasActiveQuiz() bool {
	return c.store.HasActiveQuiz()
}

// Resume continues a session already present in the store, for example one
// restored from a snapshot. Partial matching and reading boards carry over.
// A session whose last question is answered completes at once and its quiz
// attempt is recorded.
func (c *Controller) Resume(ctx context.Context) error {
	if !c.store.HasActiveQuiz() {
		return ErrNoQuestion
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.complete = false
	c.store.HideFeedback()

	if _, answered := c.store.Answer(c.store.Cursor()); answered {
		if c.store.IsLastQuestion() {
			c.completeLocked(ctx)
			return nil
		}
		c.store.Advance()
	}
	if _, ok := c.store.CurrentQuestion(); !ok {
		c.completeLocked(ctx)
		return nil
	}
	c.questionStart = c.now()
	return nil
}

// Next advances to the following question after feedback was shown.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.complete {
		return ErrSessionComplete
	}
	if c.busy {
		return ErrBusy
	}
	if _, ok := c.store.CurrentQuestion(); !ok {
		return ErrNoQuestion
	}
	if _, answered := c.store.Answer(c.store.Cursor()); !answered {
		return ErrNotAnswered
	}
	c.store.Advance()
	c.questionStart = c.now()
	return nil
}

// Continue leaves the session and returns the store to idle.
func (c *Controller) Continue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Reset()
	c.busy = false
	c.complete = false
}

// IsComplete reports whether the last question has been submitted.
func (c *Controller) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// IsValidating reports whether a remote validation is in flight.
func (c *Controller) IsValidating() bool {
	return c.validator != nil && c.validator.IsValidating()
}

// Results returns the session totals. The store still holds the answers
// after completion until Continue is called.
func (c *Controller) Results() Results {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultsLocked()
}

// Wait blocks until background persistence writes finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// current returns the question at the cursor after checking the session
// accepts an answer of one of kinds.
func (c *Controller) current(kinds ...model.ExerciseKind) (model.Question, int, error) {
	if c.complete {
		return model.Question{}, 0, ErrSessionComplete
	}
	if c.busy {
		return model.Question{}, 0, ErrBusy
	}
	q, ok := c.store.CurrentQuestion()
	if !ok {
		return model.Question{}, 0, ErrNoQuestion
	}
	index := c.store.Cursor()
	if len(kinds) > 0 && !kindIn(q.Kind, kinds) {
		return model.Question{}, 0, ErrWrongKind
	}
	if _, answered := c.store.Answer(index); answered {
		return model.Question{}, 0, ErrAlreadyAnswered
	}
	return q, index, nil
}

// validateRemote runs the answer validator outside the controller lock and
// then re-checks that the session did not move on.
func (c *Controller) validateRemote(ctx context.Context, q model.Question, index int, answer string) (model.ValidationResult, error) {
	quizID := c.store.QuizID()
	c.busy = true
	c.mu.Unlock()

	var res model.ValidationResult
	req := validator.Request{
		UserAnswer:          answer,
		CorrectAnswer:       q.CorrectAnswer,
		Question:            q.Prompt,
		Kind:                q.Kind,
		FallbackExplanation: q.Explanation,
	}
	if c.validator != nil {
		res = c.validator.Validate(ctx, req)
	} else {
		res = model.ValidationResult{
			IsCorrect:   strings.TrimSpace(answer) == strings.TrimSpace(q.CorrectAnswer),
			Explanation: q.Explanation,
		}
	}

	c.mu.Lock()
	c.busy = false
	if c.store.QuizID() != quizID || c.store.Cursor() != index {
		return res, ErrSessionChanged
	}
	return res, nil
}

// finish runs the shared post-answer steps. answeredAt is when the learner
// submitted, taken before any grading. Callers hold c.mu.
func (c *Controller) finish(ctx context.Context, q model.Question, index int, answer string, correct bool, points int, answeredAt time.Time) Outcome {
	elapsed := answeredAt.Sub(c.questionStart).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	c.store.RecordAnswer(index, answer)
	c.store.AddScore(points)
	c.store.RecordResult(index, correct)

	meta := c.store.Meta()
	c.saveResult(ctx, model.QuestionResult{
		QuizID:      c.store.QuizID(),
		QuestionID:  q.ID,
		ChapterID:   meta.ChapterID,
		BookID:      meta.BookID,
		Kind:        q.Kind,
		Correct:     correct,
		TimeSpentMs: elapsed,
		AnsweredAt:  answeredAt,
	})
	c.store.ShowFeedback(correct)

	out := Outcome{
		Index:       index,
		Correct:     correct,
		Points:      max(points, 0),
		Answer:      answer,
		Explanation: q.Explanation,
	}
	if c.store.IsLastQuestion() {
		c.completeLocked(ctx)
		out.Complete = true
	}
	return out
}

func (c *Controller) completeLocked(ctx context.Context) {
	c.complete = true
	res := c.resultsLocked()
	answersJSON, err := json.Marshal(res.Answers)
	if err != nil {
		answersJSON = []byte("{}")
	}
	kind := res.Meta.Kind
	if kind == "" {
		if q, ok := c.store.CurrentQuestion(); ok {
			kind = q.Kind
		}
	}
	attempt := model.QuizAttempt{
		ID:             uuid.NewString(),
		QuizID:         res.QuizID,
		ChapterID:      res.Meta.ChapterID,
		BookID:         res.Meta.BookID,
		Kind:           kind,
		Score:          res.Score,
		MaxScore:       res.MaxScore,
		TotalQuestions: res.Total,
		CorrectCount:   res.CorrectCount,
		AnswersJSON:    string(answersJSON),
		CompletedAt:    c.now(),
	}
	if c.persister == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if failure := c.persister.SaveQuizAttempt(bg, attempt); failure != persist.FailureNone {
			c.logger.Printf("quiz: attempt for %s not recorded (%s)", attempt.QuizID, failure)
		}
	}()
}

func (c *Controller) saveResult(ctx context.Context, r model.QuestionResult) {
	if c.persister == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.persister.SaveQuestionResult(bg, r)
	}()
}

func (c *Controller) resultsLocked() Results {
	snap := c.store.Snapshot()
	correct := 0
	for _, ok := range snap.Results {
		if ok {
			correct++
		}
	}
	return Results{
		QuizID:       snap.QuizID,
		Meta:         snap.Meta,
		Score:        snap.Score,
		MaxScore:     MaxScore(snap.Questions, c.points),
		Total:        len(snap.Questions),
		CorrectCount: correct,
		Answers:      snap.Answers,
	}
}

// MaxScore returns the highest reachable score for questions.
func MaxScore(questions []model.Question, pointsPerQuestion int) int {
	total := 0
	for _, q := range questions {
		if q.Kind == model.KindReading && len(q.SubQuestions) > 0 {
			total += pointsPerQuestion * len(q.SubQuestions)
			continue
		}
		total += pointsPerQuestion
	}
	return total
}

func kindIn(kind model.ExerciseKind, kinds []model.ExerciseKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
