// Package persist records quiz activity on a best-effort basis. Nothing
// here returns an error to the learning flow.
package persist

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"syscall"

	"github.com/verte-zerg/kewen/internal/model"
)

// MaxQueued bounds the retry queue. The oldest entry is dropped when full.
const MaxQueued = 10

var (
	// ErrSchemaMissing marks a write that cannot succeed because the backing
	// table does not exist.
	ErrSchemaMissing = errors.New("persist: schema missing")
	// ErrUnavailable marks a write that failed for a transient reason.
	ErrUnavailable = errors.New("persist: store unavailable")
)

// Writer is the durable store.
type Writer interface {
	InsertQuestionResult(ctx context.Context, r model.QuestionResult) error
	InsertQuizAttempt(ctx context.Context, a model.QuizAttempt) error
	RecordMastery(ctx context.Context, userID string, kind model.ExerciseKind, score int) error
}

// IdentityProvider returns the current authenticated user id, if any.
type IdentityProvider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Failure is the class of a failed write.
type Failure int

const (
	FailureNone Failure = iota
	FailureNoIdentity
	FailureSchemaMissing
	FailureTransient
	FailurePermanent
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureNoIdentity:
		return "no-identity"
	case FailureSchemaMissing:
		return "schema-missing"
	case FailureTransient:
		return "transient"
	default:
		return "permanent"
	}
}

// Classify maps a write error to its failure class.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, ErrSchemaMissing) {
		return FailureSchemaMissing
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return FailureTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureTransient
	}
	return FailurePermanent
}

// Gateway writes question results and quiz attempts through a Writer.
type Gateway struct {
	writer   Writer
	identity IdentityProvider
	logger   *log.Logger

	mu       sync.Mutex
	queue    []model.QuestionResult
	flushing bool
}

// NewGateway returns a gateway. A nil logger discards messages.
func NewGateway(writer Writer, identity IdentityProvider, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Gateway{writer: writer, identity: identity, logger: logger}
}

// SaveQuestionResult writes one per-question result. The user id is filled
// from the identity provider. Transient failures are queued for retry and
// flushed after the next successful write.
func (g *Gateway) SaveQuestionResult(ctx context.Context, r model.QuestionResult) Failure {
	userID, ok := g.userID(ctx)
	if !ok {
		g.logger.Printf("persist: no identity, skipping result for question %s", r.QuestionID)
		return FailureNoIdentity
	}
	r.UserID = userID

	failure := Classify(g.writer.InsertQuestionResult(ctx, r))
	switch failure {
	case FailureNone:
		g.flush(ctx)
	case FailureTransient:
		g.enqueue(r)
		g.logger.Printf("persist: store unavailable, queued result for question %s", r.QuestionID)
	case FailureSchemaMissing:
		g.logger.Printf("persist: question_results table missing, dropping result for question %s", r.QuestionID)
	default:
		g.logger.Printf("persist: dropping result for question %s", r.QuestionID)
	}
	return failure
}

// SaveQuizAttempt writes the end-of-quiz attempt and updates mastery for
// the exercise kind. It is never queued.
func (g *Gateway) SaveQuizAttempt(ctx context.Context, a model.QuizAttempt) Failure {
	userID, ok := g.userID(ctx)
	if !ok {
		g.logger.Printf("persist: no identity, skipping attempt for quiz %s", a.QuizID)
		return FailureNoIdentity
	}
	a.UserID = userID

	err := g.writer.InsertQuizAttempt(ctx, a)
	if failure := Classify(err); failure != FailureNone {
		g.logger.Printf("persist: attempt for quiz %s not saved (%s): %v", a.QuizID, failure, err)
		return failure
	}
	if err := g.writer.RecordMastery(ctx, userID, a.Kind, a.Percent()); err != nil {
		failure := Classify(err)
		g.logger.Printf("persist: mastery for %s not updated (%s): %v", a.Kind, failure, err)
		return failure
	}
	return FailureNone
}

// QueueLen returns the number of results waiting for retry.
func (g *Gateway) QueueLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Pending returns a copy of the queued results, oldest first.
func (g *Gateway) Pending() []model.QuestionResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.QuestionResult{}, g.queue...)
}

func (g *Gateway) userID(ctx context.Context) (string, bool) {
	if g.identity == nil {
		return "", false
	}
	id, ok := g.identity.CurrentUserID(ctx)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (g *Gateway) enqueue(r model.QuestionResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) >= MaxQueued {
		g.queue = append(g.queue[:0:0], g.queue[len(g.queue)-MaxQueued+1:]...)
	}
	g.queue = append(g.queue, r)
}

// flush retries queued results oldest first. It stops at the first
// transient failure, keeping that entry and everything after it.
func (g *Gateway) flush(ctx context.Context) {
	g.mu.Lock()
	if g.flushing || len(g.queue) == 0 {
		g.mu.Unlock()
		return
	}
	g.flushing = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.flushing = false
		g.mu.Unlock()
	}()

	for {
		g.mu.Lock()
		if len(g.queue) == 0 {
			g.mu.Unlock()
			return
		}
		next := g.queue[0]
		g.mu.Unlock()

		err := g.writer.InsertQuestionResult(ctx, next)
		if Classify(err) == FailureTransient {
			return
		}
		if err != nil {
			g.logger.Printf("persist: dropping queued result for question %s: %v", next.QuestionID, err)
		}

		g.mu.Lock()
		if len(g.queue) > 0 && g.queue[0] == next {
			g.queue = g.queue[1:]
		}
		g.mu.Unlock()
	}
}
