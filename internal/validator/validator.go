// Package validator decides correctness for answers that may be valid
// paraphrases of the canonical answer.
package validator

import (
	"context"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/kewen/internal/model"
)

// DefaultTimeout bounds a single remote validation call.
const DefaultTimeout = 5 * time.Second

// Checker is the remote semantic validation service.
type Checker interface {
	CheckAnswer(ctx context.Context, req model.ValidationRequest) (model.Verdict, error)
}

// Request describes one answer to validate.
type Request struct {
	UserAnswer          string
	CorrectAnswer       string
	Question            string
	Kind                model.ExerciseKind
	FallbackExplanation string
}

// Validator runs the exact-match fast path and falls back to the remote
// checker. It never returns an error: remote failures mark the answer incorrect.
type Validator struct {
	remote  Checker
	timeout time.Duration
	logger  *log.Logger

	validating atomic.Int32
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout overrides the remote call timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithLogger sets the logger for remote failures.
func WithLogger(l *log.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New returns a Validator. A nil remote disables the remote path.
func New(remote Checker, opts ...Option) *Validator {
	v := &Validator{
		remote:  remote,
		timeout: DefaultTimeout,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsValidating reports whether a remote call is in flight.
func (v *Validator) IsValidating() bool {
	return v.validating.Load() > 0
}

// Validate decides whether req.UserAnswer is correct.
func (v *Validator) Validate(ctx context.Context, req Request) model.ValidationResult {
	if strings.TrimSpace(req.UserAnswer) == strings.TrimSpace(req.CorrectAnswer) {
		return model.ValidationResult{
			IsCorrect:   true,
			Explanation: req.FallbackExplanation,
		}
	}
	fallback := model.ValidationResult{Explanation: req.FallbackExplanation}
	if v.remote == nil {
		return fallback
	}

	v.validating.Add(1)
	defer v.validating.Add(-1)

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	type outcome struct {
		verdict model.Verdict
		err     error
	}
	// Buffered so a late response after timeout does not block the sender.
	done := make(chan outcome, 1)
	go func() {
		verdict, err := v.remote.CheckAnswer(ctx, model.ValidationRequest{
			Question:      req.Question,
			UserAnswer:    req.UserAnswer,
			CorrectAnswer: req.CorrectAnswer,
			Kind:          req.Kind,
		})
		done <- outcome{verdict: verdict, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			v.logger.Printf("validator: remote check failed, marking incorrect: %v", out.err)
			return fallback
		}
		return model.ValidationResult{
			IsCorrect:     out.verdict.IsCorrect,
			IsAlternative: out.verdict.IsCorrect,
			Explanation:   out.verdict.Explanation,
			Alternatives:  out.verdict.Alternatives,
			UsedRemote:    true,
		}
	case <-ctx.Done():
		v.logger.Printf("validator: remote check timed out after %s, marking incorrect", v.timeout)
		return fallback
	}
}
