package quiz

import (
	"context"
	"time"

	"github.com/verte-zerg/kewen/internal/grading"
	"github.com/verte-zerg/kewen/internal/model"
)

// MatchState is a read-only view of the matching board.
type MatchState struct {
	Matched   map[string]string
	Incorrect int
	Total     int
}

// TryMatch attempts to pair left with right. A wrong pair counts as an
// incorrect attempt. When every pair is matched the question is submitted
// and the returned outcome is non-nil.
func (c *Controller) TryMatch(ctx context.Context, left, right string) (bool, *Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindMatching)
	if err != nil {
		return false, nil, err
	}
	answeredAt := c.now()
	matched, _ := c.store.MatchBoard()
	if _, done := matched[left]; done {
		return false, nil, ErrAlreadyAnswered
	}

	ok := false
	for _, p := range q.Pairs {
		if p.Left == left && p.Right == right {
			ok = true
			break
		}
	}
	if !ok {
		c.store.AddMatchMiss()
		return false, nil, nil
	}
	c.store.MatchPair(left, right)
	matched, misses := c.store.MatchBoard()
	if len(matched) < len(q.Pairs) {
		return true, nil, nil
	}
	out := c.gradeMatching(ctx, q, index, matched, misses, answeredAt)
	return true, &out, nil
}

// SubmitMatching grades a matching question from a board kept by the
// caller. Only pairs present in the question count as matched. With nil
// pairs the controller's own board is graded as it stands.
func (c *Controller) SubmitMatching(ctx context.Context, pairs map[string]string, incorrect int) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, index, err := c.current(model.KindMatching)
	if err != nil {
		return Outcome{}, err
	}
	answeredAt := c.now()
	if pairs == nil {
		matched, misses := c.store.MatchBoard()
		pairs = matched
		incorrect += misses
	}
	return c.gradeMatching(ctx, q, index, pairs, incorrect, answeredAt), nil
}

// MatchState returns the current matching board.
func (c *Controller) MatchState() MatchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	matched, misses := c.store.MatchBoard()
	total := 0
	if q, ok := c.store.CurrentQuestion(); ok {
		total = len(q.Pairs)
	}
	return MatchState{Matched: matched, Incorrect: misses, Total: total}
}

// gradeMatching scores partial credit: points follow the matching score
// even below the pass mark, while correctness needs the pass mark.
func (c *Controller) gradeMatching(ctx context.Context, q model.Question, index int, pairs map[string]string, incorrect int, answeredAt time.Time) Outcome {
	matched := 0
	for _, p := range q.Pairs {
		if pairs[p.Left] == p.Right {
			matched++
		}
	}
	score := grading.MatchingScore(matched, len(q.Pairs), incorrect)
	points := grading.MatchingPoints(score, c.points)
	out := c.finish(ctx, q, index, encodeAnswer(pairs), grading.MatchingPassed(score), points, answeredAt)
	out.MatchScore = score
	return out
}
