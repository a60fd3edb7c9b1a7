package stats

import (
	"context"

	"github.com/verte-zerg/kewen/internal/model"
)

// Source is the read side of the results store.
type Source interface {
	ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.QuizAttempt, error)
	KindAggregates(ctx context.Context, userID string, quizIDs []string) ([]model.KindAggregate, error)
	ListMastery(ctx context.Context, userID string) ([]model.Mastery, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Attempts []model.QuizAttempt
	Kinds    []model.KindAggregate
	Mastery  []model.Mastery
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	attempts, err := src.ListAttempts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(attempts) > cfg.Last {
		attempts = attempts[len(attempts)-cfg.Last:]
	}
	if len(attempts) == 0 {
		return Report{}, nil
	}

	kinds, err := src.KindAggregates(ctx, cfg.UserID, quizIDs(attempts))
	if err != nil {
		return Report{}, err
	}
	mastery, err := src.ListMastery(ctx, cfg.UserID)
	if err != nil {
		return Report{}, err
	}
	return Report{Attempts: attempts, Kinds: kinds, Mastery: mastery}, nil
}

func quizIDs(attempts []model.QuizAttempt) []string {
	ids := make([]string, len(attempts))
	for i, a := range attempts {
		ids[i] = a.QuizID
	}
	return ids
}
