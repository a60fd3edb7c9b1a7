package stats

import (
	"sort"

	"github.com/verte-zerg/kewen/internal/model"
)

// WeakestKinds returns up to top exercise kinds with the lowest accuracy.
func WeakestKinds(aggs []model.KindAggregate, top int) []model.ExerciseKind {
	if len(aggs) == 0 {
		return nil
	}
	candidates := make([]model.KindAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Correct+agg.Incorrect > 0 {
			candidates = append(candidates, agg)
		}
	}
	sortByAccuracy(candidates)
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]model.ExerciseKind, 0, top)
	for _, c := range candidates[:top] {
		out = append(out, c.Kind)
	}
	return out
}

func sortByAccuracy(aggs []model.KindAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		ai := accuracy(aggs[i])
		aj := accuracy(aggs[j])
		if ai == aj {
			return aggs[i].Kind < aggs[j].Kind
		}
		return ai < aj
	})
}

func accuracy(agg model.KindAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
