package deck

import "github.com/verte-zerg/kewen/internal/model"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(Word) bool

// FilterForKind returns a filter keeping words usable for an exercise kind.
func FilterForKind(kind model.ExerciseKind) FilterFunc {
	switch kind {
	case model.KindTextInput:
		return func(w Word) bool { return w.Pinyin != "" }
	case model.KindVocabulary, model.KindMatching:
		return func(w Word) bool { return w.English != "" }
	default:
		return func(Word) bool { return true }
	}
}

// Filter returns the words kept by keep.
func Filter(words []Word, keep FilterFunc) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
