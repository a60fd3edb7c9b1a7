package generator

import (
	"context"

	"github.com/verte-zerg/kewen/internal/deck"
	"github.com/verte-zerg/kewen/internal/model"
)

// DeckSource serves quiz requests from a local deck.
type DeckSource struct {
	Gen  *Generator
	Deck deck.Deck
}

// GenerateQuiz builds a quiz for req from the requested chapter.
func (s DeckSource) GenerateQuiz(ctx context.Context, req model.QuizRequest) (model.Quiz, error) {
	if err := ctx.Err(); err != nil {
		return model.Quiz{}, err
	}
	ch, err := s.Deck.Chapter(req.ChapterID)
	if err != nil {
		return model.Quiz{}, err
	}
	return s.Gen.Generate(ch, req.Kind, req.Count)
}
