package app

import (
	"context"
	"fmt"

	"quizroom/internal/domain"
)

// QuestionSetRepository loads question sets (from cache/backing store).
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
	ListQuestionSets(ctx context.Context) ([]domain.QuestionSet, error)
}

// Library imports stored question sets into rooms the user owns.
type Library struct {
	c    *Client
	sets QuestionSetRepository
}

func (c *Client) Library(sets QuestionSetRepository) *Library {
	return &Library{c: c, sets: sets}
}

// List returns the available sets without their questions.
func (l *Library) List(ctx context.Context) ([]domain.QuestionSet, error) {
	return l.sets.ListQuestionSets(ctx)
}

// Import copies set setID into room code through the owner console.
func (l *Library) Import(ctx context.Context, code, setID string) (int, error) {
	set, err := l.sets.GetQuestionSet(ctx, setID)
	if err != nil {
		return 0, fmt.Errorf("load question set %s: %w", setID, err)
	}
	manage := l.c.Manage(code, NavigatorFunc(func(string) {}))
	if err := manage.Open(ctx); err != nil {
		return 0, err
	}
	return manage.ImportQuestions(ctx, set)
}
