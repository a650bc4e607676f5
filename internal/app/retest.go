package app

import (
	"context"
	"fmt"

	"english-mcq-service/internal/domain"
)

// RetestQuestions returns up to count open wrong questions, oldest attempt first.
func (s *Service) RetestQuestions(ctx context.Context, userID string, count int) ([]domain.RetestItem, error) {
	if count < 1 {
		return nil, domain.InvalidInput("count must be positive")
	}
	if count > s.settings.MaxRetestCount {
		count = s.settings.MaxRetestCount
	}

	wrong, err := s.store.WrongQuestions(ctx, domain.WrongQuestionQuery{UserID: userID, Limit: count})
	if err != nil {
		return nil, fmt.Errorf("list wrong questions: %w", err)
	}
	items := make([]domain.RetestItem, 0, len(wrong))
	for _, w := range wrong {
		items = append(items, domain.RetestItem{
			ID:                 w.Question.ID,
			QuestionText:       w.Question.Text,
			Options:            nonNil(w.Question.Options),
			PreviousUserAnswer: w.LastUserAnswer,
		})
	}
	return items, nil
}

// SubmitRetest grades retest answers; correct ones close their wrongdoing rows.
func (s *Service) SubmitRetest(ctx context.Context, userID string, answers map[string]string) (domain.RetestResult, error) {
	graded, outcome, err := s.score(ctx, userID, domain.AttemptRetest, "", submissionsFromMap(answers))
	if err != nil {
		return domain.RetestResult{}, err
	}
	result := domain.RetestResult{
		Results:  make([]domain.RetestAnswerResult, 0, len(graded)),
		Resolved: outcome.Resolved,
	}
	for _, g := range graded {
		result.Results = append(result.Results, domain.RetestAnswerResult{
			QuestionID:        g.QuestionID,
			IsCorrect:         g.IsCorrect,
			CorrectAnswerText: g.CorrectAnswer,
		})
	}
	return result, nil
}

func nonNil(options []string) []string {
	if options == nil {
		return []string{}
	}
	return options
}
