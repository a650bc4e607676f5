package app

import (
	"context"
	"fmt"

	"english-mcq-service/internal/domain"
)

// Dashboard aggregates points and the user's outstanding wrong questions.
func (s *Service) Dashboard(ctx context.Context, userID string) (domain.Dashboard, error) {
	data, err := s.store.DashboardData(ctx, userID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}
	if data.PointsHistory == nil {
		data.PointsHistory = []domain.PointsEntry{}
	}

	wrong, err := s.store.WrongQuestions(ctx, domain.WrongQuestionQuery{UserID: userID, NewestFirst: true})
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("list wrong questions: %w", err)
	}
	dash := domain.Dashboard{
		DashboardData:  data,
		WrongQuestions: make([]domain.DashboardWrongQuestion, 0, len(wrong)),
	}
	for _, w := range wrong {
		dash.WrongQuestions = append(dash.WrongQuestions, domain.DashboardWrongQuestion{
			ID:            w.Question.ID,
			Question:      w.Question.Text,
			Options:       nonNil(w.Question.Options),
			UserAnswer:    w.LastUserAnswer,
			CorrectAnswer: w.Question.CorrectAnswer,
			Date:          w.LastAttempted.UTC().Format(domain.DateLayout),
		})
	}
	return dash, nil
}

// ResetDashboard zeroes points and history; answers and wrong questions stay.
func (s *Service) ResetDashboard(ctx context.Context, userID string) error {
	if err := s.store.ResetDashboard(ctx, userID); err != nil {
		return fmt.Errorf("reset dashboard: %w", err)
	}
	s.log.Info("dashboard reset", "user_id", userID)
	s.publish(ctx, domain.DashboardData{UserID: userID})
	return nil
}

// EraseUserData removes all learning data of a user but keeps the user row.
func (s *Service) EraseUserData(ctx context.Context, userID string) error {
	if err := s.store.EraseUserData(ctx, userID); err != nil {
		return fmt.Errorf("erase user data: %w", err)
	}
	s.log.Info("user data erased", "user_id", userID)
	s.publish(ctx, domain.DashboardData{UserID: userID})
	return nil
}
