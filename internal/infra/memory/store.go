package memory

import (
	"context"
	"sync"

	"english-mcq-service/internal/domain"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of app.Store. A single mutex makes
// every operation atomic.
type Store struct {
	mu         sync.RWMutex
	users      map[string]domain.User // by ID
	emails     map[string]string      // email -> user ID
	questions  map[string]domain.Question
	answers    []domain.UserAnswer
	wrong      []domain.WrongdoingQuestion
	dashboards map[string]domain.DashboardData // by user ID
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		emails:     make(map[string]string),
		questions:  make(map[string]domain.Question),
		dashboards: make(map[string]domain.DashboardData),
	}
}

func (s *Store) EnsureUser(_ context.Context, identity domain.Identity) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.emails[identity.Email]; ok {
		return s.users[id], nil
	}
	user := domain.User{
		ID:     uuid.NewString(),
		Email:  identity.Email,
		Name:   identity.Name,
		Avatar: identity.Avatar,
	}
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	return user, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateAvatar(_ context.Context, userID, avatarURL string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.Avatar = avatarURL
	s.users[userID] = user
	return user, nil
}

func (s *Store) SaveQuestions(_ context.Context, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		s.questions[q.ID] = q
	}
	return nil
}

func (s *Store) LoadQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	q.Options = append([]string(nil), q.Options...)
	return q, nil
}

func (s *Store) RecordAttempt(_ context.Context, attempt domain.Attempt) (domain.AttemptOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[attempt.UserID]; !ok {
		return domain.AttemptOutcome{}, domain.ErrUserNotFound
	}
	for _, ans := range attempt.Answers {
		if _, ok := s.questions[ans.QuestionID]; !ok {
			return domain.AttemptOutcome{}, domain.ErrQuestionNotFound
		}
	}

	outcome := domain.AttemptOutcome{}
	for _, ans := range attempt.Answers {
		s.answers = append(s.answers, domain.UserAnswer{
			ID:             uuid.NewString(),
			UserID:         attempt.UserID,
			QuestionID:     ans.QuestionID,
			SelectedAnswer: ans.SelectedAnswer,
			IsCorrect:      ans.IsCorrect,
			Timestamp:      attempt.At,
		})

		switch {
		case !ans.IsCorrect:
			s.touchOrOpenLocked(attempt.UserID, ans.QuestionID, attempt)
		case attempt.Kind == domain.AttemptRetest:
			outcome.Resolved += s.resolveLocked(attempt.UserID, ans.QuestionID, attempt)
		}
	}

	dash, ok := s.dashboards[attempt.UserID]
	if !ok {
		dash = domain.DashboardData{UserID: attempt.UserID}
	}
	if attempt.Kind == domain.AttemptPractice {
		points := attempt.Points()
		dash.TotalPoints += points
		dash.PreviousSessionPoints = points
		dash.PointsHistory = domain.AppendHistory(dash.PointsHistory, attempt.HistoryEntry(), attempt.HistoryLimit)
		s.dashboards[attempt.UserID] = dash
	}
	outcome.Dashboard = copyDashboard(dash)
	return outcome, nil
}

// touchOrOpenLocked keeps at most one open row per (user, question).
func (s *Store) touchOrOpenLocked(userID, questionID string, attempt domain.Attempt) {
	for i := range s.wrong {
		w := &s.wrong[i]
		if w.UserID == userID && w.QuestionID == questionID && !w.RetestedCorrectly {
			w.LastAttempted = attempt.At
			return
		}
	}
	s.wrong = append(s.wrong, domain.WrongdoingQuestion{
		ID:            uuid.NewString(),
		UserID:        userID,
		QuestionID:    questionID,
		LastAttempted: attempt.At,
	})
}

func (s *Store) resolveLocked(userID, questionID string, attempt domain.Attempt) int {
	resolved := 0
	for i := range s.wrong {
		w := &s.wrong[i]
		if w.UserID == userID && w.QuestionID == questionID && !w.RetestedCorrectly {
			w.RetestedCorrectly = true
			w.LastAttempted = attempt.At
			resolved++
		}
	}
	return resolved
}

func (s *Store) WrongQuestions(_ context.Context, query domain.WrongQuestionQuery) ([]domain.WrongQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := make([]domain.WrongdoingQuestion, 0)
	for _, w := range s.wrong {
		if w.UserID == query.UserID {
			mine = append(mine, w)
		}
	}
	open := domain.OpenPerQuestion(mine, query.NewestFirst, query.Limit)

	out := make([]domain.WrongQuestion, 0, len(open))
	for _, w := range open {
		q, ok := s.questions[w.QuestionID]
		if !ok {
			continue
		}
		out = append(out, domain.WrongQuestion{
			ID:             w.ID,
			Question:       q,
			LastUserAnswer: s.lastAnswerLocked(query.UserID, w.QuestionID),
			LastAttempted:  w.LastAttempted,
		})
	}
	return out, nil
}

// lastAnswerLocked relies on answers being appended in time order.
func (s *Store) lastAnswerLocked(userID, questionID string) string {
	for i := len(s.answers) - 1; i >= 0; i-- {
		a := s.answers[i]
		if a.UserID == userID && a.QuestionID == questionID {
			return a.SelectedAnswer
		}
	}
	return ""
}

func (s *Store) DashboardData(_ context.Context, userID string) (domain.DashboardData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dash, ok := s.dashboards[userID]
	if !ok {
		return domain.DashboardData{UserID: userID, PointsHistory: []domain.PointsEntry{}}, nil
	}
	return copyDashboard(dash), nil
}

func (s *Store) ResetDashboard(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dashboards[userID]; ok {
		s.dashboards[userID] = domain.DashboardData{UserID: userID, PointsHistory: []domain.PointsEntry{}}
	}
	return nil
}

func (s *Store) EraseUserData(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := s.answers[:0]
	for _, a := range s.answers {
		if a.UserID != userID {
			answers = append(answers, a)
		}
	}
	s.answers = answers

	wrong := s.wrong[:0]
	for _, w := range s.wrong {
		if w.UserID != userID {
			wrong = append(wrong, w)
		}
	}
	s.wrong = wrong

	delete(s.dashboards, userID)
	return nil
}

// Answers returns a copy of every recorded answer of a user (test helper).
func (s *Store) Answers(userID string) []domain.UserAnswer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.UserAnswer
	for _, a := range s.answers {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// Wrongdoing returns a copy of every wrongdoing row of a user, open or not (test helper).
func (s *Store) Wrongdoing(userID string) []domain.WrongdoingQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.WrongdoingQuestion
	for _, w := range s.wrong {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out
}

func copyDashboard(d domain.DashboardData) domain.DashboardData {
	history := make([]domain.PointsEntry, len(d.PointsHistory))
	copy(history, d.PointsHistory)
	d.PointsHistory = history
	return d
}
