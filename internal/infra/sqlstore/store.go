// Package sqlstore persists learning data through bun on postgres or sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"english-mcq-service/internal/domain"
	"english-mcq-service/internal/infra/sqlstore/schema"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store implements app.Store. Multi-row writes run inside a single transaction.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) EnsureUser(ctx context.Context, identity domain.Identity) (domain.User, error) {
	user, err := s.UserByEmail(ctx, identity.Email)
	if err == nil || !errors.Is(err, domain.ErrUserNotFound) {
		return user, err
	}

	row := schema.User{
		ID:        uuid.NewString(),
		Email:     identity.Email,
		Name:      identity.Name,
		Avatar:    identity.Avatar,
		CreatedAt: s.now().UTC(),
	}
	// a concurrent first login may win the insert; the re-read returns its row
	if _, err := s.db.NewInsert().Model(&row).On("CONFLICT (email) DO NOTHING").Exec(ctx); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.UserByEmail(ctx, identity.Email)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row schema.User
	err := s.db.NewSelect().Model(&row).Where("email = ?", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.Domain(), nil
}

func (s *Store) UpdateAvatar(ctx context.Context, userID, avatarURL string) (domain.User, error) {
	res, err := s.db.NewUpdate().
		Model((*schema.User)(nil)).
		Set("avatar = ?", avatarURL).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("update avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}

	var row schema.User
	if err := s.db.NewSelect().Model(&row).Where("id = ?", userID).Scan(ctx); err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.Domain(), nil
}

// SaveQuestions inserts questions, leaving already stored ids untouched.
func (s *Store) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]schema.Question, 0, len(questions))
	for _, q := range questions {
		if q.CreatedAt.IsZero() {
			q.CreatedAt = s.now()
		}
		rows = append(rows, schema.QuestionFrom(q))
	}
	if _, err := s.db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func (s *Store) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var row schema.Question
	err := s.db.NewSelect().Model(&row).Where("id = ?", questionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("select question: %w", err)
	}
	return row.Domain(), nil
}

func (s *Store) RecordAttempt(ctx context.Context, attempt domain.Attempt) (domain.AttemptOutcome, error) {
	at := attempt.At.UTC()
	var outcome domain.AttemptOutcome

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := requireUser(ctx, tx, attempt.UserID); err != nil {
			return err
		}
		if err := requireQuestions(ctx, tx, attempt.Answers); err != nil {
			return err
		}

		if len(attempt.Answers) > 0 {
			answers := make([]schema.Answer, 0, len(attempt.Answers))
			for _, ans := range attempt.Answers {
				answers = append(answers, schema.Answer{
					ID:             uuid.NewString(),
					UserID:         attempt.UserID,
					QuestionID:     ans.QuestionID,
					SelectedAnswer: ans.SelectedAnswer,
					IsCorrect:      ans.IsCorrect,
					AnsweredAt:     at,
				})
			}
			if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}

		for _, ans := range attempt.Answers {
			switch {
			case !ans.IsCorrect:
				if err := touchOrOpen(ctx, tx, attempt.UserID, ans.QuestionID, at); err != nil {
					return err
				}
			case attempt.Kind == domain.AttemptRetest:
				n, err := resolve(ctx, tx, attempt.UserID, ans.QuestionID, at)
				if err != nil {
					return err
				}
				outcome.Resolved += n
			}
		}

		if attempt.Kind == domain.AttemptPractice {
			if err := addPoints(ctx, tx, attempt); err != nil {
				return err
			}
		}

		dash, err := dashboardRow(ctx, tx, attempt.UserID)
		if err != nil {
			return err
		}
		outcome.Dashboard = dash
		return nil
	})
	if err != nil {
		return domain.AttemptOutcome{}, err
	}
	return outcome, nil
}

func requireUser(ctx context.Context, tx bun.Tx, userID string) error {
	exists, err := tx.NewSelect().Model((*schema.User)(nil)).Where("id = ?", userID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}

func requireQuestions(ctx context.Context, tx bun.Tx, answers []domain.GradedAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	ids := make([]string, 0, len(answers))
	seen := make(map[string]struct{}, len(answers))
	for _, ans := range answers {
		if _, ok := seen[ans.QuestionID]; ok {
			continue
		}
		seen[ans.QuestionID] = struct{}{}
		ids = append(ids, ans.QuestionID)
	}
	n, err := tx.NewSelect().Model((*schema.Question)(nil)).Where("id IN (?)", bun.In(ids)).Count(ctx)
	if err != nil {
		return fmt.Errorf("check questions: %w", err)
	}
	if n != len(ids) {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// touchOrOpen keeps at most one open row per (user, question).
func touchOrOpen(ctx context.Context, tx bun.Tx, userID, questionID string, at time.Time) error {
	res, err := tx.NewUpdate().
		Model((*schema.Wrongdoing)(nil)).
		Set("last_attempted = ?", at).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Where("retested_correctly = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("touch wrongdoing: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	row := schema.Wrongdoing{
		ID:            uuid.NewString(),
		UserID:        userID,
		QuestionID:    questionID,
		LastAttempted: at,
	}
	if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert wrongdoing: %w", err)
	}
	return nil
}

func resolve(ctx context.Context, tx bun.Tx, userID, questionID string, at time.Time) (int, error) {
	res, err := tx.NewUpdate().
		Model((*schema.Wrongdoing)(nil)).
		Set("retested_correctly = ?", true).
		Set("last_attempted = ?", at).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Where("retested_correctly = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve wrongdoing: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// addPoints bumps the counters first so postgres holds the row lock while the
// history column is rewritten.
func addPoints(ctx context.Context, tx bun.Tx, attempt domain.Attempt) error {
	points := attempt.Points()

	seed := schema.Dashboard{
		ID:            uuid.NewString(),
		UserID:        attempt.UserID,
		PointsHistory: []domain.PointsEntry{},
	}
	if _, err := tx.NewInsert().Model(&seed).On("CONFLICT (user_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("ensure dashboard: %w", err)
	}

	_, err := tx.NewUpdate().
		Model((*schema.Dashboard)(nil)).
		Set("total_points = total_points + ?", points).
		Set("previous_session_points = ?", points).
		Where("user_id = ?", attempt.UserID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update points: %w", err)
	}

	var row schema.Dashboard
	if err := tx.NewSelect().Model(&row).Where("user_id = ?", attempt.UserID).Scan(ctx); err != nil {
		return fmt.Errorf("select dashboard: %w", err)
	}
	row.PointsHistory = domain.AppendHistory(row.PointsHistory, attempt.HistoryEntry(), attempt.HistoryLimit)
	if _, err := tx.NewUpdate().Model(&row).Column("points_history").WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update history: %w", err)
	}
	return nil
}

func dashboardRow(ctx context.Context, db bun.IDB, userID string) (domain.DashboardData, error) {
	var row schema.Dashboard
	err := db.NewSelect().Model(&row).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DashboardData{UserID: userID, PointsHistory: []domain.PointsEntry{}}, nil
	}
	if err != nil {
		return domain.DashboardData{}, fmt.Errorf("select dashboard: %w", err)
	}
	return row.Domain(), nil
}

func (s *Store) WrongQuestions(ctx context.Context, query domain.WrongQuestionQuery) ([]domain.WrongQuestion, error) {
	var all []schema.Wrongdoing
	err := s.db.NewSelect().
		Model(&all).
		Where("user_id = ?", query.UserID).
		Where("retested_correctly = ?", false).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select wrongdoing: %w", err)
	}
	candidates := make([]domain.WrongdoingQuestion, 0, len(all))
	for _, w := range all {
		candidates = append(candidates, w.Domain())
	}
	// duplicates can exist when two first misses race
	rows := domain.OpenPerQuestion(candidates, query.NewestFirst, query.Limit)
	out := make([]domain.WrongQuestion, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(rows))
	for _, w := range rows {
		ids = append(ids, w.QuestionID)
	}

	var questions []schema.Question
	if err := s.db.NewSelect().Model(&questions).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q.Domain()
	}

	var answers []schema.Answer
	err = s.db.NewSelect().
		Model(&answers).
		Column("question_id", "selected_answer", "answered_at").
		Where("user_id = ?", query.UserID).
		Where("question_id IN (?)", bun.In(ids)).
		OrderExpr("answered_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	last := make(map[string]string, len(ids))
	for _, a := range answers {
		if _, ok := last[a.QuestionID]; !ok {
			last[a.QuestionID] = a.SelectedAnswer
		}
	}

	for _, w := range rows {
		q, ok := byID[w.QuestionID]
		if !ok {
			continue
		}
		out = append(out, domain.WrongQuestion{
			ID:             w.ID,
			Question:       q,
			LastUserAnswer: last[w.QuestionID],
			LastAttempted:  w.LastAttempted.UTC(),
		})
	}
	return out, nil
}

// DashboardData reads zeros for users that never scored; nothing is written.
func (s *Store) DashboardData(ctx context.Context, userID string) (domain.DashboardData, error) {
	return dashboardRow(ctx, s.db, userID)
}

func (s *Store) ResetDashboard(ctx context.Context, userID string) error {
	_, err := s.db.NewUpdate().
		Model((*schema.Dashboard)(nil)).
		Set("total_points = ?", 0).
		Set("previous_session_points = ?", 0).
		Set("points_history = ?", "[]").
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("reset dashboard: %w", err)
	}
	return nil
}

// EraseUserData removes every learning row of a user while keeping the user
// and the shared questions.
func (s *Store) EraseUserData(ctx context.Context, userID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range []struct {
			name  string
			model interface{}
		}{
			{"answers", (*schema.Answer)(nil)},
			{"wrongdoing", (*schema.Wrongdoing)(nil)},
			{"dashboard", (*schema.Dashboard)(nil)},
		} {
			if _, err := tx.NewDelete().Model(t.model).Where("user_id = ?", userID).Exec(ctx); err != nil {
				return fmt.Errorf("erase %s: %w", t.name, err)
			}
		}
		return nil
	})
}

// Answers lists every recorded answer of a user, oldest first.
func (s *Store) Answers(ctx context.Context, userID string) ([]domain.UserAnswer, error) {
	var rows []schema.Answer
	err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).OrderExpr("answered_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	out := make([]domain.UserAnswer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Domain())
	}
	return out, nil
}

// Wrongdoing lists every wrongdoing row of a user, open or resolved.
func (s *Store) Wrongdoing(ctx context.Context, userID string) ([]domain.WrongdoingQuestion, error) {
	var rows []schema.Wrongdoing
	err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).OrderExpr("last_attempted ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select wrongdoing: %w", err)
	}
	out := make([]domain.WrongdoingQuestion, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Domain())
	}
	return out, nil
}
