// Package schema holds the bun row models shared by the SQL store and its migrations.
package schema

import (
	"time"

	"english-mcq-service/internal/domain"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk"`
	Email     string    `bun:"email,notnull,unique"`
	Name      string    `bun:"name,notnull"`
	Avatar    string    `bun:"avatar,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (u User) Domain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
}

type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            string    `bun:"id,pk"`
	Text          string    `bun:"question_text,notnull"`
	Options       []string  `bun:"options,notnull"`
	CorrectAnswer string    `bun:"correct_answer,notnull"`
	Topic         string    `bun:"topic,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func QuestionFrom(q domain.Question) Question {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return Question{
		ID:            q.ID,
		Text:          q.Text,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		Topic:         q.Topic,
		CreatedAt:     q.CreatedAt.UTC(),
	}
}

func (q Question) Domain() domain.Question {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return domain.Question{
		ID:            q.ID,
		Text:          q.Text,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		Topic:         q.Topic,
		CreatedAt:     q.CreatedAt.UTC(),
	}
}

type Answer struct {
	bun.BaseModel `bun:"table:user_answers,alias:a"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	QuestionID     string    `bun:"question_id,notnull"`
	SelectedAnswer string    `bun:"selected_answer,notnull"`
	IsCorrect      bool      `bun:"is_correct,notnull"`
	AnsweredAt     time.Time `bun:"answered_at,notnull"`
}

func (a Answer) Domain() domain.UserAnswer {
	return domain.UserAnswer{
		ID:             a.ID,
		UserID:         a.UserID,
		QuestionID:     a.QuestionID,
		SelectedAnswer: a.SelectedAnswer,
		IsCorrect:      a.IsCorrect,
		Timestamp:      a.AnsweredAt.UTC(),
	}
}

type Wrongdoing struct {
	bun.BaseModel `bun:"table:user_wrongdoing_questions,alias:w"`

	ID                string    `bun:"id,pk"`
	UserID            string    `bun:"user_id,notnull"`
	QuestionID        string    `bun:"question_id,notnull"`
	RetestedCorrectly bool      `bun:"retested_correctly,notnull"`
	LastAttempted     time.Time `bun:"last_attempted,notnull"`
}

func (w Wrongdoing) Domain() domain.WrongdoingQuestion {
	return domain.WrongdoingQuestion{
		ID:                w.ID,
		UserID:            w.UserID,
		QuestionID:        w.QuestionID,
		RetestedCorrectly: w.RetestedCorrectly,
		LastAttempted:     w.LastAttempted.UTC(),
	}
}

// Dashboard stores PointsHistory as a JSON column.
type Dashboard struct {
	bun.BaseModel `bun:"table:user_dashboard_data,alias:d"`

	ID                    string               `bun:"id,pk"`
	UserID                string               `bun:"user_id,notnull,unique"`
	TotalPoints           int                  `bun:"total_points,notnull"`
	PreviousSessionPoints int                  `bun:"previous_session_points,notnull"`
	PointsHistory         []domain.PointsEntry `bun:"points_history,notnull"`
}

func (d Dashboard) Domain() domain.DashboardData {
	history := d.PointsHistory
	if history == nil {
		history = []domain.PointsEntry{}
	}
	return domain.DashboardData{
		UserID:                d.UserID,
		TotalPoints:           d.TotalPoints,
		PreviousSessionPoints: d.PreviousSessionPoints,
		PointsHistory:         history,
	}
}
