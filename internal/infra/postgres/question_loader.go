package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"english-mcq-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads question content straight from Postgres for the cache layer.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	q := domain.Question{ID: questionID}
	var rawOptions []byte
	err := l.pool.QueryRow(ctx,
		`SELECT question_text, options, correct_answer, topic, created_at FROM questions WHERE id=$1`,
		questionID,
	).Scan(&q.Text, &rawOptions, &q.CorrectAnswer, &q.Topic, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	if q.Options == nil {
		q.Options = []string{}
	}
	q.CreatedAt = q.CreatedAt.UTC()
	return q, nil
}
