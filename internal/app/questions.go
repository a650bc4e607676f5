package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"english-mcq-service/internal/domain"
)

// MaxGenerateCount bounds a single generation request.
const MaxGenerateCount = 50

// GenerateQuestions asks the generator for new questions, persists them and
// returns them without their answers.
func (s *Service) GenerateQuestions(ctx context.Context, topic string, count int) (domain.GeneratedSet, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.GeneratedSet{}, domain.InvalidInput("topic is required")
	}
	if count < 1 || count > MaxGenerateCount {
		return domain.GeneratedSet{}, domain.InvalidInput("num_questions must be between 1 and %d", MaxGenerateCount)
	}
	if s.generator == nil {
		return domain.GeneratedSet{}, errors.New("question generation is not configured")
	}

	questions, err := s.generator.Generate(ctx, topic, count)
	if err != nil {
		return domain.GeneratedSet{}, fmt.Errorf("generate questions: %w", err)
	}
	if len(questions) > 0 {
		if err := s.store.SaveQuestions(ctx, questions); err != nil {
			return domain.GeneratedSet{}, fmt.Errorf("save questions: %w", err)
		}
	}

	resolved := topic
	if len(questions) > 0 && questions[0].Topic != "" {
		resolved = questions[0].Topic
	}
	set := domain.GeneratedSet{
		Questions: make([]domain.GeneratedQuestion, 0, len(questions)),
		TopicID:   TopicID(resolved),
	}
	for _, q := range questions {
		set.Questions = append(set.Questions, domain.GeneratedQuestion{
			ID:           q.ID,
			QuestionText: q.Text,
			Options:      nonNil(q.Options),
		})
	}
	s.log.Info("questions generated", "topic", resolved, "count", len(questions))
	return set, nil
}

// TopicID derives the client-facing topic key.
func TopicID(topic string) string {
	return "topic_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "_")
}
