package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"english-mcq-service/internal/domain"
)

// SubmitAnswer grades a single practice answer and updates the user's points.
func (s *Service) SubmitAnswer(ctx context.Context, userID string, submission domain.Submission) (domain.AnswerResult, error) {
	graded, outcome, err := s.score(ctx, userID, domain.AttemptPractice, "", []domain.Submission{submission})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{
		IsCorrect:         graded[0].IsCorrect,
		CorrectAnswerText: graded[0].CorrectAnswer,
		CurrentPoints:     outcome.Dashboard.TotalPoints,
	}, nil
}

// SubmitQuiz grades a whole quiz (questionID -> answer) as one practice attempt.
// An empty topicID is derived from the questions.
func (s *Service) SubmitQuiz(ctx context.Context, userID, topicID string, answers map[string]string) (domain.QuizResult, error) {
	graded, outcome, err := s.score(ctx, userID, domain.AttemptPractice, strings.TrimSpace(topicID), submissionsFromMap(answers))
	if err != nil {
		return domain.QuizResult{}, err
	}
	result := domain.QuizResult{TotalPoints: outcome.Dashboard.TotalPoints}
	for _, g := range graded {
		result.SessionPoints += g.Awarded
		if g.IsCorrect {
			result.CorrectCount++
		}
	}
	return result, nil
}

// score is the single grading routine behind every submission path. Nothing is
// written unless every question in the batch exists.
func (s *Service) score(ctx context.Context, userID string, kind domain.AttemptKind, topicID string, submissions []domain.Submission) ([]domain.GradedAnswer, domain.AttemptOutcome, error) {
	graded, err := s.grade(ctx, kind, submissions)
	if err != nil {
		return nil, domain.AttemptOutcome{}, err
	}
	if topicID == "" {
		topicID = sharedTopicID(graded)
	}

	attempt := domain.Attempt{
		UserID:       userID,
		Kind:         kind,
		Answers:      graded,
		TopicID:      topicID,
		At:           s.clock(),
		HistoryLimit: s.settings.HistoryLimit,
	}
	outcome, err := s.store.RecordAttempt(ctx, attempt)
	if err != nil {
		return nil, domain.AttemptOutcome{}, fmt.Errorf("record attempt: %w", err)
	}

	if kind == domain.AttemptPractice {
		s.publish(ctx, outcome.Dashboard)
	}
	s.log.Debug("attempt recorded", "user_id", userID, "answers", len(graded), "points", attempt.Points(), "resolved", outcome.Resolved)
	return graded, outcome, nil
}

func (s *Service) grade(ctx context.Context, kind domain.AttemptKind, submissions []domain.Submission) ([]domain.GradedAnswer, error) {
	if len(submissions) == 0 {
		return nil, domain.InvalidInput("no answers submitted")
	}
	graded := make([]domain.GradedAnswer, 0, len(submissions))
	for _, sub := range submissions {
		if strings.TrimSpace(sub.QuestionID) == "" {
			return nil, domain.InvalidInput("question id is required")
		}
		question, err := s.questions.GetQuestion(ctx, sub.QuestionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, sub.QuestionID)
			}
			return nil, fmt.Errorf("load question %s: %w", sub.QuestionID, err)
		}
		graded = append(graded, gradeAnswer(question, sub, s.award(kind)))
	}
	return graded, nil
}

func (s *Service) award(kind domain.AttemptKind) int {
	if kind == domain.AttemptRetest {
		return 0
	}
	return s.settings.PointsPerCorrect
}

// gradeAnswer compares by exact, case-sensitive string equality.
func gradeAnswer(question domain.Question, sub domain.Submission, award int) domain.GradedAnswer {
	correct := sub.SelectedAnswer == question.CorrectAnswer
	g := domain.GradedAnswer{
		QuestionID:     question.ID,
		SelectedAnswer: sub.SelectedAnswer,
		CorrectAnswer:  question.CorrectAnswer,
		Topic:          question.Topic,
		IsCorrect:      correct,
	}
	if correct {
		g.Awarded = award
	}
	return g
}

// sharedTopicID is the topic key when every answer belongs to one topic.
func sharedTopicID(graded []domain.GradedAnswer) string {
	topic := graded[0].Topic
	for _, g := range graded[1:] {
		if g.Topic != topic {
			return domain.UnknownTopicID
		}
	}
	if strings.TrimSpace(topic) == "" {
		return domain.UnknownTopicID
	}
	return TopicID(topic)
}

// submissionsFromMap orders by question id so the write order is deterministic.
func submissionsFromMap(answers map[string]string) []domain.Submission {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.Submission, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Submission{QuestionID: id, SelectedAnswer: answers[id]})
	}
	return out
}
