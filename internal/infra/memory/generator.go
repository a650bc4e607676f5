package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"english-mcq-service/internal/domain"
	"github.com/google/uuid"
)

// FallbackTopic is served when a requested topic is not in the bank.
const FallbackTopic = "past simple tense"

// StaticGenerator hands out questions from a fixed bank; it stands in for the
// AI generator. Every call returns fresh question IDs.
type StaticGenerator struct {
	bank  map[string][]domain.Question
	clock func() time.Time
}

func NewStaticGenerator(bank map[string][]domain.Question) *StaticGenerator {
	return &StaticGenerator{bank: bank, clock: time.Now}
}

func (g *StaticGenerator) Generate(_ context.Context, topic string, count int) ([]domain.Question, error) {
	key := strings.ToLower(strings.TrimSpace(topic))
	source, ok := g.bank[key]
	if !ok || len(source) == 0 {
		source = g.bank[FallbackTopic]
	}
	if count > len(source) {
		count = len(source)
	}

	now := g.clock().UTC()
	out := make([]domain.Question, 0, count)
	for _, q := range source[:count] {
		q.ID = uuid.NewString()
		q.Options = append([]string(nil), q.Options...)
		q.CreatedAt = now
		out = append(out, q)
	}
	return out, nil
}

// DefaultBank is the built-in question bank, keyed by lower-case topic.
// IDs are stable so the bank can be seeded idempotently.
func DefaultBank() map[string][]domain.Question {
	mk := func(id, topic, text, correct string, options ...string) domain.Question {
		return domain.Question{ID: id, Topic: topic, Text: text, Options: options, CorrectAnswer: correct}
	}
	const (
		pastSimple = FallbackTopic
		business   = "business email phrases"
		travel     = "vocabulary for travel"
	)
	return map[string][]domain.Question{
		pastSimple: {
			mk("dst_q1", pastSimple, "What did she ___ yesterday?", "do", "do", "does", "did", "done"),
			mk("dst_q2", pastSimple, "They ___ to the cinema last night.", "went", "go", "goes", "went", "gone"),
			mk("dst_q3", pastSimple, "He didn't ___ the homework.", "finish", "finish", "finishes", "finished", "finishing"),
			mk("dst_q4", pastSimple, "What is the past simple form of 'go'?", "went", "goed", "gone", "went", "going"),
			mk("dst_q5", pastSimple, "Which sentence uses the past simple tense correctly?", "I went to the store yesterday",
				"I am going to the store yesterday", "I went to the store yesterday", "I go to the store yesterday", "I have go to the store yesterday"),
		},
		business: {
			mk("dbe_q1", business, "Which phrase is suitable for starting a formal business email to someone you don't know?", "Dear Mr. Smith,",
				"Hey John,", "Dear Mr. Smith,", "What's up?", "Yo,"),
			mk("dbe_q2", business, "What does 'FYI' stand for in a business context?", "For Your Information",
				"For Your Ideas", "Follow Your Instincts", "For Your Information", "For Your Inspection"),
		},
		travel: {
			mk("dvt_q1", travel, "What is a 'boarding pass'?", "A document allowing you to get on a plane",
				"A ticket for a bus", "A document allowing you to get on a plane", "A pass to a theme park", "A train schedule"),
			mk("dvt_q2", travel, "If your luggage is too heavy, you might have to pay for ___.", "excess baggage",
				"excess baggage", "extra seat", "overload fee", "heavy load charge"),
		},
	}
}

// BankQuestions flattens a bank into a deterministic list (topic order, then bank order).
func BankQuestions(bank map[string][]domain.Question) []domain.Question {
	topics := make([]string, 0, len(bank))
	for topic := range bank {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	var out []domain.Question
	for _, topic := range topics {
		out = append(out, bank[topic]...)
	}
	return out
}
