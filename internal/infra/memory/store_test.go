package memory

import (
	"context"
	"testing"
	"time"

	"english-mcq-service/internal/domain"
)

func TestStoreEnsureUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.EnsureUser(ctx, domain.Identity{Email: "a@x.com", Name: "Alice"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := store.EnsureUser(ctx, domain.Identity{Email: "a@x.com", Name: "Renamed"})
	if err != nil {
		t.Fatalf("ensure 2: %v", err)
	}
	if first.ID != second.ID || second.Name != "Alice" {
		t.Fatalf("expected the same user untouched, got %+v then %+v", first, second)
	}
}

func TestStoreRecordAttemptOpensOneWrongRowPerQuestion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user, _ := store.EnsureUser(ctx, domain.Identity{Email: "a@x.com"})
	_ = store.SaveQuestions(ctx, []domain.Question{sampleQuestion()})

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wrong := domain.GradedAnswer{QuestionID: "q1", SelectedAnswer: "gone"}
	for i := 0; i < 2; i++ {
		_, err := store.RecordAttempt(ctx, domain.Attempt{
			UserID:  user.ID,
			Kind:    domain.AttemptPractice,
			Answers: []domain.GradedAnswer{wrong},
			At:      at.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	rows := store.Wrongdoing(user.ID)
	if len(rows) != 1 {
		t.Fatalf("expected one open row, got %d", len(rows))
	}
	if !rows[0].LastAttempted.Equal(at.Add(time.Hour)) {
		t.Fatalf("expected lastAttempted touched, got %v", rows[0].LastAttempted)
	}
	if len(store.Answers(user.ID)) != 2 {
		t.Fatalf("expected every answer recorded")
	}
}

func TestStoreRecordAttemptRejectsUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user, _ := store.EnsureUser(ctx, domain.Identity{Email: "a@x.com"})

	_, err := store.RecordAttempt(ctx, domain.Attempt{
		UserID:  user.ID,
		Answers: []domain.GradedAnswer{{QuestionID: "nope"}},
		At:      time.Now(),
	})
	if err != domain.ErrQuestionNotFound {
		t.Fatalf("expected question not found, got %v", err)
	}
	if len(store.Answers(user.ID)) != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestStoreEraseUserDataKeepsOtherUsers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice, _ := store.EnsureUser(ctx, domain.Identity{Email: "a@x.com"})
	bob, _ := store.EnsureUser(ctx, domain.Identity{Email: "b@x.com"})
	_ = store.SaveQuestions(ctx, []domain.Question{sampleQuestion()})

	for _, id := range []string{alice.ID, bob.ID} {
		_, err := store.RecordAttempt(ctx, domain.Attempt{
			UserID:  id,
			Answers: []domain.GradedAnswer{{QuestionID: "q1", SelectedAnswer: "gone"}},
			At:      time.Now(),
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	if err := store.EraseUserData(ctx, alice.ID); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if len(store.Answers(alice.ID)) != 0 || len(store.Wrongdoing(alice.ID)) != 0 {
		t.Fatalf("expected alice's data removed")
	}
	if len(store.Answers(bob.ID)) != 1 || len(store.Wrongdoing(bob.ID)) != 1 {
		t.Fatalf("expected bob's data kept")
	}
	if _, err := store.UserByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("expected user row kept, got %v", err)
	}
}

func TestStaticGeneratorFallsBackAndCaps(t *testing.T) {
	gen := NewStaticGenerator(DefaultBank())

	qs, err := gen.Generate(context.Background(), "Klingon idioms", 100)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(qs) != len(DefaultBank()[FallbackTopic]) {
		t.Fatalf("expected the whole fallback topic, got %d", len(qs))
	}
	for _, q := range qs {
		if q.Topic != FallbackTopic {
			t.Fatalf("expected fallback topic, got %q", q.Topic)
		}
		if q.ID == "" || q.ID == "dst_q1" {
			t.Fatalf("expected fresh id, got %q", q.ID)
		}
	}
}
