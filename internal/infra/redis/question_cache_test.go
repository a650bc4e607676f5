package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"english-mcq-service/internal/domain"
	"english-mcq-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := newCountingLoader(t)
	cache := NewQuestionCache(client, loader, time.Minute)

	q, err := cache.GetQuestion(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.CorrectAnswer != "went" || len(q.Options) != 4 {
		t.Fatalf("unexpected question %+v", q)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("question:q1") {
		t.Fatalf("expected question cached under question:q1")
	}
	if ttl := mr.TTL("question:q1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = cache.GetQuestion(context.Background(), "q1")
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}

	mr.FastForward(2 * time.Minute)
	_, _ = cache.GetQuestion(context.Background(), "q1")
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.count())
	}
}

func TestQuestionCacheMissingQuestion(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewQuestionCache(newClient(mr), newCountingLoader(t), time.Minute)
	if _, err := cache.GetQuestion(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if mr.Exists("question:nope") {
		t.Fatalf("misses must not be cached")
	}
}

func TestQuestionCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	cache := NewQuestionCache(client, newCountingLoader(t), time.Minute)
	q, err := cache.GetQuestion(context.Background(), "q1")
	if err != nil || q.ID != "q1" {
		t.Fatalf("expected loader fallback, got %+v %v", q, err)
	}
}

type countingLoader struct {
	*memory.Store
	mu    sync.Mutex
	calls int
}

func newCountingLoader(t *testing.T) *countingLoader {
	t.Helper()
	store := memory.NewStore()
	err := store.SaveQuestions(context.Background(), []domain.Question{{
		ID:            "q1",
		Text:          "They ___ to the cinema last night.",
		Options:       []string{"go", "goes", "went", "gone"},
		CorrectAnswer: "went",
		Topic:         "past simple tense",
	}})
	if err != nil {
		t.Fatalf("save question: %v", err)
	}
	return &countingLoader{Store: store}
}

func (l *countingLoader) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.Store.LoadQuestion(ctx, questionID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
