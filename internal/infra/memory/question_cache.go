package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"english-mcq-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionCache caches questions with TTL to avoid repeated DB hits.
// Questions are immutable once created, so entries never need invalidation.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	if q, ok := c.lookup(questionID); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		if q, ok := c.lookup(questionID); ok {
			return q, nil
		}

		q, err := c.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		c.mu.Lock()
		c.cache[questionID] = cachedQuestion{
			question:  q,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) lookup(questionID string) (domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[questionID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Question{}, false
	}
	return entry.question, true
}

// ttlWithJitter must be called with c.mu held.
func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
