package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"english-mcq-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from the backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionCache caches questions in Redis and falls back to a loader on a miss.
// Questions are stored as JSON: SET question:{questionID} {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	if q, ok := c.cached(ctx, questionID); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.cached(ctx, questionID); ok {
			return q, nil
		}

		q, err := c.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		// a failed write only costs a reload next time
		if payload, err := json.Marshal(q); err == nil {
			_ = c.client.Set(ctx, c.key(questionID), payload, c.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// cached treats redis errors as misses so the loader stays authoritative.
func (c *QuestionCache) cached(ctx context.Context, questionID string) (domain.Question, bool) {
	raw, err := c.client.Get(ctx, c.key(questionID)).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil || q.ID == "" {
		return domain.Question{}, false
	}
	return q, true
}

func (c *QuestionCache) key(questionID string) string {
	return "question:" + questionID
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
