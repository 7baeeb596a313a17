package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quiz-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question sets from a backing store (DB, remote API).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, tier domain.Tier) ([]domain.Question, error)
}

// QuestionCache caches the question set for a tier in Redis as a JSON
// value and falls back to the loader on cache miss:
// SET quiz:questions:{tier} {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, tier domain.Tier) ([]domain.Question, error) {
	key := c.key(tier)

	if questions, ok := c.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(string(tier), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadQuestions(ctx, tier)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) key(tier domain.Tier) string {
	return "quiz:questions:" + string(tier)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
