package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-session-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question sets from a backing store (DB, remote API).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, tier domain.Tier) ([]domain.Question, error)
}

// QuestionCache caches question sets per tier with TTL to avoid repeated
// loader hits.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[domain.Tier]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Tier]cachedSet),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, tier domain.Tier) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[tier]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(string(tier), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[tier]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadQuestions(ctx, tier)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[tier] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by an in-memory map
// (useful for tests/demos).
type StaticQuestionLoader struct {
	sets map[domain.Tier][]domain.Question
}

func NewStaticQuestionLoader(sets map[domain.Tier][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{sets: sets}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, tier domain.Tier) ([]domain.Question, error) {
	if questions, ok := l.sets[tier]; ok {
		return questions, nil
	}
	return nil, domain.ErrQuestionSetNotFound
}
