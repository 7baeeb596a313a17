package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
)

func TestQuestionCacheAvoidsRepeatedLoads(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[domain.Tier][]domain.Question{
			domain.TierEasy: sampleQuestions(),
		}),
	}
	cache := NewQuestionCache(loader, time.Minute)

	questions, err := cache.Fetch(context.Background(), domain.TierEasy)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 || loader.calls != 1 {
		t.Fatalf("expected one question via one load, got %d questions, %d calls", len(questions), loader.calls)
	}

	// Second fetch should hit cache, loader not incremented.
	_, _ = cache.Fetch(context.Background(), domain.TierEasy)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuestionCachePropagatesLoaderErrors(t *testing.T) {
	cache := NewQuestionCache(NewStaticQuestionLoader(nil), time.Minute)

	if _, err := cache.Fetch(context.Background(), domain.TierHard); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected ErrQuestionSetNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, tier domain.Tier) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, tier)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:           "q1",
			Tier:         domain.TierEasy,
			Prompt:       "What is 2 + 2?",
			Options:      []string{"3", "4", "5"},
			CorrectIndex: 1,
		},
	}
}
