package memory

import (
	"context"
	"sync"

	"quiz-session-service/internal/domain"
)

// ProfileStore is an in-memory implementation of app.ProfileStore.
// Unknown users read as zeroed stats rather than an error.
type ProfileStore struct {
	mu    sync.RWMutex
	stats map[string]domain.ProfileStats
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{stats: make(map[string]domain.ProfileStats)}
}

func (s *ProfileStore) ReadStats(_ context.Context, userID string) (domain.ProfileStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[userID], nil
}

func (s *ProfileStore) ApplyIncrement(_ context.Context, userID string, inc domain.StatsIncrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats[userID]
	stats.TotalGames += inc.GamesDelta
	stats.TotalScore += inc.ScoreDelta
	stats.AverageScore = inc.NewAverage
	s.stats[userID] = stats
	return nil
}
