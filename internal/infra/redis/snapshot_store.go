package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists a client's session snapshot as a single JSON
// value with a TTL, so an in-progress session survives reloads without
// lingering forever.
type SnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, clientID string, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		key:    "quiz:snapshot:" + clientID,
		ttl:    ttl,
	}
}

func (s *SnapshotStore) Get(ctx context.Context) (domain.Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A snapshot that no longer parses is unrecoverable; drop it so
		// the next start takes the fresh-fetch path cleanly.
		_ = s.client.Del(ctx, s.key).Err()
		return domain.Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (s *SnapshotStore) Put(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
