package memory

import (
	"context"
	"sync"

	"quiz-session-service/internal/domain"
)

// SnapshotStore is an in-memory single-slot implementation of
// app.SnapshotStore. It keeps at most one session snapshot.
type SnapshotStore struct {
	mu   sync.Mutex
	snap *domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Get(_ context.Context) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return domain.Snapshot{}, false, nil
	}
	return *s.snap, true, nil
}

func (s *SnapshotStore) Put(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snap
	return nil
}

func (s *SnapshotStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}

// SnapshotStores hands out a persistent per-client slot, so a client that
// reconnects gets its previous snapshot back.
type SnapshotStores struct {
	mu    sync.Mutex
	slots map[string]*SnapshotStore
}

func NewSnapshotStores() *SnapshotStores {
	return &SnapshotStores{slots: make(map[string]*SnapshotStore)}
}

func (s *SnapshotStores) ForClient(clientID string) *SnapshotStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[clientID]; ok {
		return slot
	}
	slot := NewSnapshotStore()
	s.slots[clientID] = slot
	return slot
}
