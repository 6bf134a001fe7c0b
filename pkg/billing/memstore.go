package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]Snapshot
}

// NewMemStore returns an in-memory SnapshotStore for tests and local
// development. Snapshots are stored by value, so callers never share
// state with the store.
func NewMemStore() SnapshotStore {
	return &memStore{snapshots: make(map[uuid.UUID]Snapshot)}
}

func (s *memStore) Get(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[userID]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *memStore) FindByCustomerID(ctx context.Context, customerID string) (uuid.UUID, Snapshot, error) {
	if customerID == "" {
		return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for userID, snap := range s.snapshots {
		if snap.CustomerID == customerID {
			return userID, snap, nil
		}
	}
	return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
}

func (s *memStore) Save(ctx context.Context, userID uuid.UUID, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[userID] = snapshot
	return nil
}
