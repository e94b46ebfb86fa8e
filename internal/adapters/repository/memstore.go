package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/framecount/internal/domain/model"
)

// MemoryStore is an ordered, mutex-guarded Store.
//
// Writers rebuild an immutable snapshot of the ordered collection after each
// change; List and Names read that snapshot without taking the lock.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	byID     map[string]model.Shot
	capacity int

	snapshot atomic.Pointer[[]model.Shot]
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: 64}
	for _, opt := range opts {
		opt(s)
	}
	s.order = make([]string, 0, s.capacity)
	s.byID = make(map[string]model.Shot, s.capacity)
	s.publishSnapshotLocked()
	return s
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, shot model.Shot) error {
	if shot.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[shot.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, shot.ID)
	}
	s.byID[shot.ID] = shot
	s.order = append(s.order, shot.ID)
	s.publishSnapshotLocked()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Shot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shot, ok := s.byID[id]
	if !ok {
		return model.Shot{}, ErrNotFound
	}
	return shot, nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, shot model.Shot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[shot.ID]; !ok {
		return ErrNotFound
	}
	s.byID[shot.ID] = shot
	s.publishSnapshotLocked()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.publishSnapshotLocked()
	return nil
}

// List implements Store. The returned slice is a copy.
func (s *MemoryStore) List(_ context.Context) []model.Shot {
	snap := *s.snapshot.Load()
	out := make([]model.Shot, len(snap))
	copy(out, snap)
	return out
}

// Names implements Store.
func (s *MemoryStore) Names(_ context.Context) []string {
	snap := *s.snapshot.Load()
	names := make([]string, len(snap))
	for i, shot := range snap {
		names[i] = shot.Name
	}
	return names
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(*s.snapshot.Load())
}

// ReplaceAll implements Store. The new collection must not repeat ids.
func (s *MemoryStore) ReplaceAll(_ context.Context, shots []model.Shot) error {
	order := make([]string, 0, len(shots))
	byID := make(map[string]model.Shot, len(shots))
	for _, shot := range shots {
		if shot.ID == "" {
			return ErrEmptyID
		}
		if _, dup := byID[shot.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, shot.ID)
		}
		byID[shot.ID] = shot
		order = append(order, shot.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.byID = byID
	s.publishSnapshotLocked()
	return nil
}

// publishSnapshotLocked rebuilds the read snapshot. Callers hold s.mu.
func (s *MemoryStore) publishSnapshotLocked() {
	snap := make([]model.Shot, len(s.order))
	for i, id := range s.order {
		snap[i] = s.byID[id]
	}
	s.snapshot.Store(&snap)
}
