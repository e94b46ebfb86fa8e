// Package dedupe enforces shot-name uniqueness across an estimate.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/naming"
)

// Deduper records seen shot names.
type Deduper interface {
	// SeenAndRecord atomically checks if name was seen and records it if not.
	// Returns true if name was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, name string) bool

	// Unrecord forgets a name, e.g. after the shot carrying it is removed.
	Unrecord(ctx context.Context, name string)

	Size() int64
}

// NameSet is an in-memory Deduper keyed by normalized name.
type NameSet struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	size      atomic.Int64
	normalize func(string) string
}

// NewNameSet creates a set pre-seeded with existing names.
func NewNameSet(existing []string, opts ...Option) *NameSet {
	s := &NameSet{
		seen:      make(map[string]struct{}, len(existing)),
		normalize: naming.Normalize,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range existing {
		key := s.normalize(name)
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.size.Add(1)
	}
	return s
}

// SeenAndRecord implements Deduper. Names are compared after normalization,
// so the comparison is effectively case-insensitive.
func (s *NameSet) SeenAndRecord(_ context.Context, name string) bool {
	key := s.normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return true
	}
	s.seen[key] = struct{}{}
	s.size.Add(1)
	return false
}

// Contains reports whether name is already recorded without recording it.
func (s *NameSet) Contains(name string) bool {
	key := s.normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

// Unrecord implements Deduper.
func (s *NameSet) Unrecord(_ context.Context, name string) {
	key := s.normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		delete(s.seen, key)
		s.size.Add(-1)
	}
}

// Size returns the number of recorded names.
func (s *NameSet) Size() int64 {
	return s.size.Load()
}

// Result is the outcome of Partition.
type Result struct {
	// Accepted holds the surviving candidates with normalized names, in input order.
	Accepted []model.Candidate
	// Duplicates counts candidates whose name was already taken, either by the
	// existing collection or by an earlier candidate of the same batch.
	Duplicates int
	// Skipped counts candidates without a usable name or with no frames.
	Skipped int
}

// Partition splits a batch into accepted candidates and rejects. Each
// candidate name is normalized and checked against the existing names and
// against every name accepted earlier in the same batch.
func Partition(ctx context.Context, existing []string, candidates []model.Candidate) Result {
	set := NewNameSet(existing)
	res := Result{Accepted: make([]model.Candidate, 0, len(candidates))}

	for _, c := range candidates {
		name := naming.Normalize(c.Name)
		if name == "" || c.Frames <= 0 {
			res.Skipped++
			continue
		}
		if set.SeenAndRecord(ctx, name) {
			res.Duplicates++
			continue
		}
		res.Accepted = append(res.Accepted, model.Candidate{Name: name, Frames: c.Frames})
	}
	return res
}
