package store

import (
	"context"
	"sync"

	"provena/internal/record"
	"provena/pkg/domain"
	"provena/pkg/platform/sentinel"
)

// InMemory keeps version chains in process memory. It backs unit tests and
// local development; semantics mirror the PostgreSQL store, including the
// compare-and-swap retire.
type InMemory struct {
	mu     sync.RWMutex
	chains map[domain.EntityID][]*record.Version
}

func NewInMemory() *InMemory {
	return &InMemory{chains: make(map[domain.EntityID][]*record.Version)}
}

func (s *InMemory) GetCurrent(_ context.Context, entityID domain.EntityID) (*record.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain, ok := s.chains[entityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	var current *record.Version
	for _, v := range chain {
		if !v.IsCurrent() {
			continue
		}
		if current != nil {
			return nil, sentinel.ErrIntegrity
		}
		current = v
	}
	if current == nil {
		return nil, sentinel.ErrNotFound
	}
	return current.Clone(), nil
}

func (s *InMemory) GetVersion(_ context.Context, entityID domain.EntityID, version int64) (*record.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.chains[entityID] {
		if v.Version == version {
			return v.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListVersions(_ context.Context, entityID domain.EntityID) ([]*record.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain, ok := s.chains[entityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	out := make([]*record.Version, len(chain))
	for i, v := range chain {
		out[i] = v.Clone()
	}
	return out, nil
}

func (s *InMemory) InsertFirst(_ context.Context, version *record.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chains[version.EntityID]; exists {
		return sentinel.ErrConflict
	}
	s.chains[version.EntityID] = []*record.Version{version.Clone()}
	return nil
}

func (s *InMemory) CommitSuccessor(_ context.Context, current, next *record.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.chains[current.EntityID]
	if !ok {
		return sentinel.ErrNotFound
	}

	// Conditional retire: the stored version we are superseding must still be
	// tagged current, otherwise another commit won the race.
	for _, stored := range chain {
		if stored.Version != current.Version {
			continue
		}
		if !stored.IsCurrent() {
			return sentinel.ErrStaleVersion
		}
		stored.Tag = record.TagHistorical
		s.chains[current.EntityID] = append(chain, next.Clone())
		return nil
	}
	return sentinel.ErrStaleVersion
}
