package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"provena/internal/kyc"
	"provena/pkg/domain"
)

// Memory is the in-process queue used by unit tests and local development.
type Memory struct {
	mu      sync.RWMutex
	entries map[domain.EntityID]kyc.QueueEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[domain.EntityID]kyc.QueueEntry)}
}

func (m *Memory) Put(_ context.Context, entityID domain.EntityID, status kyc.Status, enteredAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entityID] = kyc.QueueEntry{
		EntityID:  entityID,
		Status:    status,
		EnteredAt: enteredAt,
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, entityID domain.EntityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entityID)
	return nil
}

func (m *Memory) Snapshot(_ context.Context) (*kyc.QueueSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := &kyc.QueueSnapshot{}
	for _, entry := range m.entries {
		switch entry.Status {
		case kyc.StatusPending:
			snapshot.Pending = append(snapshot.Pending, entry)
		case kyc.StatusInProgress:
			snapshot.InProgress = append(snapshot.InProgress, entry)
		case kyc.StatusMoreInfoRequired:
			snapshot.RequiresMoreInfo = append(snapshot.RequiresMoreInfo, entry)
		}
	}
	for _, section := range [][]kyc.QueueEntry{snapshot.Pending, snapshot.InProgress, snapshot.RequiresMoreInfo} {
		sort.Slice(section, func(i, j int) bool {
			return section[i].EnteredAt.Before(section[j].EnteredAt)
		})
	}
	snapshot.TotalCount = len(snapshot.Pending) + len(snapshot.InProgress) + len(snapshot.RequiresMoreInfo)
	return snapshot, nil
}
