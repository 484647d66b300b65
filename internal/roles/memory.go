package roles

import (
	"context"
	"sync"

	"provena/pkg/domain"
)

// MemoryDirectory keeps role assignments in process memory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	roles map[domain.ActorID]map[domain.Role]bool
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{roles: make(map[domain.ActorID]map[domain.Role]bool)}
}

func (d *MemoryDirectory) RolesOf(_ context.Context, userID domain.ActorID) ([]domain.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.Role
	for role := range d.roles[userID] {
		out = append(out, role)
	}
	return out, nil
}

func (d *MemoryDirectory) HoldersOf(_ context.Context, role domain.Role) ([]domain.ActorID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.ActorID
	for userID, held := range d.roles {
		if held[role] {
			out = append(out, userID)
		}
	}
	return out, nil
}

func (d *MemoryDirectory) Grant(_ context.Context, userID domain.ActorID, role domain.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.roles[userID] == nil {
		d.roles[userID] = make(map[domain.Role]bool)
	}
	d.roles[userID][role] = true
	return nil
}

func (d *MemoryDirectory) Revoke(_ context.Context, userID domain.ActorID, role domain.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.roles[userID], role)
	return nil
}
