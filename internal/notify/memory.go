package notify

import (
	"context"
	"sync"

	"provena/pkg/domain"
)

// MemoryDispatcher collects notifications in memory. Used by local runs when
// no delivery backend is configured.
type MemoryDispatcher struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

func (d *MemoryDispatcher) Send(_ context.Context, n Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func (d *MemoryDispatcher) Sent() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Notification{}, d.sent...)
}

// MemoryEmailer collects emails in memory.
type MemoryEmailer struct {
	mu   sync.Mutex
	sent []Email
}

func NewMemoryEmailer() *MemoryEmailer {
	return &MemoryEmailer{}
}

func (e *MemoryEmailer) Send(_ context.Context, email Email) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, email)
	return nil
}

func (e *MemoryEmailer) Sent() []Email {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Email{}, e.sent...)
}

// MemoryAccessGroups tracks group membership in memory.
type MemoryAccessGroups struct {
	mu     sync.Mutex
	groups map[string]map[domain.ActorID]bool
}

func NewMemoryAccessGroups() *MemoryAccessGroups {
	return &MemoryAccessGroups{groups: make(map[string]map[domain.ActorID]bool)}
}

func (g *MemoryAccessGroups) Elevate(_ context.Context, actorID domain.ActorID, group string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groups[group] == nil {
		g.groups[group] = make(map[domain.ActorID]bool)
	}
	g.groups[group][actorID] = true
	return nil
}

func (g *MemoryAccessGroups) Demote(_ context.Context, actorID domain.ActorID, group string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.groups[group], actorID)
	return nil
}

func (g *MemoryAccessGroups) IsMember(actorID domain.ActorID, group string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.groups[group][actorID]
}
