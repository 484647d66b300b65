package investor

import (
	"context"
	"sync"

	dErrors "provena/pkg/domain-errors"
)

// MemoryCredentials keeps login credentials in process memory.
type MemoryCredentials struct {
	mu      sync.RWMutex
	byEmail map[string]Credential
}

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{byEmail: make(map[string]Credential)}
}

func (m *MemoryCredentials) Save(_ context.Context, credential Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmail[credential.Email] = credential
	return nil
}

func (m *MemoryCredentials) ByEmail(_ context.Context, email string) (Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	credential, ok := m.byEmail[email]
	if !ok {
		return Credential{}, dErrors.New(dErrors.CodeNotFound, "no credentials on file")
	}
	return credential, nil
}
