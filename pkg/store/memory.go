package store

import (
	"context"
	"sync"

	"github.com/crossapp/crossapp-go/pkg/api"
)

// MemoryStore implements Store with an in-process map. Suitable for tests
// and for apps that do not want sessions to survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*api.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*api.Session),
	}
}

// Load returns the persisted session for the app ID.
func (m *MemoryStore) Load(ctx context.Context, appID string) (*api.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[appID]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// Save persists a copy of the session under its app ID.
func (m *MemoryStore) Save(ctx context.Context, session *api.Session) error {
	if session == nil || session.AppID == "" {
		return ErrInvalidSession
	}

	sessionCopy := *session

	m.mu.Lock()
	m.sessions[session.AppID] = &sessionCopy
	m.mu.Unlock()
	return nil
}

// Delete removes the session for the app ID.
func (m *MemoryStore) Delete(ctx context.Context, appID string) error {
	m.mu.Lock()
	delete(m.sessions, appID)
	m.mu.Unlock()
	return nil
}
