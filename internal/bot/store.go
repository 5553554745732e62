package bot

import (
	"context"
	"sync"

	"mall-bot/internal/dialog"
)

// StateStore persists dialog state between turns and serializes turns of
// the same conversation.
type StateStore interface {
	Load(ctx context.Context, conversationID string) (dialog.State, error)
	Save(ctx context.Context, conversationID string, state dialog.State) error
	Delete(ctx context.Context, conversationID string) error
	Lock(ctx context.Context, conversationID string) (bool, error)
	Unlock(ctx context.Context, conversationID string) error
	Ping(ctx context.Context) error
}

// MemoryStore is a process-local StateStore for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]dialog.State
	locks  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]dialog.State),
		locks:  make(map[string]struct{}),
	}
}

func (m *MemoryStore) Load(ctx context.Context, conversationID string) (dialog.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[conversationID], nil
}

func (m *MemoryStore) Save(ctx context.Context, conversationID string, state dialog.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[conversationID] = state
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, conversationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[conversationID]; held {
		return false, nil
	}
	m.locks[conversationID] = struct{}{}
	return true, nil
}

func (m *MemoryStore) Unlock(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, conversationID)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of conversations with stored state.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
