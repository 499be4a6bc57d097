package statestore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps session state in process memory. The default for
// single-instance deployments; state does not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, state []byte) error {
	copied := make([]byte, len(state))
	copy(copied, state)

	s.mu.Lock()
	s.states[sessionID] = copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	state, ok := s.states[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(state))
	copy(copied, state)
	return copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
