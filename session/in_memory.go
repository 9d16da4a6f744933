package session

import (
	"sync"

	"github.com/faisca-ai/faisca/core"
)

// InMemoryStore is a volatile Store keeping histories in a process-local
// map. It is safe for concurrent access and best suited for tests or
// ephemeral demo deployments. Returned slices are copies, so callers cannot
// mutate internal state.
type InMemoryStore struct {
	mu        sync.RWMutex
	histories map[string][]core.Turn
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{histories: make(map[string][]core.Turn)}
}

// History implements Store.
func (s *InMemoryStore) History(conversationID string, limit int) ([]core.Turn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[conversationID]
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]core.Turn, len(history))
	copy(out, history)

	return out, nil
}

// Append implements Store.
func (s *InMemoryStore) Append(conversationID string, turns ...core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[conversationID] = append(s.histories[conversationID], turns...)

	return nil
}

// Clear implements Store.
func (s *InMemoryStore) Clear(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.histories, conversationID)

	return nil
}
