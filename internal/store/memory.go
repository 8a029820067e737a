package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is the in-memory Store used by tests and by components that
// need a scratch store.
type MemoryStore struct {
	mu        sync.RWMutex
	values    map[string]json.RawMessage
	observers []func(key string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate stored bytes.
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value json.RawMessage) error {
	stored := make(json.RawMessage, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.values[key] = stored
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(key)
	}
	return nil
}

func (s *MemoryStore) Subscribe(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}
