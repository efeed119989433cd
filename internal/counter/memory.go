package counter

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local tooling. The
// shared state map lets a test simulate a process restart by constructing a
// second store over the same state.
type MemoryStore struct {
	mu       sync.Mutex
	state    map[string]int64
	name     string
	baseline int64
}

// NewMemoryStore creates a store with private state.
func NewMemoryStore(name string, baseline int64) *MemoryStore {
	return NewMemoryStoreWithState(name, baseline, map[string]int64{})
}

// NewMemoryStoreWithState creates a store over caller-owned state.
func NewMemoryStoreWithState(name string, baseline int64, state map[string]int64) *MemoryStore {
	return &MemoryStore{state: state, name: name, baseline: baseline}
}

func (s *MemoryStore) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.state[s.name]
	if !ok {
		last = s.baseline
	}
	s.state[s.name] = last + 1
	return last + 1, nil
}

func (s *MemoryStore) Peek(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.state[s.name]; ok {
		return last, nil
	}
	return s.baseline, nil
}
