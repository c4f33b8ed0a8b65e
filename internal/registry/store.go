package registry

import "sync"

// EnablementStore persists whether each comparator takes part in batch
// reporting, keyed by processor short name.
type EnablementStore interface {
	// Enabled returns the stored flag, or true when none is stored.
	Enabled(name string) bool
	SetEnabled(name string, enabled bool)
}

// MemoryStore is an in-process EnablementStore.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

func (s *MemoryStore) Enabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.flags[name]
	if !ok {
		return true
	}
	return enabled
}

func (s *MemoryStore) SetEnabled(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = enabled
}
