package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps entries in process. Used by unit tests and as the
// fallback when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, entries: make(map[int64][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries[entry.CaseReference] = append(s.entries[entry.CaseReference], *entry)
	return nil
}

func (s *InMemoryStore) ListByCase(_ context.Context, reference int64) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[reference]
	out := make([]Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (s *InMemoryStore) Latest(_ context.Context, reference int64) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[reference]
	if len(stored) == 0 {
		return nil, nil
	}
	latest := stored[len(stored)-1]
	return &latest, nil
}

// Count returns the total number of entries across all cases. Test helper.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		n += len(e)
	}
	return n
}
