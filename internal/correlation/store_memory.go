package correlation

import (
	"context"
	"sync"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded correlation table for tests and
// single-node development.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[id.RequestID]Entry
}

// NewInMemoryStore creates an empty in-memory correlation table.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.RequestID]Entry)}
}

func (s *InMemoryStore) Register(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.RequestID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.entries[entry.RequestID] = entry
	return nil
}

func (s *InMemoryStore) Resolve(_ context.Context, requestID id.RequestID, kind Kind) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[requestID]
	if !ok || entry.Kind != kind {
		return Entry{}, sentinel.ErrNotFound
	}
	delete(s.entries, requestID)
	return entry, nil
}

// Outstanding reports the number of unresolved entries. Test helper.
func (s *InMemoryStore) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
