package record

import (
	"context"
	"sync"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map guarded by a single lock, with the
// ordered ID index written under the same lock so map and index can never
// diverge. Intended for tests and single-node development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]AidRecord
	index   []id.RecordID
}

// NewInMemoryStore creates an empty in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]AidRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *AidRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.records[rec.ID] = cloneRecord(rec)
	s.index = append(s.index, rec.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*AidRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneRecord(&rec)
	return &out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, recordID id.RecordID, from, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rec.Status != from {
		return sentinel.ErrInvalidState
	}
	rec.Status = to
	s.records[recordID] = rec
	return nil
}

func (s *InMemoryStore) ListIDs(_ context.Context) ([]id.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.RecordID{}, s.index...), nil
}

// cloneRecord copies the record so callers cannot mutate stored state through
// the Needs slice.
func cloneRecord(rec *AidRecord) AidRecord {
	out := *rec
	out.Needs = append([]string{}, rec.Needs...)
	return out
}
