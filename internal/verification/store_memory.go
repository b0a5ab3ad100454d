package verification

import (
	"context"
	"sync"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
	"aidledger/pkg/requestcontext"
)

type entry struct {
	verification Verification
	result       Result
}

// InMemoryStore is a thread-safe map-backed Store for development and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.VerificationID]*entry
	index   []id.VerificationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.VerificationID]*entry)}
}

func (s *InMemoryStore) Create(_ context.Context, v *Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[v.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.entries[v.ID] = &entry{verification: *v}
	s.index = append(s.index, v.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, vid id.VerificationID) (*Verification, *Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[vid]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	v := e.verification
	r := e.result
	return &v, &r, nil
}

func (s *InMemoryStore) MarkRevealed(ctx context.Context, vid id.VerificationID, eligibility, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[vid]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.result.Revealed {
		return sentinel.ErrInvalidState
	}
	e.result = Result{
		Eligibility: eligibility,
		Priority:    priority,
		Revealed:    true,
		RevealedAt:  requestcontext.Now(ctx).UTC(),
	}
	return nil
}

func (s *InMemoryStore) ListIDs(_ context.Context) ([]id.VerificationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]id.VerificationID, len(s.index))
	copy(out, s.index)
	return out, nil
}
