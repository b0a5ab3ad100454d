package supply

import (
	"context"
	"sync"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

// InMemoryStore keeps packages in a map with an ordered ID index under one
// lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	packages map[id.PackageID]AidPackage
	index    []id.PackageID
}

// NewInMemoryStore creates an empty in-memory package store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{packages: make(map[id.PackageID]AidPackage)}
}

func (s *InMemoryStore) Create(_ context.Context, pkg *AidPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[pkg.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.packages[pkg.ID] = *pkg
	s.index = append(s.index, pkg.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, packageID id.PackageID) (*AidPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pkg, ok := s.packages[packageID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := pkg
	return &out, nil
}

func (s *InMemoryStore) ListIDs(_ context.Context) ([]id.PackageID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.PackageID{}, s.index...), nil
}
