package correlation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newEntry(kind Kind) Entry {
	return Entry{
		RequestID:    id.RequestID(uuid.New()),
		Kind:         kind,
		RecordID:     id.NewRecordID(),
		PackageID:    id.NewPackageID(),
		RegisteredAt: time.Now(),
	}
}

func (s *MemoryStoreSuite) TestRegisterAndResolve() {
	s.Run("resolves a registered entry once", func() {
		entry := s.newEntry(KindEligibility)
		s.Require().NoError(s.store.Register(s.ctx, entry))

		got, err := s.store.Resolve(s.ctx, entry.RequestID, KindEligibility)
		s.Require().NoError(err)
		s.Equal(entry.RecordID, got.RecordID)
		s.Equal(entry.PackageID, got.PackageID)

		// The entry is consumed; a replay finds nothing.
		_, err = s.store.Resolve(s.ctx, entry.RequestID, KindEligibility)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown request id is not found", func() {
		_, err := s.store.Resolve(s.ctx, id.RequestID(uuid.New()), KindEligibility)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestDuplicateRegistration() {
	entry := s.newEntry(KindReveal)
	s.Require().NoError(s.store.Register(s.ctx, entry))

	err := s.store.Register(s.ctx, entry)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	s.Equal(1, s.store.Outstanding())
}

func (s *MemoryStoreSuite) TestKindMismatchDoesNotConsume() {
	entry := s.newEntry(KindEligibility)
	s.Require().NoError(s.store.Register(s.ctx, entry))

	// A reveal callback cannot resolve an eligibility entry...
	_, err := s.store.Resolve(s.ctx, entry.RequestID, KindReveal)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// ...and the entry is still there for the correct kind.
	got, err := s.store.Resolve(s.ctx, entry.RequestID, KindEligibility)
	s.Require().NoError(err)
	s.Equal(entry.RequestID, got.RequestID)
}

func (s *MemoryStoreSuite) TestConcurrentResolveConsumesOnce() {
	entry := s.newEntry(KindReveal)
	s.Require().NoError(s.store.Register(s.ctx, entry))

	const workers = 16
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Resolve(s.ctx, entry.RequestID, KindReveal); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes, "exactly one resolver may win")
	s.Equal(0, s.store.Outstanding())
}
