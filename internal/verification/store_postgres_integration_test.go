//go:build integration

package verification_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidledger/internal/oracle"
	"aidledger/internal/verification"
	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
	"aidledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *verification.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = verification.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Terminate(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "aid_verifications"))
}

func (s *PostgresStoreSuite) newVerification() *verification.Verification {
	return &verification.Verification{
		ID:                   id.NewVerificationID(),
		RecordID:             id.NewRecordID(),
		PackageID:            id.NewPackageID(),
		EncryptedEligibility: oracle.Handle{ID: uuid.New(), Blob: []byte("eligibility-ct")},
		EncryptedPriority:    oracle.Handle{ID: uuid.New(), Blob: []byte("priority-ct")},
		VerifiedAt:           time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	got, result, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.ID, got.ID)
	s.Equal(v.RecordID, got.RecordID)
	s.Equal(v.PackageID, got.PackageID)
	s.Equal(v.EncryptedEligibility, got.EncryptedEligibility)
	s.False(result.Revealed)
	s.Zero(result.Eligibility)
	s.Zero(result.Priority)

	s.Require().ErrorIs(s.store.Create(ctx, v), sentinel.ErrAlreadyUsed)

	_, _, err = s.store.FindByID(ctx, id.NewVerificationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMarkRevealedOnce() {
	ctx := context.Background()
	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	s.Require().NoError(s.store.MarkRevealed(ctx, v.ID, 50, 80))

	// The flip happens once; the stored scores stay frozen afterwards.
	err := s.store.MarkRevealed(ctx, v.ID, 100, 100)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	_, result, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.True(result.Revealed)
	s.Equal(50, result.Eligibility)
	s.Equal(80, result.Priority)
	s.False(result.RevealedAt.IsZero())

	err = s.store.MarkRevealed(ctx, id.NewVerificationID(), 1, 1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentReveal verifies that racing reveals on one verification let
// exactly one writer through.
func (s *PostgresStoreSuite) TestConcurrentReveal() {
	ctx := context.Background()
	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	const goroutines = 16
	var wg sync.WaitGroup
	var succeeded atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.MarkRevealed(ctx, v.ID, 100, 100)
			if err == nil {
				succeeded.Add(1)
			} else {
				s.ErrorIs(err, sentinel.ErrInvalidState)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load(), "exactly one reveal should win")
}

func (s *PostgresStoreSuite) TestListIDsOrder() {
	ctx := context.Background()
	var want []id.VerificationID
	for i := 0; i < 5; i++ {
		v := s.newVerification()
		s.Require().NoError(s.store.Create(ctx, v))
		want = append(want, v.ID)
	}

	got, err := s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)
}
