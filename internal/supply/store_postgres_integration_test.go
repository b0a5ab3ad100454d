//go:build integration

package supply_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidledger/internal/oracle"
	"aidledger/internal/supply"
	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
	"aidledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *supply.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = supply.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Terminate(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "aid_packages"))
}

func (s *PostgresStoreSuite) newPackage() *supply.AidPackage {
	return &supply.AidPackage{
		ID:                  id.NewPackageID(),
		EncryptedResources:  oracle.Handle{ID: uuid.New(), Blob: []byte("resources-ct")},
		EncryptedQuantities: oracle.Handle{ID: uuid.New(), Blob: []byte("quantities-ct")},
		CreatedAt:           time.Now().UTC().Truncate(time.Microsecond),
		Owner:               id.NewAgencyID(),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	pkg := s.newPackage()
	s.Require().NoError(s.store.Create(ctx, pkg))

	got, err := s.store.FindByID(ctx, pkg.ID)
	s.Require().NoError(err)
	s.Equal(pkg.ID, got.ID)
	s.Equal(pkg.EncryptedResources, got.EncryptedResources)
	s.Equal(pkg.EncryptedQuantities, got.EncryptedQuantities)
	s.Equal(pkg.Owner, got.Owner)

	s.Require().ErrorIs(s.store.Create(ctx, pkg), sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, id.NewPackageID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListIDsOrder() {
	ctx := context.Background()
	var want []id.PackageID
	for i := 0; i < 5; i++ {
		pkg := s.newPackage()
		s.Require().NoError(s.store.Create(ctx, pkg))
		want = append(want, pkg.ID)
	}

	got, err := s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)
}
