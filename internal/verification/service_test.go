package verification

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidledger/internal/authz"
	"aidledger/internal/correlation"
	"aidledger/internal/events"
	"aidledger/internal/oracle"
	"aidledger/internal/record"
	"aidledger/internal/supply"
	"aidledger/internal/verification/metrics"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/requestcontext"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = metrics.New()

type ServiceSuite struct {
	suite.Suite
	svc          *Service
	store        *InMemoryStore
	records      *record.InMemoryStore
	packages     *supply.InMemoryStore
	correlations *correlation.InMemoryStore
	eventStore   *events.InMemoryStore
	capability   *oracle.Local
	agency       id.AgencyID
	ctx          context.Context
}

func (s *ServiceSuite) SetupTest() {
	var err error
	s.capability, err = oracle.NewLocal()
	s.Require().NoError(err)

	s.store = NewInMemoryStore()
	s.records = record.NewInMemoryStore()
	s.packages = supply.NewInMemoryStore()
	s.correlations = correlation.NewInMemoryStore()
	s.eventStore = events.NewInMemoryStore()

	s.agency = id.NewAgencyID()
	policy := authz.NewStaticPolicy()
	policy.Register(authz.Agency{
		ID:   s.agency,
		Name: "test-agency",
		Allowed: map[authz.Operation]bool{
			authz.OpVerifyRequest: true,
			authz.OpRevealRequest: true,
		},
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewPublisher(s.eventStore, logger)
	s.svc = NewService(
		s.store, s.records, s.packages, s.correlations,
		s.capability, s.capability, policy, publisher, logger, testMetrics,
	)
	s.ctx = requestcontext.WithAgency(context.Background(), s.agency)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) seedRecord(identity, needs string) id.RecordID {
	encIdentity, err := s.capability.Encrypt(s.ctx, []byte(identity))
	s.Require().NoError(err)
	encLocation, err := s.capability.Encrypt(s.ctx, []byte("region-7"))
	s.Require().NoError(err)
	encNeeds, err := s.capability.Encrypt(s.ctx, []byte(needs))
	s.Require().NoError(err)

	rec := &record.AidRecord{
		ID:                id.NewRecordID(),
		EncryptedIdentity: encIdentity,
		EncryptedLocation: encLocation,
		EncryptedNeeds:    encNeeds,
		Category:          "food",
		Status:            record.StatusPending,
		CreatedAt:         time.Now(),
		Owner:             s.agency,
	}
	s.Require().NoError(s.records.Create(s.ctx, rec))
	return rec.ID
}

func (s *ServiceSuite) seedPackage(resources string) id.PackageID {
	encResources, err := s.capability.Encrypt(s.ctx, []byte(resources))
	s.Require().NoError(err)
	encQuantities, err := s.capability.Encrypt(s.ctx, []byte("10,20"))
	s.Require().NoError(err)

	pkg := &supply.AidPackage{
		ID:                  id.NewPackageID(),
		EncryptedResources:  encResources,
		EncryptedQuantities: encQuantities,
		CreatedAt:           time.Now(),
		Owner:               s.agency,
	}
	s.Require().NoError(s.packages.Create(s.ctx, pkg))
	return pkg.ID
}

// verify runs the request/callback pair and returns the verification ID.
func (s *ServiceSuite) verify(recordID id.RecordID, packageID id.PackageID) id.VerificationID {
	requestID, err := s.svc.Request(s.ctx, recordID, packageID)
	s.Require().NoError(err)

	cleartexts, proof, err := s.capability.Answer(requestID)
	s.Require().NoError(err)

	vid, err := s.svc.HandleEligibilityCallback(s.ctx, requestID, cleartexts, proof)
	s.Require().NoError(err)
	return vid
}

func (s *ServiceSuite) TestFullVerificationFlow() {
	recordID := s.seedRecord("refugee-id-001", "food,water")
	packageID := s.seedPackage("food,water")

	vid := s.verify(recordID, packageID)

	v, result, err := s.svc.Get(s.ctx, vid)
	s.Require().NoError(err)
	s.Equal(recordID, v.RecordID)
	s.Equal(packageID, v.PackageID)
	s.False(result.Revealed)
	s.Zero(result.Eligibility)
	s.Zero(result.Priority)
	s.Equal(0, s.correlations.Outstanding())

	revealID, err := s.svc.RequestReveal(s.ctx, vid)
	s.Require().NoError(err)

	cleartexts, proof, err := s.capability.Answer(revealID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleRevealCallback(s.ctx, revealID, cleartexts, proof))

	_, result, err = s.svc.Get(s.ctx, vid)
	s.Require().NoError(err)
	s.True(result.Revealed)
	s.Equal(100, result.Eligibility)
	s.Equal(100, result.Priority)

	// The result is frozen; a further reveal request is refused.
	_, err = s.svc.RequestReveal(s.ctx, vid)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyRevealed))

	kinds := make([]events.Kind, 0, 3)
	for _, e := range s.eventStore.List() {
		kinds = append(kinds, e.Kind)
	}
	s.Equal([]events.Kind{
		events.KindVerificationRequested,
		events.KindVerificationCompleted,
		events.KindResultRevealed,
	}, kinds)
}

func (s *ServiceSuite) TestPartialScores() {
	// Five-byte needs stay at the threshold, so eligibility carries only the
	// identity component, and one differing byte in five drops priority to 80.
	recordID := s.seedRecord("refugee-id-001", "abcde")
	packageID := s.seedPackage("abxde")

	vid := s.verify(recordID, packageID)

	revealID, err := s.svc.RequestReveal(s.ctx, vid)
	s.Require().NoError(err)
	cleartexts, proof, err := s.capability.Answer(revealID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleRevealCallback(s.ctx, revealID, cleartexts, proof))

	_, result, err := s.svc.Get(s.ctx, vid)
	s.Require().NoError(err)
	s.Equal(50, result.Eligibility)
	s.Equal(80, result.Priority)
}

func (s *ServiceSuite) TestRequestValidation() {
	recordID := s.seedRecord("refugee-id-001", "food,water")
	packageID := s.seedPackage("food,water")

	s.Run("unknown record", func() {
		_, err := s.svc.Request(s.ctx, id.NewRecordID(), packageID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown package", func() {
		_, err := s.svc.Request(s.ctx, recordID, id.NewPackageID())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("caller without permission", func() {
		ctx := requestcontext.WithAgency(context.Background(), id.NewAgencyID())
		_, err := s.svc.Request(ctx, recordID, packageID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestCallbackRejection() {
	recordID := s.seedRecord("refugee-id-001", "food,water")
	packageID := s.seedPackage("food,water")

	s.Run("unknown request id", func() {
		_, err := s.svc.HandleEligibilityCallback(s.ctx, id.NewRequestID(), nil, nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnknownRequest))
	})

	s.Run("replayed callback", func() {
		requestID, err := s.svc.Request(s.ctx, recordID, packageID)
		s.Require().NoError(err)
		cleartexts, proof, err := s.capability.Answer(requestID)
		s.Require().NoError(err)

		_, err = s.svc.HandleEligibilityCallback(s.ctx, requestID, cleartexts, proof)
		s.Require().NoError(err)

		// The first delivery consumed the entry; the replay is rejected and
		// no second verification appears.
		before, err := s.svc.ListIDs(s.ctx)
		s.Require().NoError(err)
		_, err = s.svc.HandleEligibilityCallback(s.ctx, requestID, cleartexts, proof)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnknownRequest))
		after, err := s.svc.ListIDs(s.ctx)
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("tampered proof loses the request", func() {
		requestID, err := s.svc.Request(s.ctx, recordID, packageID)
		s.Require().NoError(err)
		cleartexts, proof, err := s.capability.Answer(requestID)
		s.Require().NoError(err)

		proof[0] ^= 0xff
		_, err = s.svc.HandleEligibilityCallback(s.ctx, requestID, cleartexts, proof)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidProof))

		// The entry is gone; even the honest callback cannot land now.
		proof[0] ^= 0xff
		_, err = s.svc.HandleEligibilityCallback(s.ctx, requestID, cleartexts, proof)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnknownRequest))
	})

	s.Run("eligibility callback cannot resolve a reveal entry", func() {
		vid := s.verify(recordID, packageID)
		revealID, err := s.svc.RequestReveal(s.ctx, vid)
		s.Require().NoError(err)
		cleartexts, proof, err := s.capability.Answer(revealID)
		s.Require().NoError(err)

		_, err = s.svc.HandleEligibilityCallback(s.ctx, revealID, cleartexts, proof)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnknownRequest))

		// The mismatch did not consume the entry; the right handler still works.
		s.Require().NoError(s.svc.HandleRevealCallback(s.ctx, revealID, cleartexts, proof))
	})
}

func (s *ServiceSuite) TestDuplicateRevealCallbackIsNoOp() {
	recordID := s.seedRecord("refugee-id-001", "food,water")
	packageID := s.seedPackage("food,water")
	vid := s.verify(recordID, packageID)

	// Two racing reveal requests, both outstanding.
	firstID, err := s.svc.RequestReveal(s.ctx, vid)
	s.Require().NoError(err)
	secondID, err := s.svc.RequestReveal(s.ctx, vid)
	s.Require().NoError(err)

	cleartexts, proof, err := s.capability.Answer(firstID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleRevealCallback(s.ctx, firstID, cleartexts, proof))

	// The second callback finds the result already revealed and is absorbed.
	cleartexts, proof, err = s.capability.Answer(secondID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleRevealCallback(s.ctx, secondID, cleartexts, proof))

	_, result, err := s.svc.Get(s.ctx, vid)
	s.Require().NoError(err)
	s.True(result.Revealed)

	// Only one reveal event despite two callbacks.
	s.Len(s.eventStore.ByKind(events.KindResultRevealed), 1)
}
