package verification

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"aidledger/internal/authz"
	"aidledger/internal/correlation"
	"aidledger/internal/events"
	"aidledger/internal/oracle"
	"aidledger/internal/record"
	"aidledger/internal/supply"
	"aidledger/internal/verification/metrics"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/sentinel"
	"aidledger/pkg/requestcontext"
)

// Expected callback arities. The cleartext schema is positional and strict:
// anything else is rejected before any state is touched.
const (
	eligibilityCallbackFields = 3 // identity, needs, resources
	revealCallbackFields      = 2 // eligibility, priority
)

// Service runs the verification engine. The request side is authenticated
// agency traffic; the callback side is the untrusted oracle channel, where
// every failure collapses to one opaque rejection at the transport layer.
type Service struct {
	store        Store
	records      record.Store
	packages     supply.Store
	correlations correlation.Store
	decrypter    oracle.Decrypter
	encrypter    oracle.Encrypter
	policy       authz.Policy
	events       *events.Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// NewService constructs the verification service.
func NewService(
	store Store,
	records record.Store,
	packages supply.Store,
	correlations correlation.Store,
	decrypter oracle.Decrypter,
	encrypter oracle.Encrypter,
	policy authz.Policy,
	publisher *events.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:        store,
		records:      records,
		packages:     packages,
		correlations: correlations,
		decrypter:    decrypter,
		encrypter:    encrypter,
		policy:       policy,
		events:       publisher,
		logger:       logger,
		metrics:      m,
		tracer:       otel.Tracer("aidledger/internal/verification"),
	}
}

// Request submits an eligibility verification for a record against a package.
// It returns the oracle request ID; the computation completes later when the
// matching callback arrives on HandleEligibilityCallback.
func (s *Service) Request(ctx context.Context, recordID id.RecordID, packageID id.PackageID) (id.RequestID, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Request",
		trace.WithAttributes(
			attribute.String("record_id", recordID.String()),
			attribute.String("package_id", packageID.String()),
		))
	defer span.End()

	caller := requestcontext.Agency(ctx)
	if err := s.policy.Authorize(ctx, caller, authz.OpVerifyRequest); err != nil {
		return id.RequestID{}, err
	}

	rec, err := s.records.FindByID(ctx, recordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.RequestID{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	pkg, err := s.packages.FindByID(ctx, packageID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.RequestID{}, dErrors.New(dErrors.CodeNotFound, "package not found")
	}
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load package")
	}

	// Handle order is the positional contract with the callback decoder.
	requestID, err := s.decrypter.Submit(ctx, []oracle.Handle{
		rec.EncryptedIdentity,
		rec.EncryptedNeeds,
		pkg.EncryptedResources,
	})
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "decryption request failed")
	}

	now := requestcontext.Now(ctx).UTC()
	err = s.correlations.Register(ctx, correlation.Entry{
		RequestID:    requestID,
		Kind:         correlation.KindEligibility,
		RecordID:     recordID,
		PackageID:    packageID,
		RegisteredAt: now,
	})
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return id.RequestID{}, dErrors.New(dErrors.CodeDuplicateRequest, "request id already outstanding")
	}
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register request")
	}

	s.metrics.Requested.Inc()
	s.events.Emit(ctx, events.Event{
		Kind:      events.KindVerificationRequested,
		Timestamp: now,
		RecordID:  recordID,
		PackageID: packageID,
		RequestID: requestID,
		Actor:     caller,
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	})
	s.logger.InfoContext(ctx, "verification requested",
		"request_id", requestcontext.RequestID(ctx),
		"oracle_request_id", requestID.String(),
		"record_id", recordID.String(),
		"package_id", packageID.String(),
	)
	return requestID, nil
}

// HandleEligibilityCallback processes the decrypted identity/needs/resources
// for an outstanding eligibility request. The entry is consumed before the
// proof is checked, so a request whose callback fails verification is lost and
// must be reissued.
func (s *Service) HandleEligibilityCallback(ctx context.Context, requestID id.RequestID, cleartexts [][]byte, proof []byte) (id.VerificationID, error) {
	ctx, span := s.tracer.Start(ctx, "verification.HandleEligibilityCallback",
		trace.WithAttributes(attribute.String("oracle_request_id", requestID.String())))
	defer span.End()

	entry, err := s.resolve(ctx, requestID, correlation.KindEligibility)
	if err != nil {
		return id.VerificationID{}, err
	}
	if err := s.authenticate(ctx, entry, requestID, cleartexts, proof, eligibilityCallbackFields); err != nil {
		return id.VerificationID{}, err
	}

	identity, needs, resources := cleartexts[0], cleartexts[1], cleartexts[2]
	eligibility := eligibilityScore(identity, needs)
	priority := priorityScore(needs, resources)

	encEligibility, err := s.encrypter.Encrypt(ctx, []byte(strconv.Itoa(eligibility)))
	if err != nil {
		return id.VerificationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt eligibility")
	}
	encPriority, err := s.encrypter.Encrypt(ctx, []byte(strconv.Itoa(priority)))
	if err != nil {
		return id.VerificationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt priority")
	}

	now := requestcontext.Now(ctx).UTC()
	v := &Verification{
		ID:                   id.NewVerificationID(),
		RecordID:             entry.RecordID,
		PackageID:            entry.PackageID,
		EncryptedEligibility: encEligibility,
		EncryptedPriority:    encPriority,
		VerifiedAt:           now,
	}
	if err := s.store.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return id.VerificationID{}, dErrors.New(dErrors.CodeInvariantViolation, "verification id collision")
		}
		return id.VerificationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification")
	}

	s.metrics.Completed.Inc()
	s.events.Emit(ctx, events.Event{
		Kind:           events.KindVerificationCompleted,
		Timestamp:      now,
		RecordID:       entry.RecordID,
		PackageID:      entry.PackageID,
		VerificationID: v.ID,
		RequestID:      requestID,
	})
	s.logger.InfoContext(ctx, "verification completed",
		"oracle_request_id", requestID.String(),
		"verification_id", v.ID.String(),
		"record_id", entry.RecordID.String(),
	)
	return v.ID, nil
}

// RequestReveal submits the stored encrypted scores of a verification for
// decryption. The result stays sealed until the reveal callback lands.
func (s *Service) RequestReveal(ctx context.Context, verificationID id.VerificationID) (id.RequestID, error) {
	ctx, span := s.tracer.Start(ctx, "verification.RequestReveal",
		trace.WithAttributes(attribute.String("verification_id", verificationID.String())))
	defer span.End()

	caller := requestcontext.Agency(ctx)
	if err := s.policy.Authorize(ctx, caller, authz.OpRevealRequest); err != nil {
		return id.RequestID{}, err
	}

	v, result, err := s.store.FindByID(ctx, verificationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.RequestID{}, dErrors.New(dErrors.CodeNotFound, "verification not found")
	}
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	if result.Revealed {
		return id.RequestID{}, dErrors.New(dErrors.CodeAlreadyRevealed, "result already revealed")
	}

	requestID, err := s.decrypter.Submit(ctx, []oracle.Handle{
		v.EncryptedEligibility,
		v.EncryptedPriority,
	})
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "decryption request failed")
	}

	now := requestcontext.Now(ctx).UTC()
	err = s.correlations.Register(ctx, correlation.Entry{
		RequestID:      requestID,
		Kind:           correlation.KindReveal,
		RecordID:       v.RecordID,
		PackageID:      v.PackageID,
		VerificationID: verificationID,
		RegisteredAt:   now,
	})
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return id.RequestID{}, dErrors.New(dErrors.CodeDuplicateRequest, "request id already outstanding")
	}
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register request")
	}

	s.logger.InfoContext(ctx, "reveal requested",
		"request_id", requestcontext.RequestID(ctx),
		"oracle_request_id", requestID.String(),
		"verification_id", verificationID.String(),
	)
	return requestID, nil
}

// HandleRevealCallback processes decrypted scores for an outstanding reveal
// request. A callback that races a completed reveal is absorbed as a no-op:
// the first revelation froze the result.
func (s *Service) HandleRevealCallback(ctx context.Context, requestID id.RequestID, cleartexts [][]byte, proof []byte) error {
	ctx, span := s.tracer.Start(ctx, "verification.HandleRevealCallback",
		trace.WithAttributes(attribute.String("oracle_request_id", requestID.String())))
	defer span.End()

	entry, err := s.resolve(ctx, requestID, correlation.KindReveal)
	if err != nil {
		return err
	}
	if err := s.authenticate(ctx, entry, requestID, cleartexts, proof, revealCallbackFields); err != nil {
		return err
	}

	eligibility, err := parseScore(cleartexts[0])
	if err != nil {
		s.rejectCallback(ctx, entry.Kind, requestID, "eligibility cleartext is not a score")
		return dErrors.New(dErrors.CodeMalformedCallback, "eligibility cleartext is not a score")
	}
	priority, err := parseScore(cleartexts[1])
	if err != nil {
		s.rejectCallback(ctx, entry.Kind, requestID, "priority cleartext is not a score")
		return dErrors.New(dErrors.CodeMalformedCallback, "priority cleartext is not a score")
	}

	err = s.store.MarkRevealed(ctx, entry.VerificationID, eligibility, priority)
	switch {
	case errors.Is(err, sentinel.ErrInvalidState):
		// Already revealed. The stored result stays frozen.
		s.logger.InfoContext(ctx, "reveal callback ignored, result already revealed",
			"oracle_request_id", requestID.String(),
			"verification_id", entry.VerificationID.String(),
		)
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeInvariantViolation, "reveal entry references missing verification")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reveal result")
	}

	now := requestcontext.Now(ctx).UTC()
	s.metrics.Revealed.Inc()
	s.events.Emit(ctx, events.Event{
		Kind:           events.KindResultRevealed,
		Timestamp:      now,
		RecordID:       entry.RecordID,
		PackageID:      entry.PackageID,
		VerificationID: entry.VerificationID,
		RequestID:      requestID,
	})
	s.logger.InfoContext(ctx, "result revealed",
		"oracle_request_id", requestID.String(),
		"verification_id", entry.VerificationID.String(),
		"eligibility", eligibility,
		"priority", priority,
	)
	return nil
}

// Get returns a verification and its result. Unrevealed results come back
// with zero scores and Revealed=false rather than an error: callers can poll.
func (s *Service) Get(ctx context.Context, verificationID id.VerificationID) (*Verification, *Result, error) {
	v, result, err := s.store.FindByID(ctx, verificationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return v, result, nil
}

// ListIDs returns all verification IDs in creation order.
func (s *Service) ListIDs(ctx context.Context) ([]id.VerificationID, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	return ids, nil
}

// resolve consumes the correlation entry for a callback. Unknown, replayed,
// and wrong-kind request IDs are indistinguishable to the caller.
func (s *Service) resolve(ctx context.Context, requestID id.RequestID, kind correlation.Kind) (correlation.Entry, error) {
	entry, err := s.correlations.Resolve(ctx, requestID, kind)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.rejectCallback(ctx, kind, requestID, "no outstanding request")
		return correlation.Entry{}, dErrors.New(dErrors.CodeUnknownRequest, "no outstanding request for id")
	}
	if err != nil {
		return correlation.Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve request")
	}
	s.metrics.CallbackLatency.WithLabelValues(string(kind)).
		Observe(time.Since(entry.RegisteredAt).Seconds())
	return entry, nil
}

// authenticate checks the proof and the positional field count. The entry is
// already consumed at this point; rejection here loses the request.
func (s *Service) authenticate(ctx context.Context, entry correlation.Entry, requestID id.RequestID, cleartexts [][]byte, proof []byte, wantFields int) error {
	if err := s.decrypter.VerifyProof(requestID, cleartexts, proof); err != nil {
		s.rejectCallback(ctx, entry.Kind, requestID, "proof verification failed")
		return dErrors.Wrap(err, dErrors.CodeInvalidProof, "proof verification failed")
	}
	if len(cleartexts) != wantFields {
		s.rejectCallback(ctx, entry.Kind, requestID, "unexpected cleartext count")
		return dErrors.New(dErrors.CodeMalformedCallback, "unexpected cleartext count")
	}
	return nil
}

func (s *Service) rejectCallback(ctx context.Context, kind correlation.Kind, requestID id.RequestID, reason string) {
	s.metrics.CallbacksRejected.WithLabelValues(string(kind)).Inc()
	s.logger.WarnContext(ctx, "oracle callback rejected",
		"kind", string(kind),
		"oracle_request_id", requestID.String(),
		"reason", reason,
	)
}

// parseScore decodes a decimal score cleartext and bounds it to [0, 100].
func parseScore(cleartext []byte) (int, error) {
	n, err := strconv.Atoi(string(cleartext))
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxScore {
		return 0, strconv.ErrRange
	}
	return n, nil
}
