package record

import (
	"context"
	"errors"
	"log/slog"

	"aidledger/internal/authz"
	"aidledger/internal/events"
	"aidledger/internal/oracle"
	"aidledger/internal/record/metrics"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/sentinel"
	strutil "aidledger/pkg/platform/strings"
	"aidledger/pkg/requestcontext"
)

// Service orchestrates record registration and the status lifecycle. It keeps
// orchestration out of handlers and domain logic thin: the store enforces
// per-key atomicity, the status machine enforces legality, and the policy
// gate runs before any state change.
type Service struct {
	store     Store
	encrypter oracle.Encrypter
	policy    authz.Policy
	events    *events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewService constructs the record service.
func NewService(store Store, encrypter oracle.Encrypter, policy authz.Policy, publisher *events.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		encrypter: encrypter,
		policy:    policy,
		events:    publisher,
		logger:    logger,
		metrics:   m,
	}
}

// CreateInput carries the cleartext request fields; sensitive values exist
// only in flight and are encrypted before storage.
type CreateInput struct {
	Identity string
	Location string
	NeedsRaw string
	Category string
	Region   string
	Amount   int64
	Needs    []string
}

// Create registers a new aid record in status pending.
func (s *Service) Create(ctx context.Context, input CreateInput) (*AidRecord, error) {
	caller := requestcontext.Agency(ctx)
	if err := s.policy.Authorize(ctx, caller, authz.OpRecordCreate); err != nil {
		return nil, err
	}
	if input.Identity == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "identity must not be empty")
	}

	encIdentity, err := s.encrypter.Encrypt(ctx, []byte(input.Identity))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt identity")
	}
	encLocation, err := s.encrypter.Encrypt(ctx, []byte(input.Location))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt location")
	}
	encNeeds, err := s.encrypter.Encrypt(ctx, []byte(input.NeedsRaw))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt needs")
	}

	rec := &AidRecord{
		ID:                id.NewRecordID(),
		EncryptedIdentity: encIdentity,
		EncryptedLocation: encLocation,
		EncryptedNeeds:    encNeeds,
		Category:          input.Category,
		Location:          input.Region,
		Amount:            input.Amount,
		Needs:             strutil.DedupeAndTrimLower(input.Needs),
		Status:            StatusPending,
		CreatedAt:         requestcontext.Now(ctx),
		Owner:             caller,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Fresh UUIDs colliding means something is deeply wrong.
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "record id collision")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	s.metrics.RecordsCreated.Inc()
	s.events.Emit(ctx, events.Event{
		Kind:      events.KindRecordRegistered,
		Timestamp: rec.CreatedAt,
		RecordID:  rec.ID,
		Actor:     caller,
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	})

	s.logger.InfoContext(ctx, "record registered",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", rec.ID.String(),
		"category", rec.Category,
	)
	return rec, nil
}

// Get returns a record by ID.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*AidRecord, error) {
	rec, err := s.store.FindByID(ctx, recordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return rec, nil
}

// ListIDs returns all record IDs in insertion order.
func (s *Service) ListIDs(ctx context.Context) ([]id.RecordID, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return ids, nil
}

// Approve transitions pending -> approved.
func (s *Service) Approve(ctx context.Context, recordID id.RecordID) error {
	return s.transition(ctx, recordID, StatusPending, StatusApproved, authz.OpRecordApprove)
}

// Distribute transitions approved -> distributed.
func (s *Service) Distribute(ctx context.Context, recordID id.RecordID) error {
	return s.transition(ctx, recordID, StatusApproved, StatusDistributed, authz.OpRecordDistribute)
}

// Reject transitions pending -> rejected. Rejection shares the approve
// permission: both are adjudication decisions.
func (s *Service) Reject(ctx context.Context, recordID id.RecordID) error {
	return s.transition(ctx, recordID, StatusPending, StatusRejected, authz.OpRecordApprove)
}

func (s *Service) transition(ctx context.Context, recordID id.RecordID, from, to Status, op authz.Operation) error {
	caller := requestcontext.Agency(ctx)
	if err := s.policy.Authorize(ctx, caller, op); err != nil {
		return err
	}
	if !from.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeInvariantViolation, "transition table disagrees with caller")
	}

	err := s.store.UpdateStatus(ctx, recordID, from, to)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeIllegalTransition,
			"record is not in status "+string(from))
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update status")
	}

	s.metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
	s.logger.InfoContext(ctx, "record status changed",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", recordID.String(),
		"from", string(from),
		"to", string(to),
	)
	return nil
}
