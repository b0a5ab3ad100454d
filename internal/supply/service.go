package supply

import (
	"context"
	"errors"
	"log/slog"

	"aidledger/internal/authz"
	"aidledger/internal/events"
	"aidledger/internal/oracle"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/sentinel"
	"aidledger/pkg/requestcontext"
)

// Service orchestrates package creation. Resource contents are encrypted on
// the way in and never stored in cleartext.
type Service struct {
	store     Store
	encrypter oracle.Encrypter
	policy    authz.Policy
	events    *events.Publisher
	logger    *slog.Logger
}

// NewService constructs the package service.
func NewService(store Store, encrypter oracle.Encrypter, policy authz.Policy, publisher *events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		encrypter: encrypter,
		policy:    policy,
		events:    publisher,
		logger:    logger,
	}
}

// CreateInput carries the cleartext offer; it exists only in flight.
type CreateInput struct {
	Resources  string
	Quantities string
}

// Create encrypts the offer and persists a new package.
func (s *Service) Create(ctx context.Context, input CreateInput) (*AidPackage, error) {
	caller := requestcontext.Agency(ctx)
	if err := s.policy.Authorize(ctx, caller, authz.OpPackageCreate); err != nil {
		return nil, err
	}
	if input.Resources == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resources must not be empty")
	}

	encResources, err := s.encrypter.Encrypt(ctx, []byte(input.Resources))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt resources")
	}
	encQuantities, err := s.encrypter.Encrypt(ctx, []byte(input.Quantities))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt quantities")
	}

	pkg := &AidPackage{
		ID:                  id.NewPackageID(),
		EncryptedResources:  encResources,
		EncryptedQuantities: encQuantities,
		CreatedAt:           requestcontext.Now(ctx),
		Owner:               caller,
	}
	if err := s.store.Create(ctx, pkg); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "package id collision")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create package")
	}

	s.events.Emit(ctx, events.Event{
		Kind:      events.KindPackageCreated,
		Timestamp: pkg.CreatedAt,
		PackageID: pkg.ID,
		Actor:     caller,
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	})

	s.logger.InfoContext(ctx, "package created",
		"request_id", requestcontext.RequestID(ctx),
		"package_id", pkg.ID.String(),
	)
	return pkg, nil
}

// Get returns a package by ID.
func (s *Service) Get(ctx context.Context, packageID id.PackageID) (*AidPackage, error) {
	pkg, err := s.store.FindByID(ctx, packageID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "package not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load package")
	}
	return pkg, nil
}

// ListIDs returns all package IDs in insertion order.
func (s *Service) ListIDs(ctx context.Context) ([]id.PackageID, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list packages")
	}
	return ids, nil
}
