// Package domain defines typed identifiers shared across the ledger.
//
// Every entity ID is a distinct UUID-backed type so a verification ID can
// never be passed where a record ID is expected. Parse helpers enforce the
// trust-boundary invariant: IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "aidledger/pkg/domain-errors"
)

type (
	// RecordID identifies an aid request record.
	RecordID uuid.UUID
	// PackageID identifies an aid package (resource offer).
	PackageID uuid.UUID
	// VerificationID identifies a completed eligibility verification.
	VerificationID uuid.UUID
	// AgencyID identifies an authorized agency caller.
	AgencyID uuid.UUID
	// RequestID is the correlation token assigned by the decryption
	// capability when ciphertexts are submitted.
	RequestID uuid.UUID
)

func (id RecordID) String() string       { return uuid.UUID(id).String() }
func (id PackageID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id AgencyID) String() string       { return uuid.UUID(id).String() }
func (id RequestID) String() string      { return uuid.UUID(id).String() }

func (id RecordID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id PackageID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AgencyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// NewRecordID returns a fresh random record ID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewPackageID returns a fresh random package ID.
func NewPackageID() PackageID { return PackageID(uuid.New()) }

// NewVerificationID returns a fresh random verification ID.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewAgencyID returns a fresh random agency ID.
func NewAgencyID() AgencyID { return AgencyID(uuid.New()) }

// NewRequestID returns a fresh random request ID. Normally the decryption
// capability mints these; this exists for local capabilities and tests.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// ParseRecordID parses and validates a record ID from transport input.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record id")
	return RecordID(u), err
}

// ParsePackageID parses and validates a package ID from transport input.
func ParsePackageID(s string) (PackageID, error) {
	u, err := parseUUID(s, "package id")
	return PackageID(u), err
}

// ParseVerificationID parses and validates a verification ID from transport input.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification id")
	return VerificationID(u), err
}

// ParseAgencyID parses and validates an agency ID from token claims or config.
func ParseAgencyID(s string) (AgencyID, error) {
	u, err := parseUUID(s, "agency id")
	return AgencyID(u), err
}

// ParseRequestID parses and validates a correlation request ID from a callback.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	return RequestID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
