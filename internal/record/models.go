package record

import (
	"time"

	"aidledger/internal/oracle"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

// Status is the lifecycle state of an aid record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusDistributed Status = "distributed"
	StatusRejected    Status = "rejected"
)

// ParseStatus validates a status from transport or storage input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusDistributed, StatusRejected:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+s)
}

// CanTransitionTo encodes the legal lifecycle:
// pending -> approved -> distributed, and pending -> rejected.
// Rejected and distributed are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusDistributed
	}
	return false
}

// AidRecord is a confidential aid request. Sensitive fields are held as
// ciphertext handles and never decrypted in place; the coarse metadata is
// cleartext for routing only.
type AidRecord struct {
	ID                id.RecordID
	EncryptedIdentity oracle.Handle
	EncryptedLocation oracle.Handle
	EncryptedNeeds    oracle.Handle
	Category          string
	Location          string
	Amount            int64
	Needs             []string
	Status            Status
	CreatedAt         time.Time
	Owner             id.AgencyID
}
