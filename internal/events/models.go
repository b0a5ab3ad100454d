// Package events captures the ledger's observable notifications. Events are
// consumed by external auditors and monitors; they are not part of the
// consistency protocol, so emission failure never fails the operation that
// produced the event.
package events

import (
	"context"
	"time"

	id "aidledger/pkg/domain"
)

// Kind classifies an event.
type Kind string

const (
	KindRecordRegistered      Kind = "record_registered"
	KindPackageCreated        Kind = "package_created"
	KindVerificationRequested Kind = "verification_requested"
	KindVerificationCompleted Kind = "verification_completed"
	KindResultRevealed        Kind = "result_revealed"
)

// Event is emitted from domain logic after a successful state change. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Kind           Kind
	Timestamp      time.Time
	RecordID       id.RecordID
	PackageID      id.PackageID
	VerificationID id.VerificationID
	RequestID      id.RequestID
	Actor          id.AgencyID
	ClientIP       string
	Device         string
}

// Store is an append-only event sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
