package record

import (
	"context"

	id "aidledger/pkg/domain"
)

// Store is the durable mapping from record ID to AidRecord plus an ordered
// index of all record IDs. Implementations must make each operation an atomic
// unit per record key: Create writes the record and appends the index as one
// logical operation, and UpdateStatus is a compare-and-swap so concurrent
// submitters cannot lose updates.
//
// There is no delete: IDs are never reused and the index is append-only.
type Store interface {
	// Create persists a new record and appends its ID to the index.
	// Returns sentinel.ErrAlreadyUsed if the ID is already present.
	Create(ctx context.Context, rec *AidRecord) error

	// FindByID returns the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, recordID id.RecordID) (*AidRecord, error)

	// UpdateStatus transitions the record from to the new status only when the
	// current status equals from. Returns sentinel.ErrNotFound for a missing
	// record and sentinel.ErrInvalidState when the CAS fails.
	UpdateStatus(ctx context.Context, recordID id.RecordID, from, to Status) error

	// ListIDs returns every record ID in insertion order.
	ListIDs(ctx context.Context) ([]id.RecordID, error)
}
