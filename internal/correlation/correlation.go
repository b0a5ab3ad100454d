// Package correlation tracks outstanding decryption requests. It is the
// linchpin of the asynchronous oracle protocol: a stateless, delayed,
// out-of-order callback is matched back to the operation that originated it
// solely through this table, and each entry is consumed exactly once so a
// replayed callback finds nothing.
package correlation

import (
	"context"
	"time"

	id "aidledger/pkg/domain"
)

// Kind tags which callback shape an entry expects. The two kinds use disjoint
// key spaces: a callback of one kind can never resolve an entry of the other.
type Kind string

const (
	// KindEligibility awaits the three-field eligibility computation callback.
	KindEligibility Kind = "eligibility"
	// KindReveal awaits the two-field result reveal callback.
	KindReveal Kind = "reveal"
)

// Entry is one outstanding decryption request. Eligibility entries carry the
// record and package being verified; reveal entries carry the verification
// whose result is being exposed.
type Entry struct {
	RequestID      id.RequestID
	Kind           Kind
	RecordID       id.RecordID
	PackageID      id.PackageID
	VerificationID id.VerificationID
	RegisteredAt   time.Time
}

// Store holds outstanding entries. Register and Resolve must be safe under
// concurrent callers and must never lose an entry: registration is rejected on
// a duplicate request ID, and resolution atomically consumes the entry.
type Store interface {
	// Register adds an entry. Returns sentinel.ErrAlreadyUsed if the request
	// ID is already present — the external capability guarantees uniqueness,
	// but the table checks defensively.
	Register(ctx context.Context, entry Entry) error

	// Resolve atomically removes and returns the entry for requestID, but only
	// when its kind matches. A missing ID, an already-consumed ID, and a kind
	// mismatch are all sentinel.ErrNotFound: the callback channel learns
	// nothing about which.
	Resolve(ctx context.Context, requestID id.RequestID, kind Kind) (Entry, error)
}
