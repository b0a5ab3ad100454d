package verification

import (
	"context"

	id "aidledger/pkg/domain"
)

// Store persists verifications and their paired results.
//
// Implementations return pkg/platform/sentinel errors: ErrAlreadyUsed on
// duplicate creation, ErrNotFound for unknown IDs, and ErrInvalidState when
// MarkRevealed hits an already-revealed result.
type Store interface {
	// Create stores the verification with an unrevealed zero-score result.
	Create(ctx context.Context, v *Verification) error

	// FindByID returns the verification and its current result.
	FindByID(ctx context.Context, vid id.VerificationID) (*Verification, *Result, error)

	// MarkRevealed sets the scores and flips the result to revealed. The
	// transition happens at most once; a second call fails with
	// ErrInvalidState and leaves the stored scores untouched.
	MarkRevealed(ctx context.Context, vid id.VerificationID, eligibility, priority int) error

	// ListIDs returns verification IDs in creation order.
	ListIDs(ctx context.Context) ([]id.VerificationID, error)
}
