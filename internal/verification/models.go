// Package verification implements the two-phase asynchronous eligibility
// protocol: a decryption request is issued against a record/package pair, the
// proof-verified callback computes scores and stores them re-encrypted, and a
// second request/callback pair reveals the result exactly once.
package verification

import (
	"time"

	"aidledger/internal/oracle"
	id "aidledger/pkg/domain"
)

// Verification is a completed eligibility computation. It weakly references
// its record and package by ID: neither can be deleted, so the references
// cannot dangle, and nothing here cascades into them.
type Verification struct {
	ID                   id.VerificationID
	RecordID             id.RecordID
	PackageID            id.PackageID
	EncryptedEligibility oracle.Handle
	EncryptedPriority    oracle.Handle
	VerifiedAt           time.Time
}

// Result is the 1:1 decrypted result of a verification. Scores are zero and
// meaningless until Revealed is true; once true they are frozen.
type Result struct {
	Eligibility int
	Priority    int
	Revealed    bool
	RevealedAt  time.Time
}
