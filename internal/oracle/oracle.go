// Package oracle defines the external encryption/decryption capability the
// ledger depends on. The core never sees plaintext for stored fields; it holds
// opaque ciphertext handles and submits them for decryption, receiving
// cleartexts back on an asynchronous, proof-authenticated callback channel.
package oracle

import (
	"context"

	"github.com/google/uuid"

	id "aidledger/pkg/domain"
)

// Handle is an opaque reference to an encrypted value. The blob is meaningful
// only to the party holding decryption authority.
type Handle struct {
	ID   uuid.UUID `json:"id"`
	Blob []byte    `json:"blob"`
}

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h.ID == uuid.Nil && len(h.Blob) == 0
}

// Encrypter turns plaintext into a ciphertext handle. Used when the engine
// re-encrypts computed eligibility/priority for storage.
type Encrypter interface {
	Encrypt(ctx context.Context, plaintext []byte) (Handle, error)
}

// Decrypter submits ciphertext handles for decryption and authenticates the
// eventual callback. Submit is non-blocking: it returns a fresh request ID and
// the matching callback arrives at an arbitrary later time, out of band.
//
// VerifyProof must be called before trusting callback cleartexts; the callback
// channel is untrusted until the proof checks out.
type Decrypter interface {
	Submit(ctx context.Context, handles []Handle) (id.RequestID, error)
	VerifyProof(requestID id.RequestID, cleartexts [][]byte, proof []byte) error
}
