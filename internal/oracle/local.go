package oracle

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/secretbox"

	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

// Local is an in-process capability for development and tests. It encrypts
// with NaCl secretbox and signs callback proofs with ed25519. Decryption is
// not automatic: tests and the dev loop call Answer to obtain the cleartexts
// and proof for an outstanding request and then deliver them through the
// normal callback path, which keeps the asynchronous protocol observable.
type Local struct {
	boxKey  [32]byte
	signKey ed25519.PrivateKey
	pub     ed25519.PublicKey

	mu      sync.Mutex
	pending map[id.RequestID][]Handle
}

// NewLocal creates a local capability with fresh random keys.
func NewLocal() (*Local, error) {
	l := &Local{pending: make(map[id.RequestID][]Handle)}
	if _, err := rand.Read(l.boxKey[:]); err != nil {
		return nil, fmt.Errorf("generate box key: %w", err)
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	l.pub, l.signKey = pub, priv
	return l, nil
}

// Encrypt seals plaintext under the capability's symmetric key. The handle
// blob is nonce||box.
func (l *Local) Encrypt(_ context.Context, plaintext []byte) (Handle, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return Handle{}, fmt.Errorf("generate nonce: %w", err)
	}
	blob := secretbox.Seal(nonce[:], plaintext, &nonce, &l.boxKey)
	return Handle{ID: uuid.New(), Blob: blob}, nil
}

// Submit records the handles as an outstanding request and returns a fresh
// request ID. It never blocks on decryption.
func (l *Local) Submit(_ context.Context, handles []Handle) (id.RequestID, error) {
	if len(handles) == 0 {
		return id.RequestID{}, dErrors.New(dErrors.CodeInvalidInput, "no handles submitted")
	}
	requestID := id.RequestID(uuid.New())

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[requestID] = append([]Handle(nil), handles...)
	return requestID, nil
}

// Answer decrypts the handles of an outstanding request and returns the
// cleartexts with a signed proof, consuming the request. This is the "oracle
// side" of the protocol; callers deliver the result through the engine's
// callback entry point.
func (l *Local) Answer(requestID id.RequestID) ([][]byte, []byte, error) {
	l.mu.Lock()
	handles, ok := l.pending[requestID]
	if ok {
		delete(l.pending, requestID)
	}
	l.mu.Unlock()
	if !ok {
		return nil, nil, dErrors.New(dErrors.CodeUnknownRequest, "no outstanding request")
	}

	cleartexts := make([][]byte, 0, len(handles))
	for _, h := range handles {
		plaintext, err := l.open(h)
		if err != nil {
			return nil, nil, err
		}
		cleartexts = append(cleartexts, plaintext)
	}

	proof := ed25519.Sign(l.signKey, proofDigest(requestID, cleartexts))
	return cleartexts, proof, nil
}

// VerifyProof checks the ed25519 signature over the request ID and cleartexts.
func (l *Local) VerifyProof(requestID id.RequestID, cleartexts [][]byte, proof []byte) error {
	if !ed25519.Verify(l.pub, proofDigest(requestID, cleartexts), proof) {
		return dErrors.New(dErrors.CodeInvalidProof, "proof verification failed")
	}
	return nil
}

func (l *Local) open(h Handle) ([]byte, error) {
	if len(h.Blob) < 24 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ciphertext blob too short")
	}
	var nonce [24]byte
	copy(nonce[:], h.Blob[:24])
	plaintext, ok := secretbox.Open(nil, h.Blob[24:], &nonce, &l.boxKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ciphertext does not open under capability key")
	}
	return plaintext, nil
}

// proofDigest binds the proof to both the request ID and the exact cleartext
// sequence, length-prefixed so field boundaries cannot be shifted.
func proofDigest(requestID id.RequestID, cleartexts [][]byte) []byte {
	h := sha256.New()
	rid := uuid.UUID(requestID)
	h.Write(rid[:])
	var lenBuf [8]byte
	for _, c := range cleartexts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(c)))
		h.Write(lenBuf[:])
		h.Write(c)
	}
	return h.Sum(nil)
}
