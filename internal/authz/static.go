package authz

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

// Agency is a registered caller with a hashed API key and an operation
// allowlist.
type Agency struct {
	ID      id.AgencyID
	Name    string
	KeyHash string
	Allowed map[Operation]bool
}

// StaticPolicy is an in-memory agency registry and allowlist. It serves both
// as the policy gate and as the credential store for the token exchange.
type StaticPolicy struct {
	mu       sync.RWMutex
	agencies map[id.AgencyID]Agency
}

// NewStaticPolicy creates an empty policy; agencies are registered at startup.
func NewStaticPolicy() *StaticPolicy {
	return &StaticPolicy{agencies: make(map[id.AgencyID]Agency)}
}

// Register adds or replaces an agency.
func (p *StaticPolicy) Register(agency Agency) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agencies[agency.ID] = agency
}

// Authorize implements Policy. Unknown callers and disallowed operations are
// both plain denials; the caller learns nothing about which.
func (p *StaticPolicy) Authorize(_ context.Context, caller id.AgencyID, op Operation) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}

	p.mu.RLock()
	agency, ok := p.agencies[caller]
	p.mu.RUnlock()

	if !ok || !agency.Allowed[op] {
		return dErrors.New(dErrors.CodeUnauthorized, "operation not permitted")
	}
	return nil
}

// VerifyKey checks an agency API key against its stored bcrypt hash and
// returns the agency ID for token issuance.
func (p *StaticPolicy) VerifyKey(agencyID id.AgencyID, key string) (id.AgencyID, error) {
	p.mu.RLock()
	agency, ok := p.agencies[agencyID]
	p.mu.RUnlock()

	if !ok {
		return id.AgencyID{}, dErrors.New(dErrors.CodeUnauthorized, "unknown agency")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(agency.KeyHash), []byte(key)); err != nil {
		return id.AgencyID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return agency.ID, nil
}

// GenerateKey creates a cryptographically secure random API key.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashKey creates the bcrypt hash stored for an agency API key.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "key cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash key: %w", err)
	}
	return string(hashed), nil
}
