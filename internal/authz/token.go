package authz

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

// TokenService issues and validates HMAC-signed agency bearer tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenService creates a token service with the given signing key and TTL.
func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), ttl: ttl}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue creates a signed token for an authenticated agency.
func (s *TokenService) Issue(agency id.AgencyID, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   agency.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		Issuer:    "aidledger",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning the agency ID.
// Implements the auth middleware's TokenValidator.
func (s *TokenService) ValidateToken(tokenString string) (id.AgencyID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return id.AgencyID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return id.AgencyID{}, dErrors.New(dErrors.CodeUnauthorized, "malformed token claims")
	}
	agency, err := id.ParseAgencyID(claims.Subject)
	if err != nil {
		return id.AgencyID{}, dErrors.New(dErrors.CodeUnauthorized, "malformed token subject")
	}
	return agency, nil
}
