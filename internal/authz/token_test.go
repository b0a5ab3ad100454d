package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-signing-key", time.Hour)
	agency := id.NewAgencyID()

	token, err := svc.Issue(agency, time.Now())
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, agency, got)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewTokenService("test-signing-key", time.Hour)
	agency := id.NewAgencyID()

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.Issue(agency, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		other := NewTokenService("other-key", time.Hour)
		token, err := other.Issue(agency, time.Now())
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
