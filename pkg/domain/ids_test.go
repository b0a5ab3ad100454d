package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aidledger/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRecordID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRecordID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRecordID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseRecordID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, valid.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

func TestParse_AllTypes(t *testing.T) {
	valid := uuid.New().String()

	t.Run("package id", func(t *testing.T) {
		id, err := ParsePackageID(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, id.String())
	})

	t.Run("verification id", func(t *testing.T) {
		id, err := ParseVerificationID(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, id.String())
	})

	t.Run("agency id", func(t *testing.T) {
		id, err := ParseAgencyID(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, id.String())
	})

	t.Run("request id", func(t *testing.T) {
		id, err := ParseRequestID(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, id.String())
	})
}

func TestZeroValueIsNil(t *testing.T) {
	assert.True(t, RecordID{}.IsNil())
	assert.True(t, VerificationID{}.IsNil())
	assert.True(t, AgencyID{}.IsNil())
	assert.False(t, NewRecordID().IsNil())
}
