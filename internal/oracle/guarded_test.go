package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/circuit"
	"aidledger/pkg/platform/sentinel"
)

type flakyDecrypter struct {
	fail  bool
	calls int
}

func (f *flakyDecrypter) Submit(context.Context, []Handle) (id.RequestID, error) {
	f.calls++
	if f.fail {
		return id.RequestID{}, errors.New("capability unreachable")
	}
	return id.NewRequestID(), nil
}

func (f *flakyDecrypter) VerifyProof(id.RequestID, [][]byte, []byte) error { return nil }

func TestGuardedSubmit(t *testing.T) {
	inner := &flakyDecrypter{}
	breaker := circuit.New("capability", circuit.WithFailureThreshold(2))
	guarded := NewGuarded(inner, breaker,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRetryAfter(time.Minute),
	)

	clock := time.Now()
	guarded.now = func() time.Time { return clock }
	ctx := context.Background()

	t.Run("healthy capability passes through", func(t *testing.T) {
		requestID, err := guarded.Submit(ctx, nil)
		require.NoError(t, err)
		assert.False(t, requestID.IsNil())
	})

	t.Run("repeated failures open the circuit", func(t *testing.T) {
		inner.fail = true
		_, err := guarded.Submit(ctx, nil)
		require.Error(t, err)
		_, err = guarded.Submit(ctx, nil)
		require.Error(t, err)
		assert.True(t, breaker.IsOpen())

		// Open circuit short-circuits without touching the capability.
		before := inner.calls
		_, err = guarded.Submit(ctx, nil)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, before, inner.calls)
	})

	t.Run("recovered capability stays fenced until the retry interval", func(t *testing.T) {
		inner.fail = false
		clock = clock.Add(30 * time.Second)

		before := inner.calls
		_, err := guarded.Submit(ctx, nil)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, before, inner.calls)
		assert.True(t, breaker.IsOpen())
	})

	t.Run("probe after the interval closes the circuit", func(t *testing.T) {
		clock = clock.Add(time.Minute)

		requestID, err := guarded.Submit(ctx, nil)
		require.NoError(t, err)
		assert.False(t, requestID.IsNil())
		assert.False(t, breaker.IsOpen())

		// Closed again, traffic flows without waiting for probe slots.
		_, err = guarded.Submit(ctx, nil)
		require.NoError(t, err)
	})

	t.Run("failed probe re-arms the retry interval", func(t *testing.T) {
		inner.fail = true
		_, err := guarded.Submit(ctx, nil)
		require.Error(t, err)
		_, err = guarded.Submit(ctx, nil)
		require.Error(t, err)
		require.True(t, breaker.IsOpen())

		clock = clock.Add(2 * time.Minute)
		before := inner.calls
		_, err = guarded.Submit(ctx, nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, before+1, inner.calls)

		// The failed probe pushed the next slot out; calls short-circuit again.
		before = inner.calls
		_, err = guarded.Submit(ctx, nil)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, before, inner.calls)
	})
}
