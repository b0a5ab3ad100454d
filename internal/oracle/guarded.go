package oracle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/circuit"
	"aidledger/pkg/platform/sentinel"
)

const defaultRetryAfter = 30 * time.Second

// Guarded wraps a Decrypter with a circuit breaker. When the capability is
// failing, new submissions short-circuit with ErrUnavailable instead of piling
// onto a dead dependency. While open, one probe submission is let through per
// retry interval so a recovered capability closes the circuit again without
// operator intervention. Proof verification is pure local crypto and bypasses
// the breaker.
type Guarded struct {
	inner   Decrypter
	breaker *circuit.Breaker
	logger  *slog.Logger

	retryAfter time.Duration
	now        func() time.Time

	mu        sync.Mutex
	nextProbe time.Time
}

// GuardedOption configures a Guarded decrypter.
type GuardedOption func(*Guarded)

// WithRetryAfter sets how long an open circuit waits before letting a probe
// submission through.
func WithRetryAfter(d time.Duration) GuardedOption {
	return func(g *Guarded) { g.retryAfter = d }
}

// NewGuarded wraps a decrypter with the given breaker.
func NewGuarded(inner Decrypter, breaker *circuit.Breaker, logger *slog.Logger, opts ...GuardedOption) *Guarded {
	g := &Guarded{
		inner:      inner,
		breaker:    breaker,
		logger:     logger,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) Submit(ctx context.Context, handles []Handle) (id.RequestID, error) {
	if g.breaker.IsOpen() && !g.claimProbe() {
		return id.RequestID{}, sentinel.ErrUnavailable
	}

	requestID, err := g.inner.Submit(ctx, handles)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "decryption capability circuit opened",
				"breaker", g.breaker.Name(),
				"retry_after", g.retryAfter,
			)
		}
		if g.breaker.IsOpen() {
			g.deferProbe()
		}
		return id.RequestID{}, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "decryption capability circuit closed",
			"breaker", g.breaker.Name(),
		)
	}
	return requestID, nil
}

func (g *Guarded) VerifyProof(requestID id.RequestID, cleartexts [][]byte, proof []byte) error {
	return g.inner.VerifyProof(requestID, cleartexts, proof)
}

// claimProbe reports whether this call may probe the open circuit. The probe
// slot is claimed before the call so concurrent submissions cannot stampede a
// struggling capability.
func (g *Guarded) claimProbe() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.now().Before(g.nextProbe) {
		return false
	}
	g.nextProbe = g.now().Add(g.retryAfter)
	return true
}

func (g *Guarded) deferProbe() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextProbe = g.now().Add(g.retryAfter)
}
