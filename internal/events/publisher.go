package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher fans events out to a store. By default emission is synchronous;
// WithAsyncBuffer switches to a buffered channel drained by a background
// goroutine so hot paths never block on the sink. A full buffer drops the
// event with a warning rather than blocking, since events are notifications,
// not state.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// NewPublisher creates a publisher over the given sink.
func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		worker := NewWorker(store, p.inbox, logger)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = worker.Run(context.Background())
		}()
	}
	return p
}

// Emit records an event. A zero timestamp is stamped with the current time.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.Warn("event buffer full, dropping event", "kind", string(event.Kind))
		}
		return
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Error("failed to append event", "kind", string(event.Kind), "error", err)
	}
}

// Close stops the background drain, flushing buffered events first.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}
