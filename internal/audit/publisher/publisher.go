// Package publisher emits audit events to a store, synchronously by default
// or through a buffered channel when configured async. Async mode trades
// delivery guarantees for latency; use it only for trail events that may be
// reconstructed from the version chain.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"provena/internal/audit"
	"provena/pkg/domain"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox   chan audit.Event
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a channel of the
// given capacity. Events are dropped when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets a logger for drop and persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records an audit event. The ID, timestamp and severity are filled in
// when absent so call sites only state what happened.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = event.Action.DefaultSeverity()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"entity_id", event.EntityID,
		)
		return nil
	}
}

// List returns the trail for one entity.
func (p *Publisher) List(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error) {
	return p.store.ListByEntity(ctx, entityID)
}

// Close drains any buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.inbox == nil {
		return
	}
	close(p.inbox)
	<-p.done
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Warn("audit append failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
