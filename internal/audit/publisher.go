package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	id "sigil/pkg/domain"
	"sigil/pkg/platform/audit/outbox"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. When an outbox
// store is configured, every event is additionally spooled for Kafka delivery.
type Publisher struct {
	store  Store
	outbox outbox.Store
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithOutbox spools every emitted event into the given outbox store.
func WithOutbox(store outbox.Store) Option {
	return func(p *Publisher) {
		p.outbox = store
	}
}

// WithLogger sets a logger for outbox spool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists the event and, when configured, spools it into the outbox.
// An outbox spool failure is logged but does not fail the business operation:
// the audit store remains the source of truth.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.outbox != nil {
		payload, err := json.Marshal(event)
		if err == nil {
			entry := outbox.NewEntry("credential", event.Holder.String(), string(event.Action), payload)
			err = p.outbox.Append(ctx, entry)
		}
		if err != nil && p.logger != nil {
			p.logger.Error("failed to spool audit event to outbox",
				"error", err,
				"action", event.Action,
			)
		}
	}
	return nil
}

// List returns the audit trail touching the given holder.
func (p *Publisher) List(ctx context.Context, holder id.Address) ([]Event, error) {
	return p.store.ListByHolder(ctx, holder)
}
