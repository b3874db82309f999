// Package compliance provides a fail-closed audit publisher for lifecycle events.
//
// Events are written synchronously to the store; when the ledger runs on
// Postgres the store joins the ledger transaction through context, so the
// audit row and the state change commit or roll back together. If the write
// fails, Emit returns an error and the calling operation MUST fail.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "claimbridge/pkg/platform/audit"
	"claimbridge/pkg/requestcontext"
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New creates a compliance publisher over store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes a compliance event. A returned error means the
// caller must abort its operation. Missing timestamps and correlation ids are
// taken from the request context.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	start := time.Now()

	switch {
	case event.ClaimRequestID == "":
		return fmt.Errorf("compliance event requires ClaimRequestID")
	case event.Action == "":
		return fmt.Errorf("compliance event requires Action")
	case event.Action.Category() != audit.CategoryCompliance:
		return fmt.Errorf("%s is not a compliance action", event.Action)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event.ToEvent()); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"claim_request_id", event.ClaimRequestID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted()
	return nil
}
