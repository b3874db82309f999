// Package ops provides a best-effort audit tracker. Failures are logged and
// counted but never returned, so an audit outage cannot change the outcome of
// the operation being audited.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "claimbridge/pkg/platform/audit"
)

// Tracker writes operational and security events behind a circuit breaker.
type Tracker struct {
	store   audit.Store
	breaker *CircuitBreaker
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Tracker.
type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(t *Tracker) { t.breaker = cb }
}

// New creates a tracker over store.
func New(store audit.Store, opts ...Option) *Tracker {
	t := &Tracker{store: store, breaker: NewCircuitBreaker(5, 30*time.Second)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track persists event if the breaker allows it.
func (t *Tracker) Track(ctx context.Context, event audit.OpsEvent) {
	if !t.breaker.Allow() {
		t.metrics.IncCircuitBreakerDropped()
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := t.store.Append(ctx, event.ToEvent()); err != nil {
		t.breaker.RecordFailure()
		t.metrics.IncPersistFailures()
		t.metrics.SetCircuitBreakerState(t.breaker.IsOpen())
		if t.logger != nil {
			t.logger.WarnContext(ctx, "ops audit event dropped",
				"action", event.Action,
				"claim_request_id", event.ClaimRequestID,
				"error", err,
			)
		}
		return
	}
	t.breaker.RecordSuccess()
	t.metrics.SetCircuitBreakerState(false)
	t.metrics.IncTracked()
}
