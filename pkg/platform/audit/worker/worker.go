// Package worker relays audit events from the Postgres outbox to Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"claimbridge/internal/platform/kafka"
	auditpg "claimbridge/pkg/platform/audit/store/postgres"
)

// Outbox is the slice of the audit store the relay needs.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]auditpg.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer sends a batch and returns only after every record is acknowledged.
type Producer interface {
	Publish(ctx context.Context, msgs []kafka.Message) error
}

// Metrics for the relay loop.
type Metrics struct {
	Relayed  prometheus.Counter
	Failures prometheus.Counter
	Lag      prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Relayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimbridge_outbox_relayed_total",
			Help: "Total number of outbox entries delivered to Kafka",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimbridge_outbox_relay_failures_total",
			Help: "Total number of failed relay batches",
		}),
		Lag: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "claimbridge_outbox_oldest_unpublished_seconds",
			Help: "Age of the oldest entry in the last fetched batch",
		}),
	}
}

func (m *Metrics) addRelayed(n int) {
	if m != nil {
		m.Relayed.Add(float64(n))
	}
}

func (m *Metrics) incFailures() {
	if m != nil {
		m.Failures.Inc()
	}
}

func (m *Metrics) setLag(seconds float64) {
	if m != nil {
		m.Lag.Set(seconds)
	}
}

// Worker polls the outbox and produces unpublished entries in creation order.
// Delivery is at least once: a crash between produce and mark re-sends the batch.
type Worker struct {
	outbox   Outbox
	producer Producer
	interval time.Duration
	batch    int
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func NewWorker(outbox Outbox, producer Producer, opts ...Option) *Worker {
	w := &Worker{
		outbox:   outbox,
		producer: producer,
		interval: 2 * time.Second,
		batch:    100,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Batch errors are logged and retried on
// the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		for {
			n, err := w.RelayOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.metrics.incFailures()
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
				}
				break
			}
			if n < w.batch {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce delivers one batch and returns how many entries were relayed.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.outbox.FetchUnpublished(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		w.metrics.setLag(0)
		return 0, nil
	}
	w.metrics.setLag(w.now().Sub(entries[0].CreatedAt).Seconds())

	msgs := make([]kafka.Message, len(entries))
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		msgs[i] = kafka.Message{
			Key:   e.AggregateID,
			Value: e.Payload,
			Headers: map[string]string{
				"event_type": e.EventType,
				"outbox_id":  e.ID.String(),
			},
		}
		ids[i] = e.ID
	}
	if err := w.producer.Publish(ctx, msgs); err != nil {
		return 0, err
	}
	if err := w.outbox.MarkPublished(ctx, ids, w.now()); err != nil {
		return 0, err
	}
	w.metrics.addRelayed(len(entries))
	return len(entries), nil
}
