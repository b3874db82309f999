package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	audit "claimbridge/pkg/platform/audit"
	txcontext "claimbridge/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const aggregateClaimRequest = "claim_request"

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and relayed to Kafka by the outbox worker.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Payload is the JSON body of an outbox row and of the relayed Kafka record.
type Payload struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Timestamp      string `json:"timestamp"`
	ClaimRequestID string `json:"claimRequestId"`
	Actor          string `json:"actor,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Action         string `json:"action"`
	ClaimTopic     uint64 `json:"claimTopic,omitempty"`
	Decision       string `json:"decision,omitempty"`
	Reason         string `json:"reason,omitempty"`
	TxHash         string `json:"txHash,omitempty"`
	RequestID      string `json:"requestId,omitempty"`
}

// Entry is an unpublished outbox row.
type Entry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Append writes an audit event to the outbox table. Inside a ledger
// transaction the row commits or rolls back with the state change.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	payload := Payload{
		ID:             eventID.String(),
		Category:       string(audit.AuditEvent(event.Action).Category()),
		Timestamp:      ts.UTC().Format(time.RFC3339Nano),
		ClaimRequestID: event.ClaimRequestID,
		Actor:          event.Actor,
		Subject:        event.Subject,
		Action:         event.Action,
		ClaimTopic:     event.ClaimTopic,
		Decision:       event.Decision,
		Reason:         event.Reason,
		TxHash:         event.TxHash,
		RequestID:      event.RequestID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateClaimRequest,
		event.ClaimRequestID,
		event.Action,
		body,
		ts,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByClaimRequest returns the events recorded for one claim request, oldest first.
func (s *Store) ListByClaimRequest(ctx context.Context, claimRequestID string) ([]audit.Event, error) {
	query := `
		SELECT payload FROM outbox
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY created_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, aggregateClaimRequest, claimRequestID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := decodeEvent(body)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// FetchUnpublished returns up to limit outbox rows not yet relayed, oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given outbox rows as relayed.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, v := range ids {
		strs[i] = v.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[]) AND published_at IS NULL`
	if _, err := s.db.ExecContext(ctx, query, at, pq.Array(strs)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func decodeEvent(body []byte) (audit.Event, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode audit timestamp: %w", err)
	}
	return audit.Event{
		Category:       audit.EventCategory(p.Category),
		Timestamp:      ts,
		ClaimRequestID: p.ClaimRequestID,
		Actor:          p.Actor,
		Subject:        p.Subject,
		Action:         p.Action,
		ClaimTopic:     p.ClaimTopic,
		Decision:       p.Decision,
		Reason:         p.Reason,
		TxHash:         p.TxHash,
		RequestID:      p.RequestID,
	}, nil
}
