package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so stores
// and sinks can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers lifecycle changes with evidentiary weight:
	// request creation and the issuer's decision. Persisted fail-closed.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected attestations and access violations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers publish attempts and other routine activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventClaimRequestCreated  AuditEvent = "claim_request_created"
	EventClaimRequestApproved AuditEvent = "claim_request_approved"
	EventClaimRequestRejected AuditEvent = "claim_request_rejected"
	EventSignatureRejected    AuditEvent = "signature_rejected"
	EventClaimPublished       AuditEvent = "claim_published"
	EventClaimPublishFailed   AuditEvent = "claim_publish_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventClaimRequestCreated:  CategoryCompliance,
	EventClaimRequestApproved: CategoryCompliance,
	EventClaimRequestRejected: CategoryCompliance,
	EventSignatureRejected:    CategorySecurity,
	EventClaimPublished:       CategoryOperations,
	EventClaimPublishFailed:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is the transport-agnostic record every store accepts.
type Event struct {
	Category       EventCategory
	Timestamp      time.Time
	ClaimRequestID string // aggregate id
	Actor          string // address that caused the event
	Subject        string // counterparty address, when there is one
	Action         string
	ClaimTopic     uint64
	Decision       string
	Reason         string
	TxHash         string
	RequestID      string // HTTP correlation id
}

// ComplianceEvent captures lifecycle changes that must never be lost.
type ComplianceEvent struct {
	Timestamp      time.Time
	ClaimRequestID string
	Actor          string
	Subject        string
	Action         AuditEvent
	ClaimTopic     uint64
	Decision       string
	RequestID      string
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the store representation.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:       CategoryCompliance,
		Timestamp:      e.Timestamp,
		ClaimRequestID: e.ClaimRequestID,
		Actor:          e.Actor,
		Subject:        e.Subject,
		Action:         string(e.Action),
		ClaimTopic:     e.ClaimTopic,
		Decision:       e.Decision,
		RequestID:      e.RequestID,
	}
}

// OpsEvent captures best-effort operational facts such as publish outcomes.
type OpsEvent struct {
	Timestamp      time.Time
	ClaimRequestID string
	Actor          string
	Action         AuditEvent
	Reason         string
	TxHash         string
	RequestID      string
}

// ToEvent converts to the store representation, deriving the category from the action.
func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:       e.Action.Category(),
		Timestamp:      e.Timestamp,
		ClaimRequestID: e.ClaimRequestID,
		Actor:          e.Actor,
		Action:         string(e.Action),
		Reason:         e.Reason,
		TxHash:         e.TxHash,
		RequestID:      e.RequestID,
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
