package models

import (
	"strings"
	"time"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

const (
	MaxMessageLength  = 2000
	MaxReviewLength   = 2000
	MaxDocumentName   = 255
	MaxDocumentBytes  = 50 << 20
	maxSignedMsgBytes = 1024
)

// Status is the lifecycle state of a claim request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a status from external input.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be one of pending, approved, rejected")
	}
}

// CanTransitionTo allows only pending -> approved and pending -> rejected.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) String() string { return string(s) }

// Document references a file held by external storage. The ledger never reads its bytes.
type Document struct {
	FileID      string
	Name        string
	ContentType string
	Size        int64
}

// Validate checks the reference is usable as a claim URI component.
func (d *Document) Validate() error {
	if d == nil {
		return nil
	}
	d.FileID = strings.TrimSpace(d.FileID)
	if d.FileID == "" {
		return dErrors.New(dErrors.CodeValidation, "document.fileId is required when a document is attached")
	}
	if strings.ContainsAny(d.FileID, "/?#") {
		return dErrors.New(dErrors.CodeValidation, "document.fileId contains invalid characters")
	}
	if len(d.Name) > MaxDocumentName {
		return dErrors.New(dErrors.CodeValidation, "document.name is too long")
	}
	if d.Size < 0 || d.Size > MaxDocumentBytes {
		return dErrors.New(dErrors.CodeValidation, "document.size is out of range")
	}
	return nil
}

// ClaimRequest is the aggregate root of the claim lifecycle.
//
// Invariants:
//   - Status moves pending -> approved | rejected exactly once and never back
//   - IssuerSignedMessage, IssuerSignature and ReviewedAt are set iff Status != pending
//   - ID, addresses, topic, message, document, SignedMessage and Signature are
//     immutable after construction
//   - Addresses are stored lowercase
type ClaimRequest struct {
	ID                      id.RequestID
	RequesterAddress        id.Address
	IssuerAddress           id.Address
	ClaimTopic              id.ClaimTopic
	Message                 string
	Document                *Document
	Status                  Status
	SignedMessage           string
	Signature               string
	RequesterSignatureValid bool
	IssuerSignedMessage     string
	IssuerSignature         string
	ReviewNote              string
	CreatedAt               time.Time
	UpdatedAt               time.Time
	ReviewedAt              *time.Time
}

// NewClaimRequestParams carries the requester-supplied fields.
type NewClaimRequestParams struct {
	RequesterAddress        id.Address
	IssuerAddress           id.Address
	ClaimTopic              id.ClaimTopic
	Message                 string
	Document                *Document
	SignedMessage           string
	Signature               string
	RequesterSignatureValid bool
}

// NewClaimRequest builds a pending request, enforcing the construction invariants.
func NewClaimRequest(requestID id.RequestID, p NewClaimRequestParams, now time.Time) (*ClaimRequest, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	requester, err := id.ParseAddress(string(p.RequesterAddress))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "requesterAddress is invalid")
	}
	issuer, err := id.ParseAddress(string(p.IssuerAddress))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "issuerAddress is invalid")
	}
	if requester == issuer {
		return nil, dErrors.New(dErrors.CodeValidation, "requester and issuer must differ")
	}
	if p.ClaimTopic == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "claimTopic is required")
	}
	if strings.TrimSpace(p.SignedMessage) == "" || strings.TrimSpace(p.Signature) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "signedMessage and signature are required")
	}
	if len(p.SignedMessage) > maxSignedMsgBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "signedMessage is too long")
	}
	if len(p.Message) > MaxMessageLength {
		return nil, dErrors.New(dErrors.CodeValidation, "message must be at most 2000 characters")
	}
	var doc *Document
	if p.Document != nil {
		d := *p.Document
		if err := d.Validate(); err != nil {
			return nil, err
		}
		doc = &d
	}

	return &ClaimRequest{
		ID:                      requestID,
		RequesterAddress:        requester,
		IssuerAddress:           issuer,
		ClaimTopic:              p.ClaimTopic,
		Message:                 p.Message,
		Document:                doc,
		Status:                  StatusPending,
		SignedMessage:           p.SignedMessage,
		Signature:               p.Signature,
		RequesterSignatureValid: p.RequesterSignatureValid,
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}

// Review is the patch applied by the single allowed transition.
type Review struct {
	Status              Status
	IssuerSignedMessage string
	IssuerSignature     string
	ReviewNote          string
	ReviewedAt          time.Time
}

// Validate checks the patch itself, independent of the current record.
func (rv Review) Validate() error {
	if rv.Status != StatusApproved && rv.Status != StatusRejected {
		return dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}
	if strings.TrimSpace(rv.IssuerSignedMessage) == "" || strings.TrimSpace(rv.IssuerSignature) == "" {
		return dErrors.New(dErrors.CodeValidation, "issuerSignedMessage and issuerSignature are required")
	}
	if len(rv.IssuerSignedMessage) > maxSignedMsgBytes {
		return dErrors.New(dErrors.CodeValidation, "issuerSignedMessage is too long")
	}
	if len(rv.ReviewNote) > MaxReviewLength {
		return dErrors.New(dErrors.CodeValidation, "reviewNote must be at most 2000 characters")
	}
	if rv.ReviewedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "reviewedAt is required")
	}
	return nil
}

// CanReview reports whether the record may still be reviewed.
func (r *ClaimRequest) CanReview() error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidState, "claim request already reviewed")
	}
	return nil
}

// ApplyReview mutates the record in place. Stores call it only after winning
// the pending check.
func (r *ClaimRequest) ApplyReview(rv Review) {
	reviewedAt := rv.ReviewedAt
	r.Status = rv.Status
	r.IssuerSignedMessage = rv.IssuerSignedMessage
	r.IssuerSignature = rv.IssuerSignature
	r.ReviewNote = rv.ReviewNote
	r.ReviewedAt = &reviewedAt
	r.UpdatedAt = reviewedAt
}

// IsPublishable reports whether the record can be written on-chain.
func (r *ClaimRequest) IsPublishable() bool {
	return r.Status == StatusApproved && r.IssuerSignature != "" && r.ReviewedAt != nil
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (r *ClaimRequest) Clone() *ClaimRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.Document != nil {
		d := *r.Document
		c.Document = &d
	}
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}
