// Package service implements the claim request ledger: creation, queries and
// the single pending -> approved | rejected transition gated by the issuer's
// signature.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Attestor,AuditPublisher,SecurityTracker,IssuerChecker,TxRunner

import (
	"context"
	"errors"
	"log/slog"

	"claimbridge/internal/attestation"
	"claimbridge/internal/claimrequest/models"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	audit "claimbridge/pkg/platform/audit"
	"claimbridge/pkg/platform/sentinel"
	"claimbridge/pkg/requestcontext"
)

// Store persists claim requests. Implementations return sentinel errors.
type Store interface {
	Insert(ctx context.Context, r *models.ClaimRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.ClaimRequest, error)
	Find(ctx context.Context, filter models.ListFilter) ([]*models.ClaimRequest, error)
	TransitionIfPending(ctx context.Context, requestID id.RequestID, review models.Review) (*models.ClaimRequest, error)
}

// Attestor verifies requester and issuer signatures over canonical messages.
type Attestor interface {
	VerifyRequester(message, signature string, requester, issuer id.Address, topic id.ClaimTopic) error
	VerifyDecision(message, signature string, issuer id.Address, requestID id.RequestID, decision attestation.Decision) error
	Recover(message, signature string) (id.Address, error)
}

// AuditPublisher writes fail-closed compliance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// SecurityTracker records rejected attestations on a best-effort basis.
type SecurityTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

// IssuerChecker answers whether an issuer is trusted for a topic.
type IssuerChecker interface {
	IsTrustedFor(ctx context.Context, issuer id.Address, topic id.ClaimTopic) (bool, error)
}

// TxRunner runs fn in a transaction shared by the store and the audit outbox.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SignaturePolicy decides what Create does with a requester signature that
// does not verify.
type SignaturePolicy string

const (
	// PolicyEnforce rejects the request.
	PolicyEnforce SignaturePolicy = "enforce"
	// PolicyRecord stores the request flagged RequesterSignatureValid=false.
	PolicyRecord SignaturePolicy = "record"
)

// Service is the request ledger.
type Service struct {
	store    Store
	attestor Attestor
	auditor  AuditPublisher
	tx       TxRunner

	security SecurityTracker
	issuers  IssuerChecker
	policy   SignaturePolicy
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSecurityTracker(t SecurityTracker) Option {
	return func(s *Service) { s.security = t }
}

// WithTrustedIssuerGate makes Create require an issuer trusted for the topic.
func WithTrustedIssuerGate(c IssuerChecker) Option {
	return func(s *Service) { s.issuers = c }
}

func WithSignaturePolicy(p SignaturePolicy) Option {
	return func(s *Service) {
		if p == PolicyRecord {
			s.policy = PolicyRecord
		}
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

// New creates the ledger service. Without WithTxRunner operations run directly.
func New(store Store, attestor Attestor, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:    store,
		attestor: attestor,
		auditor:  auditor,
		tx:       directRunner{},
		policy:   PolicyEnforce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CreateRequest carries the requester's submission.
type CreateRequest struct {
	RequesterAddress id.Address
	IssuerAddress    id.Address
	ClaimTopic       id.ClaimTopic
	Message          string
	Document         *models.Document
	SignedMessage    string
	Signature        string
}

// Create validates and stores a new pending claim request.
//
// Errors:
//   - CodeValidation for missing or malformed fields, or an untrusted issuer
//   - CodeUnauthorized when the requester signature fails under PolicyEnforce
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.ClaimRequest, error) {
	now := requestcontext.Now(ctx)
	params := models.NewClaimRequestParams{
		RequesterAddress: req.RequesterAddress,
		IssuerAddress:    req.IssuerAddress,
		ClaimTopic:       req.ClaimTopic,
		Message:          req.Message,
		Document:         req.Document,
		SignedMessage:    req.SignedMessage,
		Signature:        req.Signature,
	}
	record, err := models.NewClaimRequest(id.NewRequestID(), params, now)
	if err != nil {
		return nil, err
	}

	if err := s.attestor.VerifyRequester(record.SignedMessage, record.Signature, record.RequesterAddress, record.IssuerAddress, record.ClaimTopic); err != nil {
		s.metrics.IncSignatureRejected("requester")
		s.trackRejected(ctx, record.ID, record.RequesterAddress, err)
		if s.policy == PolicyEnforce {
			return nil, err
		}
		s.logger.WarnContext(ctx, "recording claim request with invalid requester signature",
			"request_id", requestcontext.RequestID(ctx),
			"claim_request_id", record.ID.String(),
			"error", err,
		)
	} else {
		record.RequesterSignatureValid = true
	}

	if s.issuers != nil {
		trusted, err := s.issuers.IsTrustedFor(ctx, record.IssuerAddress, record.ClaimTopic)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check issuer trust")
		}
		if !trusted {
			return nil, dErrors.New(dErrors.CodeValidation, "issuer is not trusted for claim topic "+record.ClaimTopic.String())
		}
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, record); err != nil {
			return err
		}
		return s.auditor.Emit(ctx, audit.ComplianceEvent{
			Timestamp:      now,
			ClaimRequestID: record.ID.String(),
			Actor:          record.RequesterAddress.String(),
			Subject:        record.IssuerAddress.String(),
			Action:         audit.EventClaimRequestCreated,
			ClaimTopic:     record.ClaimTopic.Uint64(),
			RequestID:      requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "claim request already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store claim request")
	}

	s.metrics.IncCreated()
	s.logger.InfoContext(ctx, "claim request created",
		"request_id", requestcontext.RequestID(ctx),
		"claim_request_id", record.ID.String(),
		"requester", record.RequesterAddress.String(),
		"issuer", record.IssuerAddress.String(),
		"claim_topic", record.ClaimTopic.Uint64(),
	)
	return record, nil
}

// Get returns a claim request by id.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.ClaimRequest, error) {
	record, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim request")
	}
	return record, nil
}

// List returns requests matching every set filter, newest first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.ClaimRequest, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	records, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claim requests")
	}
	return records, nil
}

// ReviewRequest carries the issuer's decision.
type ReviewRequest struct {
	ID                  id.RequestID
	Decision            attestation.Decision
	IssuerSignedMessage string
	IssuerSignature     string
	ReviewNote          string
}

// Review applies the issuer's decision to a pending request.
//
// Errors:
//   - CodeNotFound when the id is unknown
//   - CodeInvalidState when the request was already reviewed, including a lost race
//   - CodeUnauthorized when the issuer signature or decision message does not verify
//   - CodeValidation for a malformed patch
func (s *Service) Review(ctx context.Context, req ReviewRequest) (*models.ClaimRequest, error) {
	now := requestcontext.Now(ctx)
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := current.CanReview(); err != nil {
		return nil, err
	}

	review := models.Review{
		Status:              models.Status(req.Decision),
		IssuerSignedMessage: req.IssuerSignedMessage,
		IssuerSignature:     req.IssuerSignature,
		ReviewNote:          req.ReviewNote,
		ReviewedAt:          now,
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if err := s.attestor.VerifyDecision(req.IssuerSignedMessage, req.IssuerSignature, current.IssuerAddress, current.ID, req.Decision); err != nil {
		s.metrics.IncSignatureRejected("issuer")
		s.trackRejected(ctx, current.ID, current.IssuerAddress, err)
		return nil, err
	}

	var updated *models.ClaimRequest
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.store.TransitionIfPending(ctx, req.ID, review)
		if err != nil {
			return err
		}
		return s.auditor.Emit(ctx, audit.ComplianceEvent{
			Timestamp:      now,
			ClaimRequestID: updated.ID.String(),
			Actor:          updated.IssuerAddress.String(),
			Subject:        updated.RequesterAddress.String(),
			Action:         reviewEvent(updated.Status),
			ClaimTopic:     updated.ClaimTopic.Uint64(),
			Decision:       string(updated.Status),
			RequestID:      requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "claim request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			s.metrics.IncReviewConflict()
			return nil, dErrors.New(dErrors.CodeInvalidState, "claim request already reviewed")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to review claim request")
		}
	}

	s.metrics.IncReviewed(string(updated.Status))
	s.logger.InfoContext(ctx, "claim request reviewed",
		"request_id", requestcontext.RequestID(ctx),
		"claim_request_id", updated.ID.String(),
		"decision", string(updated.Status),
	)
	return updated, nil
}

func reviewEvent(status models.Status) audit.AuditEvent {
	if status == models.StatusApproved {
		return audit.EventClaimRequestApproved
	}
	return audit.EventClaimRequestRejected
}

func (s *Service) trackRejected(ctx context.Context, requestID id.RequestID, actor id.Address, cause error) {
	if s.security == nil {
		return
	}
	s.security.Track(ctx, audit.OpsEvent{
		Timestamp:      requestcontext.Now(ctx),
		ClaimRequestID: requestID.String(),
		Actor:          actor.String(),
		Action:         audit.EventSignatureRejected,
		Reason:         cause.Error(),
		RequestID:      requestcontext.RequestID(ctx),
	})
}

// AttestationReport re-derives both attestations from a stored record.
type AttestationReport struct {
	RequestID          id.RequestID
	Status             models.Status
	RequesterAddress   id.Address
	RecoveredRequester id.Address
	RequesterValid     bool
	RequesterProblem   string
	StoredAsValid      bool
	IssuerAddress      id.Address
	RecoveredIssuer    id.Address
	IssuerValid        bool
	IssuerProblem      string
}

// VerifyAttestations recomputes signature validity for an existing request.
func (s *Service) VerifyAttestations(ctx context.Context, requestID id.RequestID) (*AttestationReport, error) {
	record, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	report := &AttestationReport{
		RequestID:        record.ID,
		Status:           record.Status,
		RequesterAddress: record.RequesterAddress,
		StoredAsValid:    record.RequesterSignatureValid,
		IssuerAddress:    record.IssuerAddress,
	}

	if addr, err := s.attestor.Recover(record.SignedMessage, record.Signature); err == nil {
		report.RecoveredRequester = addr
	}
	if err := s.attestor.VerifyRequester(record.SignedMessage, record.Signature, record.RequesterAddress, record.IssuerAddress, record.ClaimTopic); err != nil {
		report.RequesterProblem = problem(err)
	} else {
		report.RequesterValid = true
	}

	if record.Status.IsTerminal() {
		if addr, err := s.attestor.Recover(record.IssuerSignedMessage, record.IssuerSignature); err == nil {
			report.RecoveredIssuer = addr
		}
		decision := attestation.Decision(record.Status)
		if err := s.attestor.VerifyDecision(record.IssuerSignedMessage, record.IssuerSignature, record.IssuerAddress, record.ID, decision); err != nil {
			report.IssuerProblem = problem(err)
		} else {
			report.IssuerValid = true
		}
	}
	return report, nil
}

func problem(err error) string {
	if de, ok := dErrors.From(err); ok {
		return de.Message
	}
	return err.Error()
}
