// Package publisher writes approved claim requests to the requester's
// identity contract as addClaim transactions and confirms them.
//
// Publishing never touches the ledger. A failed attempt leaves the request
// approved and may be retried by the caller.
package publisher

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Chain,IdentityResolver,OpsTracker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"claimbridge/internal/chain"
	"claimbridge/internal/claimrequest/models"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	audit "claimbridge/pkg/platform/audit"
	"claimbridge/pkg/requestcontext"
)

// Chain is the node access publishing needs.
type Chain interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ClaimExists(ctx context.Context, identity, issuer id.Address, topic id.ClaimTopic) (bool, error)
}

// IdentityResolver maps a wallet to its identity contract.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, wallet id.Address) (id.Address, error)
}

// OpsTracker records publish outcomes on a best-effort basis.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

// Confirmation names how a mined transaction was confirmed.
type Confirmation string

const (
	ConfirmedByEvent       Confirmation = "event"
	ConfirmedByClaimExists Confirmation = "claim_exists"
)

// PublishReceipt is the outcome of a confirmed publish.
type PublishReceipt struct {
	RequestID    id.RequestID
	Identity     id.Address
	TxHash       common.Hash
	BlockNumber  uint64
	ClaimID      common.Hash
	Confirmation Confirmation
}

// Publisher submits addClaim transactions.
type Publisher struct {
	chain          Chain
	uriBase        string
	confirmTimeout time.Duration

	resolver IdentityResolver
	tracker  OpsTracker
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithIdentityResolver(r IdentityResolver) Option {
	return func(p *Publisher) { p.resolver = r }
}

func WithOpsTracker(t OpsTracker) Option {
	return func(p *Publisher) { p.tracker = t }
}

// WithDocumentURIBase sets the prefix for claim URIs of requests with a document.
func WithDocumentURIBase(base string) Option {
	return func(p *Publisher) { p.uriBase = base }
}

// WithConfirmTimeout bounds the wait for a receipt.
func WithConfirmTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.confirmTimeout = d
		}
	}
}

func New(node Chain, opts ...Option) *Publisher {
	p := &Publisher{
		chain:          node,
		uriBase:        "/api/download",
		confirmTimeout: 2 * time.Minute,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildPayload returns the addClaim arguments for an approved request.
func (p *Publisher) BuildPayload(req *models.ClaimRequest) (*ClaimPayload, error) {
	return BuildPayload(req, p.uriBase)
}

// Publish submits exactly one addClaim transaction for req to identity and
// waits for it to be confirmed. An empty identity is resolved from the
// requester's wallet when a resolver is configured.
//
// Errors: CodeInvalidState when req is not approved, CodeForbidden when the
// signer is not the requester, CodeValidation for unusable input and
// CodePublishFailed wrapping a *PublishError for chain failures.
func (p *Publisher) Publish(ctx context.Context, req *models.ClaimRequest, identity id.Address, signer Signer) (*PublishReceipt, error) {
	payload, err := p.BuildPayload(req)
	if err != nil {
		return nil, err
	}
	identity, err = p.identityFor(ctx, req, identity)
	if err != nil {
		return nil, err
	}

	signerAddr, err := signer.Address(ctx)
	if err != nil {
		return nil, err
	}
	if !signerAddr.Equal(req.RequesterAddress) {
		p.track(ctx, req, audit.EventClaimPublishFailed, "signer is not the requester", common.Hash{})
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requester may publish this claim")
	}

	calldata, err := payload.Calldata()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode addClaim")
	}

	start := time.Now()
	tx, err := signer.SignAddClaim(ctx, identity.Common(), calldata)
	if err != nil {
		return nil, p.fail(ctx, req, start, classify(err, common.Hash{}))
	}
	txHash := tx.Hash()
	if err := p.chain.SendTransaction(ctx, tx); err != nil {
		return nil, p.fail(ctx, req, start, classify(err, txHash))
	}
	p.logger.InfoContext(ctx, "claim transaction submitted",
		"request_id", req.ID.String(),
		"identity", identity.String(),
		"tx_hash", txHash.Hex(),
	)

	receipt, err := p.confirm(ctx, req, identity, txHash)
	if err != nil {
		return nil, p.fail(ctx, req, start, err)
	}
	p.metrics.observe("confirmed", time.Since(start).Seconds())
	p.track(ctx, req, audit.EventClaimPublished, string(receipt.Confirmation), txHash)
	p.logger.InfoContext(ctx, "claim published",
		"request_id", req.ID.String(),
		"tx_hash", txHash.Hex(),
		"block_number", receipt.BlockNumber,
		"confirmation", string(receipt.Confirmation),
	)
	return receipt, nil
}

func (p *Publisher) identityFor(ctx context.Context, req *models.ClaimRequest, identity id.Address) (id.Address, error) {
	if identity != "" {
		parsed, err := id.ParseAddress(string(identity))
		if err != nil || parsed.IsZero() {
			return "", dErrors.New(dErrors.CodeValidation, "identityAddress is invalid")
		}
		return parsed, nil
	}
	if p.resolver == nil {
		return "", dErrors.New(dErrors.CodeValidation, "identityAddress is required")
	}
	return p.resolver.ResolveIdentity(ctx, req.RequesterAddress)
}

// confirm waits for the receipt and checks the claim landed: first via the
// ClaimAdded/ClaimChanged log, then with a single claimExists read.
func (p *Publisher) confirm(ctx context.Context, req *models.ClaimRequest, identity id.Address, txHash common.Hash) (*PublishReceipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	receipt, err := p.chain.WaitMined(waitCtx, txHash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, failed(KindUnconfirmed, "no receipt before the wait ended; the transaction may still be mined", txHash, err)
		}
		return nil, classify(err, txHash)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, failed(KindRevert, "transaction reverted on-chain", txHash, nil)
	}

	out := &PublishReceipt{
		RequestID: req.ID,
		Identity:  identity,
		TxHash:    txHash,
		ClaimID:   chain.ClaimID(req.IssuerAddress, req.ClaimTopic),
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if event, ok := chain.FindClaimEvent(receipt, identity, req.IssuerAddress, req.ClaimTopic); ok {
		out.ClaimID = event.ClaimID
		out.Confirmation = ConfirmedByEvent
		return out, nil
	}

	exists, err := p.chain.ClaimExists(ctx, identity, req.IssuerAddress, req.ClaimTopic)
	if err != nil {
		return nil, failed(KindUnknown, "transaction mined but the claim could not be confirmed", txHash, err)
	}
	if !exists {
		return nil, failed(KindUnknown, "transaction mined but the claim is not on the identity", txHash, nil)
	}
	out.Confirmation = ConfirmedByClaimExists
	return out, nil
}

func (p *Publisher) fail(ctx context.Context, req *models.ClaimRequest, start time.Time, err error) error {
	outcome, reason := "error", err.Error()
	var txHash common.Hash
	if pe, ok := AsPublishError(err); ok {
		outcome, reason, txHash = string(pe.Kind), pe.Reason, pe.TxHash
	}
	p.metrics.observe(outcome, time.Since(start).Seconds())
	p.track(ctx, req, audit.EventClaimPublishFailed, reason, txHash)
	p.logger.WarnContext(ctx, "claim publish failed",
		"request_id", req.ID.String(),
		"outcome", outcome,
		"error", err,
	)
	return err
}

func (p *Publisher) track(ctx context.Context, req *models.ClaimRequest, action audit.AuditEvent, reason string, txHash common.Hash) {
	if p.tracker == nil {
		return
	}
	event := audit.OpsEvent{
		Timestamp:      requestcontext.Now(ctx),
		ClaimRequestID: req.ID.String(),
		Actor:          req.RequesterAddress.String(),
		Action:         action,
		Reason:         reason,
		RequestID:      requestcontext.RequestID(ctx),
	}
	if txHash != (common.Hash{}) {
		event.TxHash = txHash.Hex()
	}
	p.tracker.Track(ctx, event)
}
