// Package identity reads claims held by identity contracts and resolves
// wallets to their identity through the identity registry.
package identity

//go:generate mockgen -source=reader.go -destination=mocks/mocks.go -package=mocks Chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"claimbridge/internal/attestation"
	"claimbridge/internal/chain"
	"claimbridge/internal/publisher"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Chain is the contract read access the reader needs.
type Chain interface {
	ClaimIssuersForTopic(ctx context.Context, identity id.Address, topic id.ClaimTopic) ([]id.Address, error)
	GetClaim(ctx context.Context, identity, issuer id.Address, topic id.ClaimTopic) (*chain.Claim, error)
	IdentityOf(ctx context.Context, registry, wallet id.Address) (id.Address, error)
}

// Claim is an on-chain claim with its data field decoded when it was
// written by this service.
type Claim struct {
	chain.Claim
	Message             string
	IssuerSignedMessage string
	ReviewedAt          *time.Time
	// SignatureValid reports whether Signature recovers to Issuer over
	// IssuerSignedMessage.
	SignatureValid bool
}

type Reader struct {
	chain    Chain
	registry id.Address
	logger   *slog.Logger
}

type Option func(*Reader)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// New builds a reader. registry is the identity registry address and may be
// empty when wallet resolution is not needed.
func New(c Chain, registry id.Address, opts ...Option) *Reader {
	r := &Reader{chain: c, registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Claims returns the claims identity holds for topics. Topics without
// claims contribute nothing.
//
// Errors: CodeNotFound when identity has no contract code, CodeUnavailable
// when the node cannot be read.
func (r *Reader) Claims(ctx context.Context, identity id.Address, topics []id.ClaimTopic) ([]Claim, error) {
	var out []Claim
	for _, topic := range topics {
		issuers, err := r.chain.ClaimIssuersForTopic(ctx, identity, topic)
		if err != nil {
			return nil, translate(err)
		}
		for _, issuer := range issuers {
			c, err := r.chain.GetClaim(ctx, identity, issuer, topic)
			if err != nil {
				return nil, translate(err)
			}
			if c.Issuer.IsZero() {
				continue
			}
			out = append(out, decode(*c))
		}
	}
	return out, nil
}

// ResolveIdentity returns the identity contract registered for wallet.
//
// Errors: CodeNotFound when the wallet is not registered.
func (r *Reader) ResolveIdentity(ctx context.Context, wallet id.Address) (id.Address, error) {
	if r.registry == "" {
		return "", dErrors.New(dErrors.CodeValidation, "identity registry is not configured; pass identityAddress")
	}
	identity, err := r.chain.IdentityOf(ctx, r.registry, wallet)
	if err != nil {
		return "", translate(err)
	}
	if identity.IsZero() {
		return "", dErrors.New(dErrors.CodeNotFound, "wallet has no registered identity")
	}
	return identity, nil
}

func decode(c chain.Claim) Claim {
	out := Claim{Claim: c}
	message, signed, reviewedAt, err := publisher.DecodeClaimData(c.Data)
	if err != nil {
		return out
	}
	at := time.Unix(reviewedAt, 0).UTC()
	out.Message = message
	out.IssuerSignedMessage = signed
	out.ReviewedAt = &at
	out.SignatureValid = attestation.Verify(signed, hexutil.Encode(c.Signature), c.Issuer)
	return out
}

func translate(err error) error {
	switch {
	case errors.Is(err, chain.ErrNoContract):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "no identity contract at this address")
	case errors.Is(err, chain.ErrNotConfigured):
		return dErrors.Wrap(err, dErrors.CodeValidation, "contract address is not configured")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "chain node unavailable")
	}
}
