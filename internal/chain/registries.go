package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	id "claimbridge/pkg/domain"
)

// IsTrustedIssuer reads TrustedIssuersRegistry.isTrustedIssuer.
func (g *Gateway) IsTrustedIssuer(ctx context.Context, registry, issuer id.Address) (bool, error) {
	out, err := g.call(ctx, TrustedIssuersABI, registry.Common(), "isTrustedIssuer", issuer.Common())
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// HasClaimTopic reads TrustedIssuersRegistry.hasClaimTopic.
func (g *Gateway) HasClaimTopic(ctx context.Context, registry, issuer id.Address, topic id.ClaimTopic) (bool, error) {
	out, err := g.call(ctx, TrustedIssuersABI, registry.Common(), "hasClaimTopic", issuer.Common(), topicInt(topic))
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// TrustedIssuers reads TrustedIssuersRegistry.getTrustedIssuers.
func (g *Gateway) TrustedIssuers(ctx context.Context, registry id.Address) ([]id.Address, error) {
	out, err := g.call(ctx, TrustedIssuersABI, registry.Common(), "getTrustedIssuers")
	if err != nil {
		return nil, err
	}
	return toAddresses(*abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)), nil
}

// IssuerClaimTopics reads TrustedIssuersRegistry.getIssuerClaimTopics.
func (g *Gateway) IssuerClaimTopics(ctx context.Context, registry, issuer id.Address) ([]id.ClaimTopic, error) {
	out, err := g.call(ctx, TrustedIssuersABI, registry.Common(), "getIssuerClaimTopics", issuer.Common())
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	topics := make([]id.ClaimTopic, 0, len(raw))
	for _, t := range raw {
		if t.IsUint64() && t.Sign() > 0 {
			topics = append(topics, id.ClaimTopic(t.Uint64()))
		}
	}
	return topics, nil
}

// IdentityOf reads IdentityRegistry.getIdentity. A zero address means unregistered.
func (g *Gateway) IdentityOf(ctx context.Context, registry, wallet id.Address) (id.Address, error) {
	out, err := g.call(ctx, IdentityRegistryABI, registry.Common(), "getIdentity", wallet.Common())
	if err != nil {
		return "", err
	}
	return id.AddressFromCommon(*abi.ConvertType(out[0], new(common.Address)).(*common.Address)), nil
}

// IsRegistered reads IdentityRegistry.isRegistered.
func (g *Gateway) IsRegistered(ctx context.Context, registry, wallet id.Address) (bool, error) {
	out, err := g.call(ctx, IdentityRegistryABI, registry.Common(), "isRegistered", wallet.Common())
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
