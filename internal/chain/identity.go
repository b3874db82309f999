package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	id "claimbridge/pkg/domain"
)

// SchemeECDSA is the claim scheme for secp256k1 issuer signatures.
const SchemeECDSA uint64 = 1

// Claim is a claim as stored on an identity contract.
type Claim struct {
	Topic     id.ClaimTopic
	Scheme    uint64
	Issuer    id.Address
	Signature []byte
	Data      []byte
	URI       string
}

// ClaimEvent is a decoded ClaimAdded or ClaimChanged log.
type ClaimEvent struct {
	Name     string
	ClaimID  common.Hash
	Topic    id.ClaimTopic
	Issuer   id.Address
	Identity id.Address
}

// AddClaimInput is the argument tuple of addClaim.
type AddClaimInput struct {
	Topic     id.ClaimTopic
	Scheme    uint64
	Issuer    id.Address
	Signature []byte
	Data      []byte
	URI       string
}

// PackAddClaim returns the calldata for identity.addClaim.
func PackAddClaim(in AddClaimInput) ([]byte, error) {
	data, err := IdentityABI.Pack("addClaim",
		new(big.Int).SetUint64(in.Topic.Uint64()),
		new(big.Int).SetUint64(in.Scheme),
		in.Issuer.Common(),
		in.Signature,
		in.Data,
		in.URI,
	)
	if err != nil {
		return nil, fmt.Errorf("pack addClaim: %w", err)
	}
	return data, nil
}

// ClaimID derives the identity contract's claim key keccak256(abi.encode(issuer, topic)).
func ClaimID(issuer id.Address, topic id.ClaimTopic) common.Hash {
	addressType, _ := abi.NewType("address", "", nil)
	uintType, _ := abi.NewType("uint256", "", nil)
	args := abi.Arguments{{Type: addressType}, {Type: uintType}}
	packed, err := args.Pack(issuer.Common(), new(big.Int).SetUint64(topic.Uint64()))
	if err != nil {
		panic("chain: pack claim id: " + err.Error())
	}
	return crypto.Keccak256Hash(packed)
}

// ClaimExists asks the identity contract whether issuer holds a claim for topic.
func (g *Gateway) ClaimExists(ctx context.Context, identity, issuer id.Address, topic id.ClaimTopic) (bool, error) {
	out, err := g.call(ctx, IdentityABI, identity.Common(), "claimExists", topicInt(topic), issuer.Common())
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GetClaim reads one claim. A zero issuer in the result means no claim.
func (g *Gateway) GetClaim(ctx context.Context, identity, issuer id.Address, topic id.ClaimTopic) (*Claim, error) {
	out, err := g.call(ctx, IdentityABI, identity.Common(), "getClaim", topicInt(topic), issuer.Common())
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("getClaim: unexpected output length %d", len(out))
	}
	claimTopic := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	scheme := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	return &Claim{
		Topic:     id.ClaimTopic(claimTopic.Uint64()),
		Scheme:    scheme.Uint64(),
		Issuer:    id.AddressFromCommon(*abi.ConvertType(out[2], new(common.Address)).(*common.Address)),
		Signature: *abi.ConvertType(out[3], new([]byte)).(*[]byte),
		Data:      *abi.ConvertType(out[4], new([]byte)).(*[]byte),
		URI:       *abi.ConvertType(out[5], new(string)).(*string),
	}, nil
}

// ClaimIssuersForTopic lists the issuers holding a claim for topic on identity.
func (g *Gateway) ClaimIssuersForTopic(ctx context.Context, identity id.Address, topic id.ClaimTopic) ([]id.Address, error) {
	out, err := g.call(ctx, IdentityABI, identity.Common(), "getClaimIssuersForTopic", topicInt(topic))
	if err != nil {
		return nil, err
	}
	return toAddresses(*abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)), nil
}

// FindClaimEvent returns the first ClaimAdded or ClaimChanged log emitted by
// identity in receipt for issuer and topic.
func FindClaimEvent(receipt *types.Receipt, identity, issuer id.Address, topic id.ClaimTopic) (*ClaimEvent, bool) {
	if receipt == nil {
		return nil, false
	}
	for _, name := range []string{"ClaimAdded", "ClaimChanged"} {
		event := IdentityABI.Events[name]
		for _, log := range receipt.Logs {
			if log == nil || len(log.Topics) != 4 || log.Topics[0] != event.ID {
				continue
			}
			if !identity.Equal(id.AddressFromCommon(log.Address)) {
				continue
			}
			logTopic := new(big.Int).SetBytes(log.Topics[2].Bytes())
			logIssuer := id.AddressFromCommon(common.BytesToAddress(log.Topics[3].Bytes()))
			if !logTopic.IsUint64() || logTopic.Uint64() != topic.Uint64() || !logIssuer.Equal(issuer) {
				continue
			}
			return &ClaimEvent{
				Name:     name,
				ClaimID:  log.Topics[1],
				Topic:    topic,
				Issuer:   logIssuer,
				Identity: identity,
			}, true
		}
	}
	return nil, false
}

func topicInt(topic id.ClaimTopic) *big.Int {
	return new(big.Int).SetUint64(topic.Uint64())
}

func toAddresses(in []common.Address) []id.Address {
	out := make([]id.Address, 0, len(in))
	for _, a := range in {
		out = append(out, id.AddressFromCommon(a))
	}
	return out
}
