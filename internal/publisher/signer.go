package publisher

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Signer produces the addClaim transaction on behalf of the identity owner.
type Signer interface {
	Address(ctx context.Context) (id.Address, error)
	SignAddClaim(ctx context.Context, identity common.Address, calldata []byte) (*types.Transaction, error)
}

// TxBuilder fills nonce, gas and chain id and signs with a local key.
type TxBuilder interface {
	SignTransaction(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, data []byte) (*types.Transaction, error)
}

// SenderResolver recovers the sender of a signed transaction.
type SenderResolver interface {
	Sender(ctx context.Context, tx *types.Transaction) (id.Address, error)
}

// KeySigner signs with a locally held key. Used by operators and tests.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	builder TxBuilder
}

func NewKeySigner(key *ecdsa.PrivateKey, builder TxBuilder) *KeySigner {
	return &KeySigner{key: key, builder: builder}
}

func (s *KeySigner) Address(context.Context) (id.Address, error) {
	return id.AddressFromCommon(crypto.PubkeyToAddress(s.key.PublicKey)), nil
}

func (s *KeySigner) SignAddClaim(ctx context.Context, identity common.Address, calldata []byte) (*types.Transaction, error) {
	return s.builder.SignTransaction(ctx, s.key, identity, calldata)
}

// RawTxSigner carries a transaction the requester already signed in a wallet.
// It only checks the transaction; it never signs anything.
type RawTxSigner struct {
	tx       *types.Transaction
	resolver SenderResolver
}

// ParseRawTransaction decodes a hex RLP or typed transaction envelope.
func ParseRawTransaction(raw string, resolver SenderResolver) (*RawTxSigner, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rawTransaction is required")
	}
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "rawTransaction must be hex encoded")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "rawTransaction is not a valid signed transaction")
	}
	return &RawTxSigner{tx: tx, resolver: resolver}, nil
}

func (s *RawTxSigner) Transaction() *types.Transaction { return s.tx }

func (s *RawTxSigner) Address(ctx context.Context) (id.Address, error) {
	sender, err := s.resolver.Sender(ctx, s.tx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "rawTransaction signature is invalid")
	}
	return sender, nil
}

func (s *RawTxSigner) SignAddClaim(_ context.Context, identity common.Address, calldata []byte) (*types.Transaction, error) {
	if s.tx.To() == nil || *s.tx.To() != identity {
		return nil, dErrors.New(dErrors.CodeValidation, "rawTransaction does not call the identity contract")
	}
	if !bytes.Equal(s.tx.Data(), calldata) {
		return nil, dErrors.New(dErrors.CodeValidation, "rawTransaction calldata does not match the approved claim")
	}
	if s.tx.Value().Sign() != 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "rawTransaction must not transfer value")
	}
	return s.tx, nil
}
