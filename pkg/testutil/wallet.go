package testutil

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"claimbridge/internal/attestation"
	id "claimbridge/pkg/domain"
)

// Well-known development keys. Never fund these.
const (
	RequesterKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	IssuerKeyHex    = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	StrangerKeyHex  = "8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f"
)

// Wallet is a local key that signs like a browser wallet.
type Wallet struct {
	Key     *ecdsa.PrivateKey
	Address id.Address
}

// NewWallet loads a hex private key.
func NewWallet(t *testing.T, keyHex string) Wallet {
	t.Helper()
	key, err := crypto.HexToECDSA(keyHex)
	require.NoError(t, err)
	return Wallet{Key: key, Address: id.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey))}
}

// Sign personal-signs msg.
func (w Wallet) Sign(t *testing.T, msg string) string {
	t.Helper()
	sig, err := attestation.Sign(msg, w.Key)
	require.NoError(t, err)
	return sig
}
