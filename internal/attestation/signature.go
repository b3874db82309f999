package attestation

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Recover returns the address that produced signature over message under the
// personal-message scheme (EIP-191 version 0x45). The signature is 65 bytes
// r||s||v in hex, with v in {0,1,27,28}. High-s signatures are rejected.
func Recover(message, signature string) (id.Address, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return "", err
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "signature recovery failed")
	}
	return id.AddressFromCommon(crypto.PubkeyToAddress(*pub)), nil
}

// Verify recovers the signer of message and compares it with expected,
// case-insensitively. Malformed input yields false, never an error.
func Verify(message, signature string, expected id.Address) bool {
	if expected.IsZero() {
		return false
	}
	signer, err := Recover(message, signature)
	if err != nil {
		return false
	}
	return signer.Equal(expected)
}

// Sign produces a wallet-compatible personal-message signature (v = 27/28).
func Sign(message string, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// DecodeSignature returns the raw 65 signature bytes with v normalized to 27/28,
// the form the identity contract stores.
func DecodeSignature(signature string) ([]byte, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// decodeSignature returns a fresh 65-byte slice with v normalized to 0/1.
func decodeSignature(signature string) ([]byte, error) {
	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, "0x") && !strings.HasPrefix(signature, "0X") {
		signature = "0x" + signature
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature must be hex encoded")
	}
	if len(sig) != crypto.SignatureLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig)))
	}
	v := sig[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature has invalid recovery id")
	}
	sig[crypto.RecoveryIDOffset] = v

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature values out of range")
	}
	return sig, nil
}
