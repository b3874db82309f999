package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "claimbridge/pkg/domain-errors"
)

// Address is a 20-byte account address held in lowercase 0x-hex form.
// Invariant: a parsed Address is always lowercase, so plain == is a
// case-insensitive comparison.
//
// Usage: construct via ParseAddress at trust boundaries; direct casting
// bypasses normalization.
type Address string

// ZeroAddress is the lowercase form of the all-zero address.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and normalizes an address from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or not a 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	if !common.IsHexAddress(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid address")
	}
	return Address(strings.ToLower(s)), nil
}

// AddressFromCommon converts a go-ethereum address into its normalized form.
func AddressFromCommon(a common.Address) Address {
	return Address(strings.ToLower(a.Hex()))
}

// Common returns the go-ethereum representation.
func (a Address) Common() common.Address {
	return common.HexToAddress(string(a))
}

// Equal compares two addresses case-insensitively, tolerating unnormalized input.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty or the zero address.
func (a Address) IsZero() bool {
	return a == "" || a.Equal(ZeroAddress)
}
