package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrNoContract is returned when a call hits an address without code.
	ErrNoContract = errors.New("no contract code at address")
	// ErrNotConfigured is returned when a registry address was not configured.
	ErrNotConfigured = errors.New("contract address not configured")
)

// RevertError reports that the EVM reverted a call or a mined transaction.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Unwrap() error { return e.Err }

// AsRevert converts a node error into a *RevertError when the node reports
// a revert, decoding the Error(string) payload when one is attached.
func AsRevert(err error) (*RevertError, bool) {
	if err == nil {
		return nil, false
	}
	var re *RevertError
	if errors.As(err, &re) {
		return re, true
	}
	msg := err.Error()
	if !strings.Contains(msg, "execution reverted") && !strings.Contains(msg, "revert") {
		return nil, false
	}
	reason := ""
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if b, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if unpacked, unpackErr := abi.UnpackRevert(b); unpackErr == nil {
					reason = unpacked
				}
			}
		}
	}
	if reason == "" {
		if i := strings.Index(msg, "execution reverted:"); i >= 0 {
			reason = strings.TrimSpace(msg[i+len("execution reverted:"):])
		}
	}
	return &RevertError{Reason: reason, Err: err}, true
}

func wrapCall(method string, err error) error {
	if re, ok := AsRevert(err); ok {
		return fmt.Errorf("%s: %w", method, re)
	}
	return fmt.Errorf("%s: %w", method, err)
}
