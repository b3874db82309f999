package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"claimbridge/internal/chain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Kind classifies why a publish attempt failed.
type Kind string

const (
	KindUserRejected Kind = "user_rejected"
	KindRevert       Kind = "revert"
	KindNetwork      Kind = "network"
	// KindUnconfirmed means the wait ended before a receipt arrived. The
	// transaction may still be mined.
	KindUnconfirmed Kind = "unconfirmed"
	KindUnknown     Kind = "unknown"
)

// walletRejectedCode is the EIP-1193 "user rejected request" error code.
const walletRejectedCode = 4001

// PublishError describes a failed publish attempt.
type PublishError struct {
	Kind   Kind
	Reason string
	TxHash common.Hash
	Err    error
}

func (e *PublishError) Error() string {
	msg := fmt.Sprintf("publish %s: %s", e.Kind, e.Reason)
	if e.TxHash != (common.Hash{}) {
		msg += " (tx " + e.TxHash.Hex() + ")"
	}
	return msg
}

func (e *PublishError) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the same transaction could succeed.
func (e *PublishError) Retryable() bool { return e.Kind == KindNetwork }

// ErrorDetails adds the failure kind and transaction hash to the HTTP envelope.
func (e *PublishError) ErrorDetails() map[string]string {
	details := map[string]string{"publish_kind": string(e.Kind)}
	if e.TxHash != (common.Hash{}) {
		details["tx_hash"] = e.TxHash.Hex()
	}
	return details
}

// AsPublishError extracts a *PublishError from an error chain.
func AsPublishError(err error) (*PublishError, bool) {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func failed(kind Kind, reason string, txHash common.Hash, cause error) error {
	pe := &PublishError{Kind: kind, Reason: reason, TxHash: txHash, Err: cause}
	return dErrors.Wrap(pe, dErrors.CodePublishFailed, pe.Error())
}

// classify maps a submission error onto a publish failure.
func classify(err error, txHash common.Hash) error {
	if de, ok := dErrors.From(err); ok && de.Code != dErrors.CodeInternal {
		return err
	}
	switch {
	case isUserRejection(err):
		return failed(KindUserRejected, "the wallet rejected the transaction", txHash, err)
	case isRevert(err):
		re, _ := chain.AsRevert(err)
		reason := "transaction reverted"
		if re != nil && re.Reason != "" {
			reason = re.Reason
		}
		return failed(KindRevert, reason, txHash, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if txHash == (common.Hash{}) {
			return failed(KindNetwork, "chain node did not answer in time", txHash, err)
		}
		return failed(KindUnconfirmed, "gave up waiting for the transaction", txHash, err)
	case isNetwork(err):
		return failed(KindNetwork, "chain node unreachable", txHash, err)
	default:
		return failed(KindUnknown, "unexpected chain error", txHash, err)
	}
}

func isUserRejection(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == walletRejectedCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

func isRevert(err error) bool {
	_, ok := chain.AsRevert(err)
	return ok
}

func isNetwork(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	var httpErr rpc.HTTPError
	switch {
	case errors.As(err, &netErr), errors.As(err, &urlErr), errors.As(err, &httpErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}
