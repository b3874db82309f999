// Command claimsign builds the canonical attestation messages and signs them
// with a local key, printing what a wallet would have produced.
//
//	claimsign request  --key <hex> --issuer <addr> --topic <n> [--time <unix>]
//	claimsign decision --key <hex> --request <id> --decision approved|rejected [--time <unix>]
package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"claimbridge/internal/attestation"
	id "claimbridge/pkg/domain"
)

// Output is the JSON printed on success.
type Output struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "claimsign:", err)
		os.Exit(2)
	}
}

var errUsage = errors.New("usage: claimsign request|decision [flags]")

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	var (
		out *Output
		err error
	)
	switch args[0] {
	case "request":
		out, err = signRequest(args[1:], stderr)
	case "decision":
		out, err = signDecision(args[1:], stderr)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func signRequest(args []string, stderr io.Writer) (*Output, error) {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(stderr)
	keyHex := fs.String("key", "", "requester private key (hex)")
	issuerRaw := fs.String("issuer", "", "issuer address")
	topicRaw := fs.String("topic", "", "claim topic")
	unix := fs.Int64("time", 0, "unix timestamp, defaults to now")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	key, err := parseKey(*keyHex)
	if err != nil {
		return nil, err
	}
	issuer, err := id.ParseAddress(*issuerRaw)
	if err != nil {
		return nil, fmt.Errorf("--issuer: %w", err)
	}
	topic, err := id.ParseClaimTopic(*topicRaw)
	if err != nil {
		return nil, fmt.Errorf("--topic: %w", err)
	}
	requester := id.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey))
	msg := attestation.BuildRequesterMessage(requester, issuer, topic, timestamp(*unix))
	return sign(msg, key)
}

func signDecision(args []string, stderr io.Writer) (*Output, error) {
	fs := flag.NewFlagSet("decision", flag.ContinueOnError)
	fs.SetOutput(stderr)
	keyHex := fs.String("key", "", "issuer private key (hex)")
	requestRaw := fs.String("request", "", "claim request id")
	decisionRaw := fs.String("decision", "", "approved or rejected")
	unix := fs.Int64("time", 0, "unix timestamp, defaults to now")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	key, err := parseKey(*keyHex)
	if err != nil {
		return nil, err
	}
	requestID, err := id.ParseRequestID(*requestRaw)
	if err != nil {
		return nil, fmt.Errorf("--request: %w", err)
	}
	decision, err := attestation.ParseDecision(*decisionRaw)
	if err != nil {
		return nil, fmt.Errorf("--decision: %w", err)
	}
	msg := attestation.BuildIssuerDecisionMessage(requestID, decision, timestamp(*unix))
	return sign(msg, key)
}

func sign(msg string, key *ecdsa.PrivateKey) (*Output, error) {
	sig, err := attestation.Sign(msg, key)
	if err != nil {
		return nil, err
	}
	return &Output{
		Message:   msg,
		Signature: sig,
		Signer:    id.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey)).String(),
	}, nil
}

func parseKey(raw string) (*ecdsa.PrivateKey, error) {
	if raw == "" {
		return nil, errors.New("--key is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("--key: %w", err)
	}
	return key, nil
}

func timestamp(unix int64) time.Time {
	if unix == 0 {
		return time.Now()
	}
	return time.Unix(unix, 0)
}
