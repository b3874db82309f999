// Package attestation builds the canonical messages requesters and issuers sign
// and verifies personal-message signatures over them. Everything here is pure
// and safe for concurrent use.
package attestation

import (
	"time"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Service exposes message construction and signature checks behind one value
// so the ledger can depend on a narrow interface.
type Service struct{}

// New returns an attestation service.
func New() *Service {
	return &Service{}
}

func (s *Service) BuildRequesterMessage(requester, issuer id.Address, topic id.ClaimTopic, ts time.Time) string {
	return BuildRequesterMessage(requester, issuer, topic, ts)
}

func (s *Service) BuildIssuerDecisionMessage(requestID id.RequestID, decision Decision, ts time.Time) string {
	return BuildIssuerDecisionMessage(requestID, decision, ts)
}

func (s *Service) Verify(message, signature string, expected id.Address) bool {
	return Verify(message, signature, expected)
}

func (s *Service) Recover(message, signature string) (id.Address, error) {
	return Recover(message, signature)
}

// VerifyRequester checks that signature was made by requester over a canonical
// requester message naming the same requester, issuer and topic.
//
// Errors: CodeUnauthorized for a bad signature or a message that binds
// different parties.
func (s *Service) VerifyRequester(message, signature string, requester, issuer id.Address, topic id.ClaimTopic) error {
	parsed, err := ParseRequesterMessage(message)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "signed message is not a canonical claim request")
	}
	if !parsed.Matches(requester, issuer, topic) {
		return dErrors.New(dErrors.CodeUnauthorized, "signed message does not match the requested claim")
	}
	if !Verify(message, signature, requester) {
		return dErrors.New(dErrors.CodeUnauthorized, "requester signature does not verify")
	}
	return nil
}

// VerifyDecision checks that signature was made by issuer over the canonical
// decision message for exactly this request and decision.
//
// Errors: CodeUnauthorized for a bad signature or a message that names another
// request or the opposite decision.
func (s *Service) VerifyDecision(message, signature string, issuer id.Address, requestID id.RequestID, decision Decision) error {
	parsed, err := ParseIssuerDecisionMessage(message)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "issuer signed message is not a canonical decision")
	}
	if !parsed.Matches(requestID, decision) {
		return dErrors.New(dErrors.CodeUnauthorized, "issuer signed message does not match this decision")
	}
	if !Verify(message, signature, issuer) {
		return dErrors.New(dErrors.CodeUnauthorized, "issuer signature does not verify")
	}
	return nil
}
