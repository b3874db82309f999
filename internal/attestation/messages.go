package attestation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Decision is the issuer verdict bound into a decision message.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts only the two terminal decisions.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.TrimSpace(s)); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision must be approved or rejected")
	}
}

// Canonical message layout. Fields are '|' separated key:value pairs in a
// fixed order.
const (
	fieldSep     = "|"
	keyRequester = "req"
	keyIssuer    = "iss"
	keyTopic     = "topic"
	keyTime      = "t"
	keyDecision  = "decision"
)

// RequesterMessage is the parsed form of a requester's canonical message.
type RequesterMessage struct {
	Requester id.Address
	Issuer    id.Address
	Topic     id.ClaimTopic
	Timestamp time.Time
}

// DecisionMessage is the parsed form of an issuer's canonical decision message.
type DecisionMessage struct {
	RequestID id.RequestID
	Decision  Decision
	Timestamp time.Time
}

// BuildRequesterMessage binds a requester's intent to an issuer, a topic and a time:
//
//	req:<requester>|iss:<issuer>|topic:<n>|t:<unix seconds>
//
// Addresses are lowercased so the same inputs always yield the same bytes.
func BuildRequesterMessage(requester, issuer id.Address, topic id.ClaimTopic, ts time.Time) string {
	return strings.Join([]string{
		keyRequester + ":" + strings.ToLower(string(requester)),
		keyIssuer + ":" + strings.ToLower(string(issuer)),
		keyTopic + ":" + topic.String(),
		keyTime + ":" + strconv.FormatInt(ts.Unix(), 10),
	}, fieldSep)
}

// BuildIssuerDecisionMessage binds an issuer's verdict to one request:
//
//	req:<request id>|decision:<approved|rejected>|t:<unix seconds>
func BuildIssuerDecisionMessage(requestID id.RequestID, decision Decision, ts time.Time) string {
	return strings.Join([]string{
		keyRequester + ":" + requestID.String(),
		keyDecision + ":" + string(decision),
		keyTime + ":" + strconv.FormatInt(ts.Unix(), 10),
	}, fieldSep)
}

// ParseRequesterMessage is the strict inverse of BuildRequesterMessage.
func ParseRequesterMessage(msg string) (*RequesterMessage, error) {
	values, err := splitFields(msg, keyRequester, keyIssuer, keyTopic, keyTime)
	if err != nil {
		return nil, err
	}
	requester, err := id.ParseAddress(values[0])
	if err != nil {
		return nil, malformed("requester address", err)
	}
	issuer, err := id.ParseAddress(values[1])
	if err != nil {
		return nil, malformed("issuer address", err)
	}
	topic, err := id.ParseClaimTopic(values[2])
	if err != nil {
		return nil, malformed("topic", err)
	}
	ts, err := parseUnix(values[3])
	if err != nil {
		return nil, err
	}
	return &RequesterMessage{Requester: requester, Issuer: issuer, Topic: topic, Timestamp: ts}, nil
}

// ParseIssuerDecisionMessage is the strict inverse of BuildIssuerDecisionMessage.
func ParseIssuerDecisionMessage(msg string) (*DecisionMessage, error) {
	values, err := splitFields(msg, keyRequester, keyDecision, keyTime)
	if err != nil {
		return nil, err
	}
	requestID, err := id.ParseRequestID(values[0])
	if err != nil {
		return nil, malformed("request id", err)
	}
	decision, err := ParseDecision(values[1])
	if err != nil {
		return nil, malformed("decision", err)
	}
	ts, err := parseUnix(values[2])
	if err != nil {
		return nil, err
	}
	return &DecisionMessage{RequestID: requestID, Decision: decision, Timestamp: ts}, nil
}

// Matches reports whether the message names exactly this requester, issuer and topic.
func (m *RequesterMessage) Matches(requester, issuer id.Address, topic id.ClaimTopic) bool {
	return m.Requester.Equal(requester) && m.Issuer.Equal(issuer) && m.Topic == topic
}

// Matches reports whether the message names exactly this request and decision.
func (m *DecisionMessage) Matches(requestID id.RequestID, decision Decision) bool {
	return m.RequestID == requestID && m.Decision == decision
}

func splitFields(msg string, keys ...string) ([]string, error) {
	parts := strings.Split(msg, fieldSep)
	if len(parts) != len(keys) {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("canonical message must have %d fields, got %d", len(keys), len(parts)))
	}
	values := make([]string, len(keys))
	for i, key := range keys {
		value, ok := strings.CutPrefix(parts[i], key+":")
		if !ok || value == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("canonical message field %d must be %q", i+1, key))
		}
		values[i] = value
	}
	return values, nil
}

func parseUnix(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "canonical message timestamp must be unix seconds")
	}
	return time.Unix(n, 0).UTC(), nil
}

func malformed(field string, err error) error {
	return dErrors.Wrap(err, dErrors.CodeInvalidInput, "canonical message has invalid "+field)
}
