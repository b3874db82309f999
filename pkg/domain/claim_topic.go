package domain

import (
	"strconv"
	"strings"

	dErrors "claimbridge/pkg/domain-errors"
)

// ClaimTopic is the numeric identifier of a claim category recorded on-chain.
// Any positive value is accepted; well-known topics carry a display name.
type ClaimTopic uint64

const (
	ClaimTopicKYC           ClaimTopic = 1
	ClaimTopicAccreditation ClaimTopic = 7
	ClaimTopicJurisdiction  ClaimTopic = 9
)

var claimTopicNames = map[ClaimTopic]string{
	ClaimTopicKYC:           "KYC",
	ClaimTopicAccreditation: "Accreditation",
	ClaimTopicJurisdiction:  "Jurisdiction",
}

// ParseClaimTopic constructs a ClaimTopic from its decimal string form.
//
// Errors: returns CodeInvalidInput when the value is empty, not a base-10
// unsigned integer, or zero.
func ParseClaimTopic(s string) (ClaimTopic, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "claim topic cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "claim topic must be a positive integer")
	}
	return NewClaimTopic(n)
}

// NewClaimTopic validates a numeric topic.
func NewClaimTopic(n uint64) (ClaimTopic, error) {
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "claim topic must be greater than zero")
	}
	return ClaimTopic(n), nil
}

// Name returns the display name for well-known topics, or "Topic <n>".
func (t ClaimTopic) Name() string {
	if name, ok := claimTopicNames[t]; ok {
		return name
	}
	return "Topic " + t.String()
}

func (t ClaimTopic) String() string { return strconv.FormatUint(uint64(t), 10) }

// Uint64 returns the raw numeric value.
func (t ClaimTopic) Uint64() uint64 { return uint64(t) }
