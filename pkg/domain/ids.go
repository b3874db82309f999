package domain

import (
	"github.com/google/uuid"

	dErrors "claimbridge/pkg/domain-errors"
)

// RequestID identifies a claim request. It is assigned at creation and never changes.
type RequestID uuid.UUID

// NewRequestID returns a fresh random RequestID.
func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

// ParseRequestID constructs a RequestID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

func (id RequestID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets RequestID serialize as its canonical UUID string.
func (id RequestID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical UUID string form.
func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
