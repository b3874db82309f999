package models

import (
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

const MaxListLimit = 500

// ListFilter selects claim requests. Nil fields are not applied; set fields are ANDed.
type ListFilter struct {
	RequesterAddress *id.Address
	IssuerAddress    *id.Address
	Status           *Status
	Limit            int
	Offset           int
}

// Validate checks pagination bounds and normalizes address and status filters to lowercase.
func (f *ListFilter) Validate() error {
	if f.Limit < 0 || f.Limit > MaxListLimit {
		return dErrors.New(dErrors.CodeValidation, "limit must be between 0 and 500")
	}
	if f.Offset < 0 {
		return dErrors.New(dErrors.CodeValidation, "offset must not be negative")
	}
	for _, addr := range []*id.Address{f.RequesterAddress, f.IssuerAddress} {
		if addr == nil {
			continue
		}
		normalized, err := id.ParseAddress(string(*addr))
		if err != nil {
			return err
		}
		*addr = normalized
	}
	if f.Status != nil {
		status, err := ParseStatus(string(*f.Status))
		if err != nil {
			return err
		}
		*f.Status = status
	}
	return nil
}

// Matches applies the filter predicates to a single record.
func (f ListFilter) Matches(r *ClaimRequest) bool {
	if f.RequesterAddress != nil && !r.RequesterAddress.Equal(*f.RequesterAddress) {
		return false
	}
	if f.IssuerAddress != nil && !r.IssuerAddress.Equal(*f.IssuerAddress) {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	return true
}
