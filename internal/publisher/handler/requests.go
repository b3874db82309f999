package handler

import (
	"strings"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// PublishRequest carries a wallet-signed addClaim transaction.
type PublishRequest struct {
	IdentityAddress string `json:"identityAddress"`
	RawTransaction  string `json:"rawTransaction"`

	identity id.Address
}

func (r *PublishRequest) Validate() error {
	r.RawTransaction = strings.TrimSpace(r.RawTransaction)
	if r.RawTransaction == "" {
		return dErrors.New(dErrors.CodeValidation, "rawTransaction is required")
	}
	if s := strings.TrimSpace(r.IdentityAddress); s != "" {
		addr, err := id.ParseAddress(s)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "identityAddress is invalid")
		}
		r.identity = addr
	}
	return nil
}
