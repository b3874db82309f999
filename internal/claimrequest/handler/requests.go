package handler

import (
	"net/url"
	"strconv"
	"strings"

	"claimbridge/internal/attestation"
	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/claimrequest/service"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// DocumentRequest references a file already held by document storage.
type DocumentRequest struct {
	FileID      string `json:"fileId"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// CreateRequest is the HTTP body for POST /requests.
type CreateRequest struct {
	RequesterAddress string           `json:"requesterAddress"`
	IssuerAddress    string           `json:"issuerAddress"`
	ClaimTopic       uint64           `json:"claimTopic"`
	Message          string           `json:"message"`
	Document         *DocumentRequest `json:"document,omitempty"`
	SignedMessage    string           `json:"signedMessage"`
	Signature        string           `json:"signature"`

	parsed service.CreateRequest
}

// Validate implements httputil.Validatable.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Message) > models.MaxMessageLength {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 2000 characters")
	}

	r.RequesterAddress = strings.TrimSpace(r.RequesterAddress)
	r.IssuerAddress = strings.TrimSpace(r.IssuerAddress)
	r.SignedMessage = strings.TrimSpace(r.SignedMessage)
	r.Signature = strings.TrimSpace(r.Signature)
	switch {
	case r.RequesterAddress == "":
		return dErrors.New(dErrors.CodeValidation, "requesterAddress is required")
	case r.IssuerAddress == "":
		return dErrors.New(dErrors.CodeValidation, "issuerAddress is required")
	case r.ClaimTopic == 0:
		return dErrors.New(dErrors.CodeValidation, "claimTopic is required")
	case r.SignedMessage == "" || r.Signature == "":
		return dErrors.New(dErrors.CodeValidation, "signedMessage and signature are required")
	}

	requester, err := id.ParseAddress(r.RequesterAddress)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "requesterAddress is not a valid address")
	}
	issuer, err := id.ParseAddress(r.IssuerAddress)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "issuerAddress is not a valid address")
	}

	r.parsed = service.CreateRequest{
		RequesterAddress: requester,
		IssuerAddress:    issuer,
		ClaimTopic:       id.ClaimTopic(r.ClaimTopic),
		Message:          r.Message,
		SignedMessage:    r.SignedMessage,
		Signature:        r.Signature,
	}
	if r.Document != nil {
		r.parsed.Document = &models.Document{
			FileID:      r.Document.FileID,
			Name:        r.Document.Name,
			ContentType: r.Document.ContentType,
			Size:        r.Document.Size,
		}
	}
	return nil
}

// Parsed returns the service request built by Validate.
func (r *CreateRequest) Parsed() service.CreateRequest {
	return r.parsed
}

// ReviewRequest is the HTTP body for POST /requests/{id}/review.
type ReviewRequest struct {
	Status              string `json:"status"`
	IssuerSignedMessage string `json:"issuerSignedMessage"`
	IssuerSignature     string `json:"issuerSignature"`
	ReviewNote          string `json:"reviewNote"`

	decision attestation.Decision
}

// Validate implements httputil.Validatable.
func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ReviewNote) > models.MaxReviewLength {
		return dErrors.New(dErrors.CodeValidation, "reviewNote must be at most 2000 characters")
	}
	decision, err := attestation.ParseDecision(r.Status)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "status must be approved or rejected")
	}
	r.decision = decision
	r.IssuerSignedMessage = strings.TrimSpace(r.IssuerSignedMessage)
	r.IssuerSignature = strings.TrimSpace(r.IssuerSignature)
	if r.IssuerSignedMessage == "" || r.IssuerSignature == "" {
		return dErrors.New(dErrors.CodeValidation, "issuerSignedMessage and issuerSignature are required")
	}
	return nil
}

// ToService builds the service request for the given id.
func (r *ReviewRequest) ToService(requestID id.RequestID) service.ReviewRequest {
	return service.ReviewRequest{
		ID:                  requestID,
		Decision:            r.decision,
		IssuerSignedMessage: r.IssuerSignedMessage,
		IssuerSignature:     r.IssuerSignature,
		ReviewNote:          r.ReviewNote,
	}
}

// parseListFilter reads GET /requests query parameters.
func parseListFilter(q url.Values) (models.ListFilter, error) {
	var filter models.ListFilter
	if v := strings.TrimSpace(q.Get("requesterAddress")); v != "" {
		addr, err := id.ParseAddress(v)
		if err != nil {
			return filter, dErrors.Wrap(err, dErrors.CodeBadRequest, "requesterAddress is not a valid address")
		}
		filter.RequesterAddress = &addr
	}
	if v := strings.TrimSpace(q.Get("issuerAddress")); v != "" {
		addr, err := id.ParseAddress(v)
		if err != nil {
			return filter, dErrors.Wrap(err, dErrors.CodeBadRequest, "issuerAddress is not a valid address")
		}
		filter.IssuerAddress = &addr
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			return filter, dErrors.Wrap(err, dErrors.CodeBadRequest, "status must be one of pending, approved, rejected")
		}
		filter.Status = &status
	}
	var err error
	if filter.Limit, err = queryInt(q, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(q, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be an integer")
	}
	return n, nil
}
