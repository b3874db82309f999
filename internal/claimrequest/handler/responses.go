package handler

import (
	"time"

	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/claimrequest/service"
)

// DocumentResponse mirrors DocumentRequest.
type DocumentResponse struct {
	FileID      string `json:"fileId"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// ClaimRequestResponse is the JSON view of a claim request.
type ClaimRequestResponse struct {
	ID                      string            `json:"id"`
	RequesterAddress        string            `json:"requesterAddress"`
	IssuerAddress           string            `json:"issuerAddress"`
	ClaimTopic              uint64            `json:"claimTopic"`
	ClaimTopicName          string            `json:"claimTopicName"`
	Message                 string            `json:"message,omitempty"`
	Document                *DocumentResponse `json:"document,omitempty"`
	Status                  string            `json:"status"`
	SignedMessage           string            `json:"signedMessage"`
	Signature               string            `json:"signature"`
	RequesterSignatureValid bool              `json:"requesterSignatureValid"`
	IssuerSignedMessage     string            `json:"issuerSignedMessage,omitempty"`
	IssuerSignature         string            `json:"issuerSignature,omitempty"`
	ReviewNote              string            `json:"reviewNote,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	UpdatedAt               time.Time         `json:"updatedAt"`
	ReviewedAt              *time.Time        `json:"reviewedAt,omitempty"`
}

// ListResponse wraps a page of claim requests.
type ListResponse struct {
	Requests []ClaimRequestResponse `json:"requests"`
	Count    int                    `json:"count"`
}

// AttestationResponse is the admin view of a re-verified record.
type AttestationResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	RequesterAddress   string `json:"requesterAddress"`
	RecoveredRequester string `json:"recoveredRequester,omitempty"`
	RequesterValid     bool   `json:"requesterValid"`
	RequesterProblem   string `json:"requesterProblem,omitempty"`
	StoredAsValid      bool   `json:"storedAsValid"`
	IssuerAddress      string `json:"issuerAddress"`
	RecoveredIssuer    string `json:"recoveredIssuer,omitempty"`
	IssuerValid        bool   `json:"issuerValid"`
	IssuerProblem      string `json:"issuerProblem,omitempty"`
}

func toResponse(r *models.ClaimRequest) ClaimRequestResponse {
	resp := ClaimRequestResponse{
		ID:                      r.ID.String(),
		RequesterAddress:        r.RequesterAddress.String(),
		IssuerAddress:           r.IssuerAddress.String(),
		ClaimTopic:              r.ClaimTopic.Uint64(),
		ClaimTopicName:          r.ClaimTopic.Name(),
		Message:                 r.Message,
		Status:                  r.Status.String(),
		SignedMessage:           r.SignedMessage,
		Signature:               r.Signature,
		RequesterSignatureValid: r.RequesterSignatureValid,
		IssuerSignedMessage:     r.IssuerSignedMessage,
		IssuerSignature:         r.IssuerSignature,
		ReviewNote:              r.ReviewNote,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
		ReviewedAt:              r.ReviewedAt,
	}
	if r.Document != nil {
		resp.Document = &DocumentResponse{
			FileID:      r.Document.FileID,
			Name:        r.Document.Name,
			ContentType: r.Document.ContentType,
			Size:        r.Document.Size,
		}
	}
	return resp
}

func toListResponse(records []*models.ClaimRequest) ListResponse {
	out := ListResponse{Requests: make([]ClaimRequestResponse, 0, len(records))}
	for _, r := range records {
		out.Requests = append(out.Requests, toResponse(r))
	}
	out.Count = len(out.Requests)
	return out
}

func toAttestationResponse(r *service.AttestationReport) AttestationResponse {
	return AttestationResponse{
		ID:                 r.RequestID.String(),
		Status:             r.Status.String(),
		RequesterAddress:   r.RequesterAddress.String(),
		RecoveredRequester: r.RecoveredRequester.String(),
		RequesterValid:     r.RequesterValid,
		RequesterProblem:   r.RequesterProblem,
		StoredAsValid:      r.StoredAsValid,
		IssuerAddress:      r.IssuerAddress.String(),
		RecoveredIssuer:    r.RecoveredIssuer.String(),
		IssuerValid:        r.IssuerValid,
		IssuerProblem:      r.IssuerProblem,
	}
}
