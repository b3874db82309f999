package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"claimbridge/internal/identity"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	"claimbridge/pkg/platform/httputil"
	"claimbridge/pkg/requestcontext"
)

var defaultTopics = []id.ClaimTopic{id.ClaimTopicKYC, id.ClaimTopicAccreditation, id.ClaimTopicJurisdiction}

// Reader lists identity claims.
type Reader interface {
	Claims(ctx context.Context, identity id.Address, topics []id.ClaimTopic) ([]identity.Claim, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/identities/{address}/claims", h.HandleClaims)
}

type ClaimResponse struct {
	Topic               uint64  `json:"topic"`
	TopicName           string  `json:"topicName"`
	Scheme              uint64  `json:"scheme"`
	Issuer              string  `json:"issuer"`
	Signature           string  `json:"signature"`
	Data                string  `json:"data"`
	URI                 string  `json:"uri"`
	Message             string  `json:"message,omitempty"`
	IssuerSignedMessage string  `json:"issuerSignedMessage,omitempty"`
	ReviewedAt          *string `json:"reviewedAt,omitempty"`
	SignatureValid      bool    `json:"signatureValid"`
}

type ClaimsResponse struct {
	Identity string          `json:"identityAddress"`
	Claims   []ClaimResponse `json:"claims"`
	Count    int             `json:"count"`
}

// HandleClaims handles GET /identities/{address}/claims?topics=1,7,9.
func (h *Handler) HandleClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	topics, err := parseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claims, err := h.reader.Claims(ctx, addr, topics)
	if err != nil {
		h.logger.WarnContext(ctx, "read identity claims failed",
			"request_id", requestcontext.RequestID(ctx),
			"identity", addr.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ClaimsResponse{Identity: addr.String(), Claims: make([]ClaimResponse, 0, len(claims)), Count: len(claims)}
	for _, c := range claims {
		item := ClaimResponse{
			Topic:               c.Topic.Uint64(),
			TopicName:           c.Topic.Name(),
			Scheme:              c.Scheme,
			Issuer:              c.Issuer.String(),
			Signature:           hexutil.Encode(c.Signature),
			Data:                hexutil.Encode(c.Data),
			URI:                 c.URI,
			Message:             c.Message,
			IssuerSignedMessage: c.IssuerSignedMessage,
			SignatureValid:      c.SignatureValid,
		}
		if c.ReviewedAt != nil {
			at := c.ReviewedAt.Format("2006-01-02T15:04:05Z07:00")
			item.ReviewedAt = &at
		}
		resp.Claims = append(resp.Claims, item)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseTopics(raw string) ([]id.ClaimTopic, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultTopics, nil
	}
	var out []id.ClaimTopic
	for _, part := range strings.Split(raw, ",") {
		topic, err := id.ParseClaimTopic(strings.TrimSpace(part))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "topics must be a comma separated list of claim topics")
		}
		out = append(out, topic)
	}
	return out, nil
}
