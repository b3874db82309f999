package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimbridge/internal/issuers"
	id "claimbridge/pkg/domain"
	"claimbridge/pkg/platform/httputil"
	"claimbridge/pkg/requestcontext"
)

// Directory is the issuer lookup the handler serves.
type Directory interface {
	TrustedIssuers(ctx context.Context) ([]issuers.Issuer, error)
	IssuerTopics(ctx context.Context, issuer id.Address) ([]id.ClaimTopic, error)
}

type Handler struct {
	directory Directory
	logger    *slog.Logger
}

func New(directory Directory, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/issuers", h.HandleList)
	r.Get("/issuers/{address}/topics", h.HandleTopics)
}

type TopicResponse struct {
	Topic uint64 `json:"topic"`
	Name  string `json:"name"`
}

type IssuerResponse struct {
	Address string          `json:"address"`
	Topics  []TopicResponse `json:"topics"`
}

type ListResponse struct {
	Issuers []IssuerResponse `json:"issuers"`
	Count   int              `json:"count"`
}

// HandleList handles GET /issuers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.directory.TrustedIssuers(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list trusted issuers failed", "request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	resp := ListResponse{Issuers: make([]IssuerResponse, 0, len(list)), Count: len(list)}
	for _, iss := range list {
		resp.Issuers = append(resp.Issuers, IssuerResponse{Address: iss.Address.String(), Topics: toTopics(iss.Topics)})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleTopics handles GET /issuers/{address}/topics.
func (h *Handler) HandleTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	topics, err := h.directory.IssuerTopics(ctx, addr)
	if err != nil {
		h.logger.WarnContext(ctx, "issuer topics lookup failed", "request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IssuerResponse{Address: addr.String(), Topics: toTopics(topics)})
}

func toTopics(topics []id.ClaimTopic) []TopicResponse {
	out := make([]TopicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, TopicResponse{Topic: t.Uint64(), Name: t.Name()})
	}
	return out
}
