package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/claimrequest/service"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	"claimbridge/pkg/platform/httputil"
	"claimbridge/pkg/requestcontext"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.ClaimRequest, error)
	Get(ctx context.Context, requestID id.RequestID) (*models.ClaimRequest, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.ClaimRequest, error)
	Review(ctx context.Context, req service.ReviewRequest) (*models.ClaimRequest, error)
	VerifyAttestations(ctx context.Context, requestID id.RequestID) (*service.AttestationReport, error)
}

// Handler wires claim request endpoints to the ledger.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a claim request handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public ledger routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.HandleCreate)
	r.Get("/requests", h.HandleList)
	r.Get("/requests/{id}", h.HandleGet)
	r.Post("/requests/{id}/review", h.HandleReview)
}

// RegisterAdmin mounts routes that must sit behind admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/requests/{id}/attestation", h.HandleAttestation)
}

// HandleCreate handles POST /requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Create(ctx, req.Parsed())
	if err != nil {
		h.logFailure(ctx, "create claim request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(record))
}

// HandleList handles GET /requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.List(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "list claim requests failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(records))
}

// HandleGet handles GET /requests/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.Get(ctx, requestID)
	if err != nil {
		h.logFailure(ctx, "get claim request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(record))
}

// HandleReview handles POST /requests/{id}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claimRequestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Review(ctx, req.ToService(claimRequestID))
	if err != nil {
		h.logFailure(ctx, "review claim request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(record))
}

// HandleAttestation handles GET /admin/requests/{id}/attestation.
func (h *Handler) HandleAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimRequestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.VerifyAttestations(ctx, claimRequestID)
	if err != nil {
		h.logFailure(ctx, "verify attestations failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "attestations re-verified",
		"request_id", requestcontext.RequestID(ctx),
		"admin", requestcontext.AdminSubject(ctx),
		"claim_request_id", claimRequestID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, toAttestationResponse(report))
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
