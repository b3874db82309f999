package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/publisher"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	"claimbridge/pkg/platform/httputil"
	"claimbridge/pkg/requestcontext"
)

// Ledger is the read access the handler needs. Records are always re-read
// before publishing.
type Ledger interface {
	Get(ctx context.Context, requestID id.RequestID) (*models.ClaimRequest, error)
}

// Publisher builds payloads and publishes claims.
type Publisher interface {
	BuildPayload(req *models.ClaimRequest) (*publisher.ClaimPayload, error)
	Publish(ctx context.Context, req *models.ClaimRequest, identity id.Address, signer publisher.Signer) (*publisher.PublishReceipt, error)
}

// Handler serves the claim payload and publish endpoints.
type Handler struct {
	ledger    Ledger
	publisher Publisher
	senders   publisher.SenderResolver
	logger    *slog.Logger
}

func New(ledger Ledger, pub Publisher, senders publisher.SenderResolver, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, publisher: pub, senders: senders, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/requests/{id}/claim", h.HandleClaim)
	r.Post("/requests/{id}/publish", h.HandlePublish)
}

// HandleClaim handles GET /requests/{id}/claim: the addClaim arguments and
// calldata a wallet needs to sign the transaction itself.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, ok := h.load(w, r)
	if !ok {
		return
	}
	payload, err := h.publisher.BuildPayload(record)
	if err != nil {
		h.logFailure(ctx, "build claim payload failed", err)
		httputil.WriteError(w, err)
		return
	}
	calldata, err := payload.Calldata()
	if err != nil {
		h.logFailure(ctx, "encode claim calldata failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode addClaim"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPayloadResponse(payload, calldata))
}

// HandlePublish handles POST /requests/{id}/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	record, ok := h.load(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	signer, err := publisher.ParseRawTransaction(req.RawTransaction, h.senders)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.publisher.Publish(ctx, record, req.identity, signer)
	if err != nil {
		h.logFailure(ctx, "publish claim failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.ClaimRequest, bool) {
	ctx := r.Context()
	claimRequestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	record, err := h.ledger.Get(ctx, claimRequestID)
	if err != nil {
		h.logFailure(ctx, "load claim request failed", err)
		httputil.WriteError(w, err)
		return nil, false
	}
	return record, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if pe, ok := publisher.AsPublishError(err); ok {
		attrs = append(attrs, "publish_kind", string(pe.Kind))
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
