package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/httputil"
	"provena/pkg/requestcontext"
)

type ReviewHandler struct {
	reviews ReviewService
	logger  *slog.Logger
}

type reviewDecisionRequest struct {
	Notes   string `json:"notes,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type submitDocumentsRequest struct {
	IdentityDocumentID string `json:"identityDocumentId"`
	ProofOfAddressID   string `json:"proofOfAddressId"`
}

func (h *ReviewHandler) handleQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	snapshot, err := h.reviews.Queue(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *ReviewHandler) handleClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.reviews.Claim(r.Context(), actor, entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *ReviewHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewDecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	version, err := h.reviews.Approve(ctx, actor, entityID, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *ReviewHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewDecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	version, err := h.reviews.Reject(ctx, actor, entityID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *ReviewHandler) handleRequestInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewDecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	version, err := h.reviews.RequestMoreInfo(ctx, actor, entityID, req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *ReviewHandler) handleSubmitDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[submitDocumentsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.IdentityDocumentID == "" && req.ProofOfAddressID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "at least one document is required"))
		return
	}

	version, err := h.reviews.SubmitDocuments(ctx, actor, entityID, req.IdentityDocumentID, req.ProofOfAddressID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}
