package httptransport

import (
	"log/slog"
	"net/http"

	"provena/pkg/platform/httputil"
	"provena/pkg/requestcontext"
)

type BulkHandler struct {
	bulk   BulkService
	logger *slog.Logger
}

type bulkRequest struct {
	IDs     []string `json:"ids"`
	Notes   string   `json:"notes,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Title   string   `json:"title,omitempty"`
	Message string   `json:"message,omitempty"`
}

func (h *BulkHandler) handleApproveKYC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[bulkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ids, err := parseEntityIDs(req.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.bulk.ApproveKYC(ctx, actor, ids, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *BulkHandler) handleRejectKYC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[bulkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ids, err := parseEntityIDs(req.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.bulk.RejectKYC(ctx, actor, ids, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *BulkHandler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[bulkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ids, err := parseEntityIDs(req.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.bulk.Suspend(ctx, actor, ids, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *BulkHandler) handleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[bulkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ids, err := parseEntityIDs(req.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.bulk.Notify(ctx, actor, ids, req.Title, req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
