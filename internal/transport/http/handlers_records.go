package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"provena/internal/record"
	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/httputil"
	"provena/pkg/requestcontext"
)

type RecordHandler struct {
	records RecordService
	logger  *slog.Logger
}

type createRecordRequest struct {
	EntityID   string         `json:"entityId,omitempty"`
	Attributes map[string]any `json:"attributes"`
	Reason     string         `json:"reason,omitempty"`
}

type updateRecordRequest struct {
	Patch  map[string]any `json:"patch"`
	Reason string         `json:"reason,omitempty"`
}

func (h *RecordHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityType, ok := record.ParseEntityType(chi.URLParam(r, "entityType"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown entity type"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[createRecordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	entityID := domain.EntityID(uuid.New())
	if req.EntityID != "" {
		parsed, err := domain.ParseEntityID(req.EntityID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entityID = parsed
	}

	version, err := h.records.Create(ctx, actor, entityType, entityID, req.Attributes, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (h *RecordHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.records.GetCurrent(r.Context(), actor, entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *RecordHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[updateRecordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if len(req.Patch) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "patch must not be empty"))
		return
	}

	version, err := h.records.Update(ctx, actor, entityID, req.Patch, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *RecordHandler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	versions, err := h.records.ListVersions(r.Context(), actor, entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"versions": toVersionResponses(versions),
	})
}

func (h *RecordHandler) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	versionNum, err := strconv.ParseInt(chi.URLParam(r, "version"), 10, 64)
	if err != nil || versionNum < record.BaselineVersion {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "version must be a positive integer"))
		return
	}

	version, err := h.records.GetVersion(r.Context(), actor, entityID, versionNum)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}
