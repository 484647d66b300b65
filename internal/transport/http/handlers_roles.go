package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/httputil"
	"provena/pkg/requestcontext"
)

type RoleHandler struct {
	roles  RoleService
	logger *slog.Logger
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *RoleHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	userID, err := domain.ParseActorID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	roles, err := h.roles.RolesOf(r.Context(), actor, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *RoleHandler) handleGrant(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.roles.GrantRole)
}

func (h *RoleHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.roles.RemoveRole)
}

func (h *RoleHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor domain.Actor, userID domain.ActorID, role domain.Role) error) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	userID, err := domain.ParseActorID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[roleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown role"))
		return
	}

	if err := op(ctx, actor, userID, role); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
