package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
	"provena/pkg/platform/httputil"
)

type AuditHandler struct {
	reader AuditReader
	logger *slog.Logger
}

// handleListByEntity returns the audit trail for one entity. Admin only; the
// audit store has no authorization of its own.
func (h *AuditHandler) handleListByEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.Role.Meets(domain.RoleAdmin) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "audit trails are restricted to admins"))
		return
	}

	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.reader.ListByEntity(ctx, entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
