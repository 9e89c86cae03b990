package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"siscof/internal/access"
	"siscof/internal/roles"
	id "siscof/pkg/domain"
	"siscof/pkg/requestcontext"
)

// AccessService defines the interface for visibility queries.
type AccessService interface {
	AccessibleUnitIDs(ctx context.Context, userID id.UserID) (*access.UnitSet, error)
	AssignableRoles(ctx context.Context, actor id.UserID, unitID id.UnitID) ([]roles.RoleName, error)
}

// AccessHandler exposes the evaluator's answers to the signed-in user.
type AccessHandler struct {
	access AccessService
	logger *slog.Logger
}

func NewAccessHandler(accessSvc AccessService, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{access: accessSvc, logger: logger}
}

func (h *AccessHandler) Register(r chi.Router) {
	r.Get("/me/accessible-units", h.handleAccessibleUnits)
	r.Get("/units/{unitID}/assignable-roles", h.handleAssignableRoles)
}

func (h *AccessHandler) handleAccessibleUnits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	set, err := h.access.AccessibleUnitIDs(ctx, requestcontext.UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	if set.All() {
		writeJSON(w, http.StatusOK, map[string]any{"all": true, "unit_ids": []id.UnitID{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"all": false, "unit_ids": set.IDs()})
}

func (h *AccessHandler) handleAssignableRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := h.access.AssignableRoles(ctx, requestcontext.UserID(ctx), unitID)
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []roles.RoleName{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": names})
}
