package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"siscof/internal/hierarchy"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/requestcontext"
)

// UnitService defines the interface for unit lifecycle operations.
type UnitService interface {
	GetUnit(ctx context.Context, unitID id.UnitID) (*hierarchy.Unit, error)
	GetAncestors(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error)
	CreateUnit(ctx context.Context, name string, level hierarchy.Level, parentID *id.UnitID, regionCode string, actor id.UserID) (*hierarchy.Unit, error)
	MoveUnit(ctx context.Context, unitID, newParentID id.UnitID, actor id.UserID) (*hierarchy.Unit, error)
	DeactivateUnit(ctx context.Context, unitID id.UnitID, actor id.UserID) (*hierarchy.Unit, error)
}

// UnitHandler handles organizational unit endpoints.
type UnitHandler struct {
	units  UnitService
	logger *slog.Logger
}

func NewUnitHandler(units UnitService, logger *slog.Logger) *UnitHandler {
	return &UnitHandler{units: units, logger: logger}
}

// Register mounts the unit routes on an authenticated router.
func (h *UnitHandler) Register(r chi.Router) {
	r.Post("/units", h.handleCreate)
	r.Get("/units/{unitID}", h.handleGet)
	r.Get("/units/{unitID}/ancestors", h.handleAncestors)
	r.Post("/units/{unitID}/move", h.handleMove)
	r.Post("/units/{unitID}/deactivate", h.handleDeactivate)
}

type createUnitRequest struct {
	Name       string  `json:"name"`
	Level      string  `json:"level"`
	ParentID   *string `json:"parent_id"`
	RegionCode string  `json:"region_code"`
}

func (h *UnitHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	level, err := hierarchy.ParseLevel(req.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	var parentID *id.UnitID
	if req.ParentID != nil {
		parsed, err := id.ParseUnitID(*req.ParentID)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid parent id"))
			return
		}
		parentID = &parsed
	}

	unit, err := h.units.CreateUnit(ctx, req.Name, level, parentID, req.RegionCode, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "unit creation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

func (h *UnitHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.units.GetUnit(r.Context(), unitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *UnitHandler) handleAncestors(w http.ResponseWriter, r *http.Request) {
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ancestors, err := h.units.GetAncestors(r.Context(), unitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ancestor_ids": ancestors})
}

type moveUnitRequest struct {
	NewParentID string `json:"new_parent_id"`
}

func (h *UnitHandler) handleMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	newParentID, err := id.ParseUnitID(req.NewParentID)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid parent id"))
		return
	}
	unit, err := h.units.MoveUnit(ctx, unitID, newParentID, requestcontext.UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *UnitHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.units.DeactivateUnit(ctx, unitID, requestcontext.UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func pathUnitID(r *http.Request) (id.UnitID, error) {
	unitID, err := id.ParseUnitID(chi.URLParam(r, "unitID"))
	if err != nil {
		return id.UnitID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid unit id")
	}
	return unitID, nil
}
