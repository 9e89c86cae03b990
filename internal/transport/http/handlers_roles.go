package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"siscof/internal/roles"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/requestcontext"
)

// RoleService defines the interface for role assignment operations.
type RoleService interface {
	Grant(ctx context.Context, userID id.UserID, unitID id.UnitID, role roles.RoleName, isManipulator bool, actor id.UserID) (*roles.Assignment, error)
	Revoke(ctx context.Context, userID id.UserID, unitID id.UnitID, role roles.RoleName, actor id.UserID) error
	BulkAssign(ctx context.Context, requests []roles.AssignmentRequest, unitID id.UnitID, actor id.UserID) []roles.AssignResult
	ListRoles(ctx context.Context, userID id.UserID) ([]roles.Assignment, error)
}

// RoleHandler handles grant, revoke and listing of role assignments.
type RoleHandler struct {
	roles  RoleService
	logger *slog.Logger
}

func NewRoleHandler(roles RoleService, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, logger: logger}
}

func (h *RoleHandler) Register(r chi.Router) {
	r.Post("/units/{unitID}/roles", h.handleGrant)
	r.Delete("/units/{unitID}/roles", h.handleRevoke)
	r.Post("/units/{unitID}/roles/bulk", h.handleBulkAssign)
	r.Get("/users/{userID}/roles", h.handleListRoles)
}

type grantRequest struct {
	UserID        string `json:"user_id"`
	RoleName      string `json:"role_name"`
	IsManipulator bool   `json:"is_manipulator"`
}

func (h *RoleHandler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}
	role, err := roles.ParseRoleName(req.RoleName)
	if err != nil {
		writeError(w, err)
		return
	}

	assignment, err := h.roles.Grant(ctx, userID, unitID, role, req.IsManipulator, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "grant rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

type revokeRequest struct {
	UserID   string `json:"user_id"`
	RoleName string `json:"role_name"`
}

func (h *RoleHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}
	role, err := roles.ParseRoleName(req.RoleName)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.roles.Revoke(ctx, userID, unitID, role, requestcontext.UserID(ctx)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkAssignRequest struct {
	Assignments []grantRequest `json:"assignments"`
}

type bulkAssignItemResult struct {
	UserID   string `json:"user_id"`
	RoleName string `json:"role_name"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

func (h *RoleHandler) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := pathUnitID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req bulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Assignments) == 0 {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "empty assignment list"))
		return
	}

	// Parse every item up front so malformed input fails the request as a
	// whole; domain-level failures stay per item.
	requests := make([]roles.AssignmentRequest, len(req.Assignments))
	for i, item := range req.Assignments {
		userID, err := id.ParseUserID(item.UserID)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
			return
		}
		role, err := roles.ParseRoleName(item.RoleName)
		if err != nil {
			writeError(w, err)
			return
		}
		requests[i] = roles.AssignmentRequest{
			UserID:        userID,
			Role:          role,
			IsManipulator: item.IsManipulator,
		}
	}

	results := h.roles.BulkAssign(ctx, requests, unitID, requestcontext.UserID(ctx))

	out := make([]bulkAssignItemResult, len(results))
	for i, result := range results {
		item := bulkAssignItemResult{
			UserID:   result.Request.UserID.String(),
			RoleName: result.Request.Role.String(),
			Status:   "granted",
		}
		if result.Err != nil {
			item.Status = "failed"
			item.Error = string(dErrors.CodeOf(result.Err))
		}
		out[i] = item
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (h *RoleHandler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	assignments, err := h.roles.ListRoles(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if assignments == nil {
		assignments = []roles.Assignment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}
