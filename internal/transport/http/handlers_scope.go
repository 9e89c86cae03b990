package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
	"siscof/pkg/requestcontext"
)

// ScopeService defines the interface for regional scope operations.
type ScopeService interface {
	GetScope(ctx context.Context, userID id.UserID) ([]string, error)
	SetScope(ctx context.Context, subject id.UserID, regionCodes []string, actor id.UserID) error
}

// ScopeHandler handles the regional scope endpoints.
type ScopeHandler struct {
	scopes ScopeService
	logger *slog.Logger
}

func NewScopeHandler(scopes ScopeService, logger *slog.Logger) *ScopeHandler {
	return &ScopeHandler{scopes: scopes, logger: logger}
}

func (h *ScopeHandler) Register(r chi.Router) {
	r.Get("/users/{userID}/scope", h.handleGetScope)
	r.Put("/users/{userID}/scope", h.handleSetScope)
}

func (h *ScopeHandler) handleGetScope(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	codes, err := h.scopes.GetScope(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"region_codes": codes})
}

type setScopeRequest struct {
	RegionCodes []string `json:"region_codes"`
}

func (h *ScopeHandler) handleSetScope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RegionCodes == nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "region_codes is required"))
		return
	}

	if err := h.scopes.SetScope(ctx, userID, req.RegionCodes, requestcontext.UserID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "scope replace rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathUserID(r *http.Request) (id.UserID, error) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	return userID, nil
}
