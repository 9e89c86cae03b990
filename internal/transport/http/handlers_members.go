package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"siscof/internal/members"
	id "siscof/pkg/domain"
	"siscof/pkg/requestcontext"
)

// MemberService defines the interface for roster reads.
type MemberService interface {
	ListVisible(ctx context.Context, viewer id.UserID, limit, offset int) ([]members.Member, error)
}

// MemberHandler handles roster endpoints.
type MemberHandler struct {
	members MemberService
	logger  *slog.Logger
}

func NewMemberHandler(membersSvc MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: membersSvc, logger: logger}
}

func (h *MemberHandler) Register(r chi.Router) {
	r.Get("/members", h.handleList)
}

func (h *MemberHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.members.ListVisible(ctx, requestcontext.UserID(ctx), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if page == nil {
		page = []members.Member{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": page})
}
