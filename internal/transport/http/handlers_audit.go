package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"siscof/internal/audit"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
)

// AuditService defines the interface for reading the audit log.
type AuditService interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
}

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// AuditHandler exposes the audit log to operators. Routes are mounted
// behind the admin token middleware, not end-user auth.
type AuditHandler struct {
	audits AuditService
	logger *slog.Logger
}

func NewAuditHandler(audits AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audits: audits, logger: logger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/admin/audit", h.handleList)
	r.Get("/admin/audit/recent", h.handleRecent)
	r.Get("/admin/audit/export", h.handleExport)
}

// handleRecent is the operator's tail of the log: the newest entries across
// every unit, without filter plumbing.
func (h *AuditHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	entries, err := h.audits.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.audits.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *AuditHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.audits.List(ctx, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := audit.ExportCSV(entries)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit export failed", "error", err.Error())
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export"))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-export.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func filterFromQuery(r *http.Request) (audit.Filter, error) {
	var filter audit.Filter
	query := r.URL.Query()

	if raw := query.Get("unit_id"); raw != "" {
		unitID, err := id.ParseUnitID(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "invalid unit_id filter")
		}
		filter.UnitID = unitID
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "invalid from timestamp")
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "invalid to timestamp")
		}
		filter.To = to
	}
	return filter, nil
}
