package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/repository"
	"github.com/prn-tf/tradehub/internal/service"
)

// Admin permissions checked by the back-office endpoints.
const (
	PermissionUserManagement = "user_management"
	PermissionAnalytics      = "analytics"
)

// AdminHandler serves the back-office endpoints. Every route requires an
// admin session; each handler also checks a permission.
type AdminHandler struct {
	admins *service.AdminService
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admins *service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		admins: admins,
		logger: logger.With().Str("handler", "admin").Logger(),
	}
}

// Page is a paginated list payload.
type Page[T any] struct {
	Items  []*T  `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

func newPage[T any](res *repository.ListResult[T]) Page[T] {
	items := res.Items
	if items == nil {
		items = []*T{}
	}
	return Page[T]{Items: items, Total: res.Total, Offset: res.Offset, Limit: res.Limit}
}

// authorize checks the permission and writes the error response on failure.
func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request, permission string) bool {
	adminID := auth.GetAuthContext(r.Context()).Subject
	if _, err := h.admins.Authorize(r.Context(), adminID, permission); err != nil {
		h.logger.Warn().Str("admin_id", adminID).Str("permission", permission).Msg("admin access denied")
		writeError(w, r, h.logger, err)
		return false
	}
	return true
}

// ListUsers handles GET /api/admin/users?limit=&offset=.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, PermissionUserManagement) {
		return
	}

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.admins.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(res))
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, PermissionUserManagement) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.admins.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info().
		Str("admin_id", auth.GetAuthContext(r.Context()).Subject).
		Str("user_id", id).
		Msg("user deleted by admin")
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, "") {
		return
	}

	stats, err := h.admins.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Analytics handles GET /api/admin/analytics.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, PermissionAnalytics) {
		return
	}

	analytics, err := h.admins.Analytics(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
