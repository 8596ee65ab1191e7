package handler

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/service"
)

// editableProfileKeys are the top-level sections a user may patch
// through the profile endpoint.
var editableProfileKeys = map[string]bool{
	"profile":     true,
	"preferences": true,
}

// UserHandler serves the signed-in user's profile, watchlist and portfolio.
type UserHandler struct {
	users  *service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

// GetProfile handles GET /api/user/profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	user, found, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !found {
		writeError(w, r, h.logger, domain.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/user/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var patch domain.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if len(patch) == 0 {
		writeError(w, r, h.logger, domain.NewValidationError("nothing to update"))
		return
	}
	var rejected []string
	for key := range patch {
		if !editableProfileKeys[key] {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		writeError(w, r, h.logger, domain.NewValidationError("fields cannot be changed here", rejected...))
		return
	}

	user, err := h.users.UpdateUser(r.Context(), userID, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// AddToWatchlist handles POST /api/user/watchlist.
func (h *UserHandler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var req symbolRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	added, err := h.users.AddToWatchlist(r.Context(), userID, req.Symbol)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": domain.NormalizeSymbol(req.Symbol),
		"added":  added,
	})
}

// RemoveFromWatchlist handles DELETE /api/user/watchlist/{symbol}.
func (h *UserHandler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject
	symbol := chi.URLParam(r, "symbol")

	removed, err := h.users.RemoveFromWatchlist(r.Context(), userID, symbol)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":  domain.NormalizeSymbol(symbol),
		"removed": removed,
	})
}

// GetPortfolio handles GET /api/portfolio.
func (h *UserHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	view, err := h.users.GetPortfolio(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AddPosition handles POST /api/portfolio/position.
func (h *UserHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var input service.AddPositionInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pos, err := h.users.AddPosition(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

// UpdatePosition handles PUT /api/portfolio/position/{id}.
func (h *UserHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var patch domain.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pos, err := h.users.UpdatePosition(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
