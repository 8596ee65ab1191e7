package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/service"
)

// AuthHandler serves registration, sign-in, sign-out and password reset.
type AuthHandler struct {
	auth   *service.AuthService
	tokens *auth.TokenManager
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, tokens *auth.TokenManager, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		tokens: tokens,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// TokenResponse is returned by both sign-in endpoints.
type TokenResponse struct {
	Token     string              `json:"token"`
	TokenType string              `json:"tokenType"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Session   *domain.Session     `json:"session"`
	User      *domain.UserRecord  `json:"user,omitempty"`
	Admin     *domain.AdminRecord `json:"admin,omitempty"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.SignInInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	input.IPAddress = clientIP(r)

	res, err := h.auth.SignIn(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(res.Session)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: auth.BearerScheme,
		ExpiresAt: res.Session.ExpiresAt,
		Session:   res.Session,
		User:      res.User,
	})
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLogin handles POST /api/admin/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	admin, sess, err := h.auth.SignInAdmin(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(sess)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: auth.BearerScheme,
		ExpiresAt: sess.ExpiresAt,
		Session:   sess,
		Admin:     admin,
	})
}

// Logout handles POST /api/auth/logout. The token stays verifiable but the
// session it names is gone, so later requests fail.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())
	if err := h.auth.SignOut(r.Context(), authCtx.SessionID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"signedOut": true})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset handles POST /api/auth/password-reset. The response
// is the same whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Email == "" {
		writeError(w, r, h.logger, domain.NewValidationError("missing or invalid fields", "email"))
		return
	}

	err := h.auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the address is registered, a reset link has been sent",
	})
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ConfirmPasswordReset handles POST /api/auth/password-reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}
