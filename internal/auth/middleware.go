package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
)

// SessionLookup returns the live session for an id or
// domain.ErrSessionNotFound.
type SessionLookup interface {
	CurrentSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

type contextKey struct{}

// AuthContext is the authenticated caller attached to a request.
type AuthContext struct {
	SessionID string
	Subject   string
	Email     string
	Kind      domain.SessionKind
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller holds an admin session.
func (a *AuthContext) IsAdmin() bool {
	return a != nil && a.Kind == domain.SessionAdmin
}

// Middleware verifies the bearer token and then the session it names.
func Middleware(tokens *TokenManager, sessions SessionLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := authenticate(r, tokens, sessions)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

func authenticate(r *http.Request, tokens *TokenManager, sessions SessionLookup) (*AuthContext, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	sess, err := sessions.CurrentSession(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	if sess.Subject != claims.Subject || sess.Kind != claims.Kind {
		return nil, ErrInvalidToken
	}

	return &AuthContext{
		SessionID: sess.ID,
		Subject:   sess.Subject,
		Email:     sess.Email,
		Kind:      sess.Kind,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// RequireKind rejects callers whose session is not of kind.
func RequireKind(kind domain.SessionKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if authCtx == nil {
				writeAuthError(w, ErrMissingToken)
				return
			}
			if authCtx.Kind != kind {
				writeAuthError(w, ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects callers without an admin session.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireKind(domain.SessionAdmin)
}

// writeAuthError writes a JSON error response.
func writeAuthError(w http.ResponseWriter, err error) {
	authErr := NewAuthError(err)

	w.Header().Set("Content-Type", "application/json")
	if authErr.HTTPStatus == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", BearerScheme)
	}
	w.WriteHeader(authErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    string(authErr.Code),
			"message": authErr.Message,
		},
	})
}

// WithAuthContext returns ctx carrying authCtx.
func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, authCtx)
}

// GetAuthContext retrieves the AuthContext from a request context.
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(contextKey{}).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// RequireAuth returns the auth context or ErrMissingToken.
func RequireAuth(ctx context.Context) (*AuthContext, error) {
	authCtx := GetAuthContext(ctx)
	if authCtx == nil {
		return nil, ErrMissingToken
	}
	return authCtx, nil
}
