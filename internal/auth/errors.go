package auth

import (
	"errors"
	"net/http"
)

// Authentication errors.
var (
	// ErrMissingToken indicates the request carries no bearer token.
	ErrMissingToken = errors.New("authentication required")

	// ErrInvalidAuthorizationHeader indicates the Authorization header is malformed.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrInvalidToken indicates the token signature or claims are invalid.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionExpired indicates the session behind the token is gone.
	ErrSessionExpired = errors.New("session expired or signed out")

	// ErrAccessDenied indicates the caller is authenticated but not allowed.
	ErrAccessDenied = errors.New("access denied")
)

// ErrorCode is the machine-readable code in error responses.
type ErrorCode string

const (
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken    ErrorCode = "INVALID_TOKEN"
	CodeSessionExpired  ErrorCode = "SESSION_EXPIRED"
	CodeMalformedHeader ErrorCode = "MALFORMED_AUTHORIZATION"
	CodeAccessDenied    ErrorCode = "ACCESS_DENIED"
)

// AuthError is an authentication failure with its HTTP status.
type AuthError struct {
	// Code is the error code.
	Code ErrorCode

	// Message is the error message.
	Message string

	// HTTPStatus is the HTTP status code.
	HTTPStatus int
}

func (e *AuthError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewAuthError maps err to an AuthError.
func NewAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrMissingToken):
		return &AuthError{Code: CodeUnauthorized, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrInvalidAuthorizationHeader):
		return &AuthError{Code: CodeMalformedHeader, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrSessionExpired):
		return &AuthError{Code: CodeSessionExpired, Message: err.Error(), HTTPStatus: http.StatusUnauthorized}

	case errors.Is(err, ErrAccessDenied):
		return &AuthError{Code: CodeAccessDenied, Message: err.Error(), HTTPStatus: http.StatusForbidden}

	default:
		return &AuthError{Code: CodeInvalidToken, Message: ErrInvalidToken.Error(), HTTPStatus: http.StatusUnauthorized}
	}
}
