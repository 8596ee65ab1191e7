// Package domain contains the core business entities for TradeHub.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Generic Errors
	// ===========================================

	// ErrNotFound is the root of every "does not exist" error.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrDuplicateEmail indicates a user with the same case-folded email exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrPositionNotFound indicates the position id is absent from the portfolio.
	ErrPositionNotFound = fmt.Errorf("position %w", ErrNotFound)

	// ErrUserInactive indicates the account status does not allow sign-in.
	ErrUserInactive = errors.New("user account is inactive")

	// ===========================================
	// Authentication Errors
	// ===========================================

	// ErrInvalidCredentials indicates authentication failed. It never reveals
	// whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWeakPassword indicates the password strength score is below the minimum.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrLockedOut indicates the identity is locked after too many failures.
	ErrLockedOut = errors.New("too many failed login attempts")

	// ErrSessionNotFound indicates the session does not exist or has expired.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrAccessDenied indicates the caller does not have permission.
	ErrAccessDenied = errors.New("access denied")

	// ===========================================
	// Admin Errors
	// ===========================================

	// ErrAdminNotFound indicates the requested admin does not exist.
	ErrAdminNotFound = fmt.Errorf("admin %w", ErrNotFound)

	// ErrAdminInactive indicates the admin account is disabled.
	ErrAdminInactive = errors.New("admin account is inactive")

	// ===========================================
	// Trading Errors
	// ===========================================

	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)

	// ErrWatchlistNotFound indicates the watchlist does not exist or belongs to someone else.
	ErrWatchlistNotFound = fmt.Errorf("watchlist %w", ErrNotFound)

	// ErrMarketDataNotFound indicates no tick is stored for the symbol.
	ErrMarketDataNotFound = fmt.Errorf("market data %w", ErrNotFound)

	// ===========================================
	// Schema Errors
	// ===========================================

	// ErrUnsupportedSchemaVersion indicates a record is newer than this build understands.
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., user id, email).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// ValidationError lists every field that was missing or malformed.
type ValidationError struct {
	Fields []string
	Reason string
}

// NewValidationError creates a ValidationError for the given fields.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing or invalid fields"
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), reason, strings.Join(e.Fields, ", "))
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// WeakPasswordError carries the strength score and the criteria that failed.
type WeakPasswordError struct {
	Score    int
	Required int
	Missing  []string
}

// Error implements the error interface.
func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("%s: score %d of %d required (missing: %s)",
		ErrWeakPassword.Error(), e.Score, e.Required, strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrWeakPassword.
func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

// LockedOutError carries the time left until the identity unlocks.
type LockedOutError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LockedOutError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrLockedOut.Error(), e.RetryAfter.Round(time.Second))
}

// Unwrap returns ErrLockedOut.
func (e *LockedOutError) Unwrap() error {
	return ErrLockedOut
}
