// Package service provides the business logic of TradeHub: user records,
// authentication sessions, trading documents, market data and admin views.
package service

import (
	"errors"
	"fmt"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

// Common service errors.
var (
	// ErrInternalError wraps infrastructure failures at the service boundary.
	ErrInternalError = errors.New("internal server error")

	// ErrBusy indicates a per-record lock could not be acquired in time.
	ErrBusy = errors.New("record is busy, retry later")
)

// internal wraps err as an internal error unless it is already a domain error
// the caller is expected to handle.
func internal(err error) error {
	if err == nil || errors.Is(err, ErrInternalError) || errors.Is(err, ErrBusy) {
		return err
	}
	if errors.Is(err, repository.ErrLockNotAcquired) {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrDuplicateEmail,
		domain.ErrUserInactive,
		domain.ErrInvalidCredentials,
		domain.ErrWeakPassword,
		domain.ErrLockedOut,
		domain.ErrAccessDenied,
		domain.ErrAdminInactive,
		domain.ErrUnsupportedSchemaVersion,
		ErrBusy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
