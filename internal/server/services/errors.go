package services

import (
	"fmt"
	"time"

	"github.com/swaphubteam/SwapIt/internal/common"
)

// ErrEmailTaken is returned by Signup for an email that already has an account.
var ErrEmailTaken = fmt.Errorf("%w: an account with this email already exists", common.ErrorAlreadyExists)

// ValidationError carries a message that can be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == common.ErrValidation }

// LockedError rejects a login while the identifier is locked.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return "account temporarily locked due to too many failed login attempts"
}

func (e *LockedError) Is(target error) bool { return target == common.ErrLocked }

// RetryAfter is the time left on the lock at now, never negative.
func (e *LockedError) RetryAfter(now time.Time) time.Duration {
	if d := e.Until.Sub(now); d > 0 {
		return d
	}
	return 0
}

// CredentialsError is a failed password check. Remaining counts the
// failures left before the identifier locks.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string { return "invalid email or password" }

func (e *CredentialsError) Is(target error) bool { return target == common.ErrorUnauthorized }

// internalError hides storage failures behind common.ErrorInternal while
// keeping the cause for logs.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}
