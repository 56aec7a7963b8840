// Package common defines shared constants and sentinel errors used across
// the SwapIt auth service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Auth errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidSession = errors.New("invalid session")
	ErrLocked         = errors.New("account temporarily locked")

	// OAuth errors.
	ErrOAuthUnconfigured = errors.New("oauth provider not configured")
	ErrOAuthFailed       = errors.New("oauth exchange failed")
)
