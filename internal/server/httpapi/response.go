package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/services"
)

// remaining_attempts is only shown once the lock is close.
const remainingAttemptsShown = 2

const outcomeError = "error"

// classify maps a service error to a status, a metrics outcome and the
// message shown to the user.
func classify(err error) (int, string, string) {
	var (
		verr *services.ValidationError
		lerr *services.LockedError
		cerr *services.CredentialsError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "invalid", verr.Message
	case errors.As(err, &lerr):
		return http.StatusTooManyRequests, "locked", "Account temporarily locked due to too many failed login attempts"
	case errors.As(err, &cerr):
		return http.StatusUnauthorized, "rejected", "Invalid email or password"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "conflict", "An account with this email already exists"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthenticated", "Not authenticated"
	case errors.Is(err, common.ErrOAuthFailed):
		return http.StatusUnauthorized, "oauth_failed", "Google sign-in failed"
	case errors.Is(err, common.ErrOAuthUnconfigured):
		return http.StatusServiceUnavailable, "unconfigured", "Google sign-in is not configured"
	default:
		return http.StatusServiceUnavailable, outcomeError, "Service temporarily unavailable"
	}
}

// fail writes the failure body for err. Unexpected errors are logged and
// their text is only exposed outside production.
func (h *Handler) fail(c *gin.Context, name string, err error) {
	status, outcome, msg := classify(err)
	body := gin.H{"success": false, "message": msg}

	var lerr *services.LockedError
	if errors.As(err, &lerr) {
		body["locked"] = true
		body["retry_after"] = lerr.Until.Unix()
	}

	var cerr *services.CredentialsError
	if errors.As(err, &cerr) && cerr.Remaining <= remainingAttemptsShown {
		body["remaining_attempts"] = cerr.Remaining
	}

	if outcome == outcomeError {
		h.logger.Error(c.Request.Context(), "action failed", "action", name, "error", err.Error())
		if !h.production {
			body["details"] = err.Error()
		}
	}

	recordOutcome(name, outcome)
	c.JSON(status, body)
}
