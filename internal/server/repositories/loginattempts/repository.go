// Package loginattempts persists failed-login counters per identifier.
package loginattempts

import (
	"context"

	"github.com/swaphubteam/SwapIt/internal/server/models"
)

// Repository stores one LoginAttempt per identifier.
type Repository interface {
	// Get returns common.ErrorNotFound when the identifier has no record.
	Get(ctx context.Context, identifier string) (*models.LoginAttempt, error)
	// Save inserts or replaces the record for a.Identifier.
	Save(ctx context.Context, a *models.LoginAttempt) error
	// Delete clears the record; clearing an absent identifier is not an error.
	Delete(ctx context.Context, identifier string) error
}
