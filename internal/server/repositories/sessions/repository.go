// Package sessions declares the repository contract for server-side login
// sessions and its Postgres, Redis and in-memory implementations.
package sessions

import (
	"context"
	"time"

	"github.com/swaphubteam/SwapIt/internal/server/models"
)

// Repository stores sessions keyed by their opaque token.
type Repository interface {
	// Create stores s. Tokens are unique; a collision returns common.ErrorAlreadyExists.
	Create(ctx context.Context, s *models.Session) error

	// Find returns the session for token or common.ErrorNotFound. Expired
	// sessions may still be returned; callers check Expired.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Delete removes the session. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired purges sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
