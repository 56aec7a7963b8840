// Package users declares the credential store contract and its Postgres and
// in-memory implementations.
package users

import (
	"context"
	"strings"

	"github.com/swaphubteam/SwapIt/internal/server/models"
)

// Repository stores user accounts. Emails match case-insensitively.
// Lookups of absent users return common.ErrorNotFound; a duplicate email or
// Google subject on Create returns common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	LinkGoogle(ctx context.Context, id int64, sub string) error
}

// NormalizeEmail is the canonical form used as a key everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
