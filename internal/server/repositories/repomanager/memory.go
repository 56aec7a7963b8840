package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/loginattempts"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/sessions"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/users"
)

// FallbackAccount is a pre-seeded login of the in-memory store.
type FallbackAccount struct {
	Email    string
	Password string
	FullName string
}

// FallbackAccounts seed every MemoryRepositoryManager.
var FallbackAccounts = []FallbackAccount{
	{Email: "test@example.com", Password: "password123", FullName: "Test User"},
	{Email: "test@ashesi.edu.gh", Password: "password123", FullName: "Ashesi Test User"},
	{Email: "admin@swapit.com", Password: "admin123", FullName: "SwapIt Admin"},
}

// MemoryRepositoryManager serves the fallback dataset. The DBTX arguments are
// ignored and every call returns the same repositories, so state is shared
// for the process lifetime and never written back to a database.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	sessions *sessions.MemoryRepository
	attempts *loginattempts.MemoryRepository
}

// NewMemoryRepositoryManager hashes FallbackAccounts with h and seeds the user store.
func NewMemoryRepositoryManager(h *cryptox.Hasher) (*MemoryRepositoryManager, error) {
	seed := make([]models.User, 0, len(FallbackAccounts))
	for _, a := range FallbackAccounts {
		hash, err := h.Hash(a.Password)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", a.Email, err)
		}
		seed = append(seed, models.User{Email: a.Email, PasswordHash: hash, FullName: a.FullName, IsVerified: true})
	}

	return &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(seed...),
		sessions: sessions.NewMemoryRepository(),
		attempts: loginattempts.NewMemoryRepository(),
	}, nil
}

// RunMigrations is a no-op; the in-memory schema needs no migration or charset step.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return m.sessions
}

func (m *MemoryRepositoryManager) LoginAttempts(dbx.DBTX) loginattempts.Repository {
	return m.attempts
}
