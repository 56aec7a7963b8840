// Package sessions issues, validates and revokes opaque login session tokens.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	sessionrepo "github.com/swaphubteam/SwapIt/internal/server/repositories/sessions"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/users"
)

// TokenBytes is the entropy of a session token before encoding.
const TokenBytes = 32

const issueAttempts = 3

type Manager struct {
	sessions sessionrepo.Repository
	users    users.Repository
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

func NewManager(s sessionrepo.Repository, u users.Repository, ttl time.Duration) *Manager {
	return &Manager{
		sessions: s,
		users:    u,
		ttl:      ttl,
		now:      time.Now,
		newToken: func() (string, error) { return common.MakeRandToken(TokenBytes) },
	}
}

// TTL is the lifetime given to new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for userID.
func (m *Manager) Issue(ctx context.Context, userID int64) (*models.Session, error) {
	for i := 0; i < issueAttempts; i++ {
		token, err := m.newToken()
		if err != nil {
			return nil, fmt.Errorf("session token: %w", err)
		}

		now := m.now()
		s := &models.Session{Token: token, UserID: userID, IssuedAt: now, ExpiresAt: now.Add(m.ttl)}

		err = m.sessions.Create(ctx, s)
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("session token collided %d times", issueAttempts)
}

// Validate resolves token to its user. Unknown, expired and orphaned tokens
// all yield common.ErrInvalidSession; expired ones are deleted.
func (m *Manager) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrInvalidSession
	}

	s, err := m.sessions.Find(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	if s.Expired(m.now()) {
		if err := m.sessions.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidSession
	}

	u, err := m.users.GetByID(ctx, s.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		_ = m.sessions.Delete(ctx, token)
		return nil, common.ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Revoke deletes the session. It is idempotent.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.sessions.Delete(ctx, token)
}

// PurgeExpired removes expired sessions from the store.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.sessions.DeleteExpired(ctx, m.now())
}
