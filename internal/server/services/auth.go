// Package services contains the auth business logic. AuthService is the
// single entry point used by the HTTP boundary: signup, login, logout,
// session checks, password reset, Google sign-in and profile updates.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/avatars"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/lockout"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	"github.com/swaphubteam/SwapIt/internal/server/oauth"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/repomanager"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/users"
	"github.com/swaphubteam/SwapIt/internal/server/sessions"
)

// AuthResult is the outcome of a successful signup or login.
type AuthResult struct {
	User    *models.PublicUser
	Session *models.Session
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.Hasher
	guard       *lockout.Guard
	sessions    *sessions.Manager
	validate    *validator.Validate
	logger      logging.Logger

	google   *oauth.Bridge
	avatars  *avatars.Store
	notifier ResetNotifier

	sessionTTL   time.Duration
	queryTimeout time.Duration
	resetSecret  []byte
	resetTTL     time.Duration
	resetURLBase string
}

// NewAuthService wires the service to the active store. db is nil when the
// store is the in-memory fallback.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, hasher *cryptox.Hasher, logger logging.Logger) *AuthService {
	logger = logger.With("module", "auth")
	dbtx := handle(db)

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		guard: lockout.NewGuard(m.LoginAttempts(dbtx), lockout.Policy{
			Threshold: cfg.LockoutThreshold,
			Duration:  cfg.LockoutDuration,
		}, logger),
		sessions: sessions.NewManager(m.Sessions(dbtx), m.Users(dbtx), cfg.SessionTTL),
		validate: newValidator(),
		logger:   logger,

		avatars:  avatars.NewInlineStore(cfg.MaxAvatarBytes),
		notifier: NewLogNotifier(logger),

		sessionTTL:   cfg.SessionTTL,
		queryTimeout: cfg.DBQueryTimeout,
		resetSecret:  []byte(cfg.ResetSecret),
		resetTTL:     cfg.ResetTokenTTL,
		resetURLBase: cfg.ResetURLBase,
	}
}

// WithGoogle enables Google sign-in; a nil bridge leaves it unconfigured.
func (s *AuthService) WithGoogle(b *oauth.Bridge) *AuthService {
	s.google = b
	return s
}

func (s *AuthService) WithAvatars(a *avatars.Store) *AuthService {
	s.avatars = a
	return s
}

func (s *AuthService) WithNotifier(n ResetNotifier) *AuthService {
	s.notifier = n
	return s
}

// SessionTTL is the lifetime of issued sessions, used for cookie Max-Age.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Signup creates an account and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = users.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := check(s.validate, in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, &ValidationError{Field: "Password", Message: "Password is too long"}
		}
		return nil, internalError("hash password", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res *AuthResult
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:        in.Email,
			PasswordHash: hash,
			FullName:     in.FullName,
		})
		if err != nil {
			return err
		}

		sess, err := s.sessionsFor(tx).Issue(ctx, u.ID)
		if err != nil {
			return err
		}
		res = &AuthResult{User: u.Public(), Session: sess}
		return nil
	})

	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, internalError("signup", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", res.User.ID)
	return res, nil
}

// Login gates, verifies and records the attempt in one per-identifier
// section of the lockout guard. Failures return a *LockedError or a
// *CredentialsError; unknown emails count as failures.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = users.NormalizeEmail(in.Email)
	if err := check(s.validate, in); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var u *models.User
	d, err := s.guard.Attempt(ctx, in.Email, func(ctx context.Context) (bool, error) {
		found, err := s.repomanager.Users(s.dbtx()).GetByEmail(ctx, in.Email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			s.hasher.Burn(in.Password)
			return false, nil
		case err != nil:
			return false, internalError("load user", err)
		}
		if !s.hasher.Verify(found.PasswordHash, in.Password) {
			return false, nil
		}
		u = found
		return true, nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrorInternal) {
			err = internalError("lockout", err)
		}
		return nil, err
	}

	if err := loginRefused(d); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, u)
}

// Logout revokes token. Storage errors are logged, never returned.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.Error(ctx, "revoke session", "error", err.Error())
	}
	return nil
}

// CheckAuth resolves the session token to its user, or common.ErrorUnauthorized.
func (s *AuthService) CheckAuth(ctx context.Context, token string) (*models.PublicUser, error) {
	u, err := s.currentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (s *AuthService) currentUser(ctx context.Context, token string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.sessions.Validate(ctx, token)
	switch {
	case errors.Is(err, common.ErrInvalidSession):
		return nil, common.ErrorUnauthorized
	case err != nil:
		return nil, internalError("validate session", err)
	}
	return u, nil
}

// PurgeExpiredSessions deletes sessions past their expiry and reports how
// many went away.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		return 0, internalError("purge sessions", err)
	}
	return n, nil
}

// loginRefused turns a guard decision that did not accept the login into
// the matching error.
func loginRefused(d lockout.Decision) error {
	switch {
	case d.Locked:
		return &LockedError{Until: d.LockedUntil}
	case !d.Accepted:
		return &CredentialsError{Remaining: d.Remaining}
	}
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, u *models.User) (*AuthResult, error) {
	sess, err := s.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, internalError("issue session", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return &AuthResult{User: u.Public(), Session: sess}, nil
}

func (s *AuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return dbx.WithTimeout(ctx, s.queryTimeout)
}

func (s *AuthService) dbtx() dbx.DBTX {
	return handle(s.db)
}

// handle avoids a non-nil DBTX wrapping a nil *sql.DB in fallback mode.
func handle(db *sql.DB) dbx.DBTX {
	if db == nil {
		return nil
	}
	return db
}

// inTx runs fn in a transaction on Postgres and directly in fallback mode.
func (s *AuthService) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func (s *AuthService) sessionsFor(tx dbx.DBTX) *sessions.Manager {
	return sessions.NewManager(s.repomanager.Sessions(tx), s.repomanager.Users(tx), s.sessionTTL)
}
