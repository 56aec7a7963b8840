package services

import (
	"context"
	"errors"
	"strings"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	"github.com/swaphubteam/SwapIt/internal/server/oauth"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/users"
)

// GoogleConfig returns the public client id or common.ErrOAuthUnconfigured.
func (s *AuthService) GoogleConfig() (string, error) {
	return s.google.ClientID()
}

// GoogleLogin exchanges code, resolves or creates the local account and
// signs it in like Login. A lock on the account's email refuses the login
// atomically with clearing its failures. Provider failures are logged and
// reported as common.ErrOAuthFailed; no account is created for them.
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (*AuthResult, error) {
	claims, err := s.google.Exchange(ctx, strings.TrimSpace(code))
	switch {
	case errors.Is(err, common.ErrOAuthUnconfigured):
		return nil, err
	case err != nil:
		s.logger.Warn(ctx, "google sign-in failed", "error", err.Error())
		return nil, common.ErrOAuthFailed
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	email := users.NormalizeEmail(claims.Email)

	var u *models.User
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		u, err = s.resolveGoogleUser(ctx, tx, claims, email)
		return err
	})
	if err != nil {
		return nil, internalError("resolve google user", err)
	}

	// the lockout is keyed by the local account email, which may differ
	// from the Google one for a linked account
	d, err := s.guard.RecordSuccess(ctx, u.Email)
	if err != nil {
		return nil, internalError("lockout", err)
	}
	if err := loginRefused(d); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, u)
}

// resolveGoogleUser finds the account by Google subject, then by email
// (linking the subject), and creates one otherwise.
func (s *AuthService) resolveGoogleUser(ctx context.Context, tx dbx.DBTX, c *oauth.Claims, email string) (*models.User, error) {
	repo := s.repomanager.Users(tx)

	u, err := repo.GetByGoogleSub(ctx, c.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	u, err = repo.GetByEmail(ctx, email)
	if err == nil {
		if err := repo.LinkGoogle(ctx, u.ID, c.Subject); err != nil {
			return nil, err
		}
		sub := c.Subject
		u.GoogleSub = &sub
		u.IsVerified = true
		return u, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	sub := c.Subject
	nu := &models.User{Email: email, FullName: name, IsVerified: true, GoogleSub: &sub}
	if c.Picture != "" {
		pic := c.Picture
		nu.AvatarURL = &pic
	}

	u, err = repo.Create(ctx, nu)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user signed up with google", "user_id", u.ID)
	return u, nil
}
