package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/server/auth"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/users"
)

var errResetLinkInvalid = &ValidationError{Field: "Reset token", Message: "This reset link is invalid or has expired"}

// ResetPassword sends a reset link when email has an account. The result
// does not reveal whether it does.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetInput) error {
	in.Email = users.NormalizeEmail(in.Email)
	if err := check(s.validate, in); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.repomanager.Users(s.dbtx()).GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.logger.Debug(ctx, "password reset for unknown email")
		return nil
	case err != nil:
		return internalError("load user", err)
	}

	token, err := auth.GenerateResetToken(u.ID, fingerprint(u.PasswordHash), s.resetSecret, s.resetTTL)
	if err != nil {
		return internalError("sign reset token", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, u.Email, s.resetLink(token)); err != nil {
		s.logger.Error(ctx, "send reset link", "user_id", u.ID, "error", err.Error())
	}
	return nil
}

// CompleteReset sets a new password from a reset link and clears the
// account's lockout state. A link works once: the new hash changes the
// fingerprint it was bound to.
func (s *AuthService) CompleteReset(ctx context.Context, in CompleteResetInput) error {
	if err := check(s.validate, in); err != nil {
		return err
	}

	claims, err := auth.ParseResetToken(in.Token, s.resetSecret)
	if err != nil {
		return errResetLinkInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return errResetLinkInvalid
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return &ValidationError{Field: "Password", Message: "Password is too long"}
		}
		return internalError("hash password", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var email string
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if fingerprint(u.PasswordHash) != claims.Fingerprint {
			return errResetLinkInvalid
		}
		email = u.Email
		return repo.UpdatePassword(ctx, userID, hash)
	})

	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrValidation):
		return errResetLinkInvalid
	case err != nil:
		return internalError("reset password", err)
	}

	if err := s.guard.Reset(ctx, email); err != nil {
		return internalError("clear lockout", err)
	}

	s.logger.Info(ctx, "password reset completed", "user_id", userID)
	return nil
}

func (s *AuthService) resetLink(token string) string {
	u, err := url.Parse(s.resetURLBase)
	if err != nil {
		return s.resetURLBase + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
