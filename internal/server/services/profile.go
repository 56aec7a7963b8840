package services

import (
	"context"
	"errors"
	"strings"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/models"
)

// UpdateProfile changes the supplied fields of the session's user. Avatars
// pass through the avatar store first.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, in ProfileInput) (*models.PublicUser, error) {
	u, err := s.currentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, &ValidationError{Field: "FullName", Message: "Full name cannot be empty"}
		}
		in.FullName = &name
	}
	if err := check(s.validate, in); err != nil {
		return nil, err
	}

	upd := models.ProfileUpdate{FullName: in.FullName}
	if in.AvatarURL != nil {
		avatar, err := s.avatars.Normalize(ctx, u.ID, *in.AvatarURL)
		switch {
		case errors.Is(err, common.ErrValidation):
			return nil, &ValidationError{Field: "AvatarURL", Message: strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")}
		case err != nil:
			return nil, internalError("store avatar", err)
		}
		upd.AvatarURL = &avatar
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updated, err := s.repomanager.Users(s.dbtx()).UpdateProfile(ctx, u.ID, upd)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorUnauthorized
	case err != nil:
		return nil, internalError("update profile", err)
	}
	return updated.Public(), nil
}
