// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account record. PasswordHash is empty for accounts created
// through Google sign-in.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	AvatarURL    *string
	IsVerified   bool
	GoogleSub    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the part of a User that may leave the server.
type PublicUser struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// Public strips credentials from u.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{ID: u.ID, Email: u.Email, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// ProfileUpdate lists profile fields to change; nil means leave as is.
type ProfileUpdate struct {
	FullName  *string
	AvatarURL *string
}
