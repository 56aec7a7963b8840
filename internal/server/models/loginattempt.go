package models

import "time"

// LoginAttempt is the brute-force state of one identifier (normalized email).
// LockedUntil is nil when no lock was ever set in the current streak.
type LoginAttempt struct {
	Identifier  string
	FailedCount int
	WindowStart time.Time
	LockedUntil *time.Time
}

// LockedAt reports whether the record blocks logins at now.
func (a *LoginAttempt) LockedAt(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}
