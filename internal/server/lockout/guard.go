// Package lockout limits brute-force login attempts per identifier.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/loginattempts"
)

// Policy is the lockout configuration.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

// Decision is the gate outcome for one identifier.
type Decision struct {
	Locked      bool
	LockedUntil time.Time
	RetryAfter  time.Duration
	// Remaining is the number of failures left before a lock.
	Remaining int
	// Accepted marks a success that was recorded.
	Accepted bool
}

type Guard struct {
	repo   loginattempts.Repository
	policy Policy
	locks  *keyedMutex
	now    func() time.Time
	logger logging.Logger
}

func NewGuard(repo loginattempts.Repository, policy Policy, logger logging.Logger) *Guard {
	if policy.Threshold <= 0 {
		policy.Threshold = 5
	}
	if policy.Duration <= 0 {
		policy.Duration = 15 * time.Minute
	}
	return &Guard{
		repo:   repo,
		policy: policy,
		locks:  newKeyedMutex(),
		now:    time.Now,
		logger: logger.With("module", "lockout"),
	}
}

// Normalize returns the key under which attempts for identifier are tracked.
func Normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Check reports whether identifier may attempt a login now. An expired lock
// is cleared here.
func (g *Guard) Check(ctx context.Context, identifier string) (Decision, error) {
	id := Normalize(identifier)
	unlock := g.locks.Lock(id)
	defer unlock()

	return g.check(ctx, id)
}

// RecordFailure counts a failed attempt. The returned decision already
// reflects this failure, so the attempt that reaches the threshold reports
// Locked. Failures while locked do not extend the lock.
func (g *Guard) RecordFailure(ctx context.Context, identifier string) (Decision, error) {
	id := Normalize(identifier)
	unlock := g.locks.Lock(id)
	defer unlock()

	return g.recordFailure(ctx, id)
}

// RecordSuccess clears the failure state for identifier unless it is
// locked, in which case the record stays and a Locked decision is returned.
func (g *Guard) RecordSuccess(ctx context.Context, identifier string) (Decision, error) {
	id := Normalize(identifier)
	unlock := g.locks.Lock(id)
	defer unlock()

	return g.recordSuccess(ctx, id)
}

// Reset drops all state for identifier, active lock included.
func (g *Guard) Reset(ctx context.Context, identifier string) error {
	id := Normalize(identifier)
	unlock := g.locks.Lock(id)
	defer unlock()

	if err := g.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("clear attempts: %w", err)
	}
	return nil
}

// Attempt gates, verifies and records one login for identifier inside a
// single critical section, so concurrent attempts are judged one at a time.
// verify is not called while the identifier is locked. An error from verify
// is returned as is and records nothing.
func (g *Guard) Attempt(ctx context.Context, identifier string, verify func(ctx context.Context) (bool, error)) (Decision, error) {
	id := Normalize(identifier)
	unlock := g.locks.Lock(id)
	defer unlock()

	d, err := g.check(ctx, id)
	if err != nil || d.Locked {
		return d, err
	}

	ok, err := verify(ctx)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return g.recordFailure(ctx, id)
	}
	return g.recordSuccess(ctx, id)
}

func (g *Guard) check(ctx context.Context, id string) (Decision, error) {
	a, err := g.load(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	if a == nil {
		return g.allowed(0), nil
	}

	now := g.now()
	if a.LockedAt(now) {
		return g.locked(*a.LockedUntil, now), nil
	}

	if a.LockedUntil != nil || g.stale(a, now) {
		if err := g.repo.Delete(ctx, id); err != nil {
			return Decision{}, fmt.Errorf("clear expired lock: %w", err)
		}
		return g.allowed(0), nil
	}

	return g.allowed(a.FailedCount), nil
}

func (g *Guard) recordFailure(ctx context.Context, id string) (Decision, error) {
	a, err := g.load(ctx, id)
	if err != nil {
		return Decision{}, err
	}

	now := g.now()
	if a != nil && a.LockedAt(now) {
		return g.locked(*a.LockedUntil, now), nil
	}
	if a == nil || a.LockedUntil != nil || g.stale(a, now) {
		a = &models.LoginAttempt{Identifier: id, WindowStart: now}
	}

	a.FailedCount++
	if a.FailedCount >= g.policy.Threshold {
		until := now.Add(g.policy.Duration)
		a.LockedUntil = &until
	}

	if err := g.repo.Save(ctx, a); err != nil {
		return Decision{}, fmt.Errorf("save attempt: %w", err)
	}

	if a.LockedUntil != nil {
		g.logger.Warn(ctx, "identifier locked", "identifier", id, "locked_until", a.LockedUntil.UTC().Format(time.RFC3339))
		return g.locked(*a.LockedUntil, now), nil
	}
	return g.allowed(a.FailedCount), nil
}

func (g *Guard) recordSuccess(ctx context.Context, id string) (Decision, error) {
	a, err := g.load(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	if a == nil {
		return g.accepted(), nil
	}

	now := g.now()
	if a.LockedAt(now) {
		return g.locked(*a.LockedUntil, now), nil
	}

	if err := g.repo.Delete(ctx, id); err != nil {
		return Decision{}, fmt.Errorf("clear attempts: %w", err)
	}
	return g.accepted(), nil
}

func (g *Guard) load(ctx context.Context, id string) (*models.LoginAttempt, error) {
	a, err := g.repo.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return a, nil
}

// stale reports whether a's failure streak began a full lockout window ago.
func (g *Guard) stale(a *models.LoginAttempt, now time.Time) bool {
	return now.Sub(a.WindowStart) >= g.policy.Duration
}

func (g *Guard) allowed(failed int) Decision {
	return Decision{Remaining: g.policy.Threshold - failed}
}

func (g *Guard) accepted() Decision {
	return Decision{Remaining: g.policy.Threshold, Accepted: true}
}

func (g *Guard) locked(until, now time.Time) Decision {
	return Decision{Locked: true, LockedUntil: until, RetryAfter: until.Sub(now)}
}
