package lockout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/loginattempts"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newGuard(t *testing.T, threshold int) (*Guard, *loginattempts.MemoryRepository, *clock) {
	t.Helper()
	repo := loginattempts.NewMemoryRepository()
	g := NewGuard(repo, Policy{Threshold: threshold, Duration: 15 * time.Minute}, logging.NewNopLogger())
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g.now = c.Now
	return g, repo, c
}

func TestCheck_UnknownIdentifierAllowed(t *testing.T) {
	g, _, _ := newGuard(t, 5)

	d, err := g.Check(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, d.Locked)
	assert.Equal(t, 5, d.Remaining)
}

func TestRecordFailure_LocksAtThreshold(t *testing.T) {
	g, _, c := newGuard(t, 5)
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		d, err := g.RecordFailure(ctx, "user@x.com")
		require.NoError(t, err)
		assert.False(t, d.Locked, "attempt %d", i)
		assert.Equal(t, 5-i, d.Remaining)
	}

	d, err := g.RecordFailure(ctx, "user@x.com")
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Equal(t, c.Now().Add(15*time.Minute), d.LockedUntil)

	d, err = g.Check(ctx, "USER@x.com ")
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestRecordFailure_DoesNotExtendLock(t *testing.T) {
	g, repo, c := newGuard(t, 2)
	ctx := context.Background()

	_, _ = g.RecordFailure(ctx, "a")
	first, err := g.RecordFailure(ctx, "a")
	require.NoError(t, err)
	require.True(t, first.Locked)

	c.Advance(time.Minute)
	again, err := g.RecordFailure(ctx, "a")
	require.NoError(t, err)
	assert.True(t, again.Locked)
	assert.Equal(t, first.LockedUntil, again.LockedUntil)

	rec, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.FailedCount)
}

func TestCheck_ExpiredLockClears(t *testing.T) {
	g, repo, c := newGuard(t, 1)
	ctx := context.Background()

	d, err := g.RecordFailure(ctx, "a")
	require.NoError(t, err)
	require.True(t, d.Locked)

	c.Advance(15*time.Minute + time.Second)

	d, err = g.Check(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Locked)
	assert.Equal(t, 1, d.Remaining)

	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRecordSuccess_ResetsCount(t *testing.T) {
	g, _, _ := newGuard(t, 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := g.RecordFailure(ctx, "a")
		require.NoError(t, err)
	}
	d, err := g.RecordSuccess(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Accepted)

	d, err = g.Check(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Remaining)
}

func TestRecordFailure_StaleStreakRestarts(t *testing.T) {
	g, _, c := newGuard(t, 3)
	ctx := context.Background()

	_, _ = g.RecordFailure(ctx, "a")
	_, _ = g.RecordFailure(ctx, "a")
	c.Advance(16 * time.Minute)

	d, err := g.RecordFailure(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Locked)
	assert.Equal(t, 2, d.Remaining)
}

func TestRecordFailure_ConcurrentCountsExact(t *testing.T) {
	g, repo, _ := newGuard(t, 1000)
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.RecordFailure(ctx, "race@example.com")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := repo.Get(ctx, "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, n, rec.FailedCount)
	assert.Equal(t, 0, g.locks.size())
}

func TestRecordSuccess_KeepsActiveLock(t *testing.T) {
	g, repo, c := newGuard(t, 2)
	ctx := context.Background()

	_, _ = g.RecordFailure(ctx, "a")
	locked, err := g.RecordFailure(ctx, "a")
	require.NoError(t, err)
	require.True(t, locked.Locked)

	d, err := g.RecordSuccess(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.False(t, d.Accepted)
	assert.Equal(t, locked.LockedUntil, d.LockedUntil)

	rec, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, rec.LockedAt(c.Now()))
}

func TestReset_ClearsActiveLock(t *testing.T) {
	g, _, _ := newGuard(t, 1)
	ctx := context.Background()

	d, err := g.RecordFailure(ctx, "a")
	require.NoError(t, err)
	require.True(t, d.Locked)

	require.NoError(t, g.Reset(ctx, "a"))

	d, err = g.Check(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Locked)
}

func TestAttempt_SkipsVerifyWhileLocked(t *testing.T) {
	g, _, _ := newGuard(t, 1)
	ctx := context.Background()

	_, _ = g.RecordFailure(ctx, "a")

	called := false
	d, err := g.Attempt(ctx, "a", func(context.Context) (bool, error) {
		called = true
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.False(t, called)
}

func TestAttempt_VerifyErrorRecordsNothing(t *testing.T) {
	g, repo, _ := newGuard(t, 5)
	ctx := context.Background()

	_, err := g.Attempt(ctx, "a", func(context.Context) (bool, error) {
		return false, errBoom{}
	})
	assert.ErrorIs(t, err, errBoom{})

	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAttempt_ConcurrentBurstStopsAtThreshold(t *testing.T) {
	g, _, _ := newGuard(t, 5)
	ctx := context.Background()

	const n = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		verified int
		locked   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := g.Attempt(ctx, "burst@example.com", func(context.Context) (bool, error) {
				mu.Lock()
				verified++
				mu.Unlock()
				time.Sleep(time.Millisecond)
				return false, nil
			})
			assert.NoError(t, err)
			if d.Locked {
				mu.Lock()
				locked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, verified)
	// the fifth failure trips the lock and reports it
	assert.Equal(t, n-4, locked)
	assert.Equal(t, 0, g.locks.size())
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type failingRepo struct{}

func (failingRepo) Get(context.Context, string) (*models.LoginAttempt, error) {
	return nil, errors.New("db down")
}
func (failingRepo) Save(context.Context, *models.LoginAttempt) error { return errors.New("db down") }
func (failingRepo) Delete(context.Context, string) error            { return errors.New("db down") }

func TestGuard_PropagatesStorageErrors(t *testing.T) {
	g := NewGuard(failingRepo{}, Policy{}, logging.NewNopLogger())
	ctx := context.Background()

	_, err := g.Check(ctx, "a")
	assert.ErrorContains(t, err, "db down")
	_, err = g.RecordFailure(ctx, "a")
	assert.ErrorContains(t, err, "db down")
	_, err = g.RecordSuccess(ctx, "a")
	assert.ErrorContains(t, err, "db down")
	assert.ErrorContains(t, g.Reset(ctx, "a"), "db down")
}

func TestNewGuard_Defaults(t *testing.T) {
	g := NewGuard(loginattempts.NewMemoryRepository(), Policy{}, logging.NewNopLogger())
	assert.Equal(t, 5, g.policy.Threshold)
	assert.Equal(t, 15*time.Minute, g.policy.Duration)
}
