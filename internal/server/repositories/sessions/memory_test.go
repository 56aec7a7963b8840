package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/models"
)

func TestMemory_Lifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.Session{Token: "a", UserID: 1, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Session{Token: "a", UserID: 2}), common.ErrorAlreadyExists)

	got, err := repo.Find(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Find(ctx, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_DeleteExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.Session{Token: "old", UserID: 1, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "live1", UserID: 1, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "live2", UserID: 2, ExpiresAt: now.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = repo.Find(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.Find(ctx, "live1")
	assert.NoError(t, err)
}
