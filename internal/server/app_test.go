package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/gateway"
	"github.com/swaphubteam/SwapIt/internal/server/services"
	"golang.org/x/crypto/bcrypt"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoreMode = config.StoreMemory
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.BcryptCost = bcrypt.MinCost
	cfg.Environment = config.EnvProduction
	return cfg
}

func TestNewApp_MemoryStore(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, memoryConfig())
	require.NoError(t, err)

	assert.Equal(t, gateway.Degraded, app.store.Mode)
	assert.Equal(t, "memory", app.store.Store())
	assert.Nil(t, app.redis)

	res, err := app.auth.Login(ctx, services.LoginInput{Email: "test@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", res.User.Email)
	assert.NoError(t, app.close(ctx))
}

func TestNewApp_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, app.redis)
	t.Cleanup(func() { _ = app.close(ctx) })

	res, err := app.auth.Login(ctx, services.LoginInput{Email: "test@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+res.Session.Token))

	u, err := app.auth.CheckAuth(ctx, res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)
}

func TestNewApp_RedisDownKeepsPrimarySessions(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := memoryConfig()
	cfg.RedisAddr = addr
	cfg.DBConnectTimeout = 500 * time.Millisecond

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, app.redis)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}
