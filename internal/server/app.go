// Package server initializes and runs the auth service.
// It selects the active store, wires the optional Redis session cache,
// avatar storage and Google sign-in, handles graceful shutdown and starts
// the HTTP server.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/avatars"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/gateway"
	"github.com/swaphubteam/SwapIt/internal/server/httpapi"
	"github.com/swaphubteam/SwapIt/internal/server/oauth"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/repomanager"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/sessions"
	"github.com/swaphubteam/SwapIt/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *gateway.Result
	redis  *redis.Client
	auth   *services.AuthService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewForEnvironment(c.Environment, os.Stdout)
	hasher := cryptox.NewHasher(c.BcryptCost)

	store, err := gateway.Bootstrap(ctx, c, hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	app := &App{config: c, logger: logger, store: store}

	manager := store.Manager
	if c.RedisAddr != "" {
		manager = app.withRedisSessions(ctx, manager)
	}

	av, err := avatars.NewStoreFromConfig(ctx, c)
	if err != nil {
		_ = app.close(ctx)
		return nil, fmt.Errorf("avatar store init error: %w", err)
	}

	app.auth = services.NewAuthService(store.DB, manager, c, hasher, logger).
		WithAvatars(av).
		WithGoogle(oauth.NewBridge(oauth.Options{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURL:  c.GoogleRedirectURL,
			Timeout:      c.OAuthTimeout,
		}))

	return app, nil
}

// withRedisSessions moves sessions to Redis when it answers a ping. An
// unreachable Redis keeps sessions in the active store.
func (app *App) withRedisSessions(ctx context.Context, m repomanager.RepositoryManager) repomanager.RepositoryManager {
	rdb := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})

	pingCtx, cancel := dbx.WithTimeout(ctx, app.config.DBConnectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		app.logger.Warn(ctx, "redis unavailable, sessions stay in the primary store", "error", err.Error())
		_ = rdb.Close()
		return m
	}

	app.redis = rdb
	app.logger.Info(ctx, "sessions stored in redis", "addr", app.config.RedisAddr)
	return repomanager.WithSessionStore(m, sessions.NewRedisRepository(rdb))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) purgeSessions(ctx context.Context) {
	n, err := app.auth.PurgeExpiredSessions(ctx)
	if err != nil {
		app.logger.Warn(ctx, "purge expired sessions", "error", err.Error())
		return
	}
	if n > 0 {
		app.logger.Info(ctx, "purged expired sessions", "count", n)
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	health := httpapi.Health{Store: app.store.Store(), Mode: app.store.Mode.String()}
	s := httpapi.NewServer(app.config, app.auth, health, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close(ctx context.Context) error {
	var firstErr error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if err := app.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		app.logger.Error(ctx, "close resources", "error", firstErr.Error())
	}
	return firstErr
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	gin.SetMode(gin.ReleaseMode)

	app.logger.Info(ctx, "Starting app...",
		"store", app.store.Store(),
		"environment", app.config.Environment,
		"session_ttl", app.auth.SessionTTL().String(),
	)

	app.initSignalHandler(cancelFunc)
	app.purgeSessions(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	_ = app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}
