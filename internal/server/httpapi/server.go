// Package httpapi is the HTTP boundary of the auth service: the action
// endpoints used by the web client, plus health and metrics.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/config"
)

const shutdownTimeout = 10 * time.Second

// Health describes the active store for /health.
type Health struct {
	Store string
	Mode  string
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewServer(cfg *config.Config, svc AuthService, health Health, l logging.Logger) *Server {
	logger := l.With("module", "http_server")
	h := NewHandler(svc, cfg, l)

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), Metrics(), AccessLog(logger), CSRF(cfg.AllowedOrigins))

	api := engine.Group("/api")
	for _, path := range []string{"/auth", "/auth.php"} {
		api.GET(path, h.Auth)
		api.POST(path, h.Auth)
	}
	for _, path := range []string{"/profile", "/profile.php"} {
		api.POST(path, h.Profile)
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": health.Store, "mode": health.Mode})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{address: cfg.HTTPAddr, engine: engine, logger: logger}
}

// Handler exposes the routes, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	return nil
}
