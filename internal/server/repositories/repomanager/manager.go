// Package repomanager vends per-entity repositories for the active store and
// runs its schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/loginattempts"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/sessions"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/users"
)

// RepositoryManager is the uniform store interface seen by the services.
// Postgres and in-memory managers are interchangeable.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	LoginAttempts(db dbx.DBTX) loginattempts.Repository
}

type sessionOverride struct {
	RepositoryManager
	sessions sessions.Repository
}

func (o *sessionOverride) Sessions(dbx.DBTX) sessions.Repository {
	return o.sessions
}

// WithSessionStore returns m with its session repository replaced by s,
// e.g. a Redis cache shared by several server processes.
func WithSessionStore(m RepositoryManager, s sessions.Repository) RepositoryManager {
	return &sessionOverride{RepositoryManager: m, sessions: s}
}
