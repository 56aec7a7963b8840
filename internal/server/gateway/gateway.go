// Package gateway decides once per process which store backs the service:
// the configured Postgres database, or the seeded in-memory fallback when the
// database cannot be reached.
package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/repomanager"
)

const (
	codeInvalidCatalog   = "3D000"
	codeDuplicateCatalog = "42P04"
)

// Mode tags a bootstrap outcome.
type Mode int

const (
	Connected Mode = iota
	Degraded
)

func (m Mode) String() string {
	switch m {
	case Connected:
		return "connected"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Result is the outcome of Bootstrap. DB is nil in Degraded mode and Reason
// is nil in Connected mode.
type Result struct {
	Mode    Mode
	Reason  error
	Manager repomanager.RepositoryManager
	DB      *sql.DB
}

// Store names the active store for logs and probes.
func (r *Result) Store() string {
	if r.Mode == Connected {
		return "postgres"
	}
	return "memory"
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newPostgresManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

// ErrMemoryRequested is the degrade reason when configuration skips the database.
var ErrMemoryRequested = errors.New("memory store requested")

// Bootstrap connects to the configured database, creating it when it does
// not exist yet, and runs migrations. Any failure yields a Degraded result
// backed by the fallback dataset; the returned error is reserved for a
// fallback that cannot be built.
func Bootstrap(ctx context.Context, cfg *config.Config, hasher *cryptox.Hasher, logger logging.Logger) (*Result, error) {
	log := logger.With("module", "gateway")

	var res *Result
	var err error
	if cfg.StoreMode == config.StoreMemory {
		res, err = degrade(hasher, ErrMemoryRequested)
	} else {
		res, err = connectPrimary(ctx, cfg, log)
		if err != nil {
			res, err = degrade(hasher, err)
		}
	}
	if err != nil {
		return nil, err
	}

	if res.Mode == Connected {
		log.Info(ctx, "active store selected", "store", res.Store(), "mode", res.Mode.String())
	} else {
		log.Warn(ctx, "active store selected", "store", res.Store(), "mode", res.Mode.String(), "reason", res.Reason.Error())
	}
	return res, nil
}

func connectPrimary(ctx context.Context, cfg *config.Config, log logging.Logger) (*Result, error) {
	db, err := connect(ctx, cfg.DSN(), cfg)
	if err != nil && isMissingDatabase(err) {
		log.Info(ctx, "database missing, creating it")
		if cerr := createDatabase(ctx, cfg); cerr != nil {
			return nil, fmt.Errorf("create database: %w", cerr)
		}
		db, err = connect(ctx, cfg.DSN(), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	m := newPostgresManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Result{Mode: Connected, Manager: m, DB: db}, nil
}

func degrade(hasher *cryptox.Hasher, reason error) (*Result, error) {
	m, err := repomanager.NewMemoryRepositoryManager(hasher)
	if err != nil {
		return nil, fmt.Errorf("fallback store: %w", err)
	}
	return &Result{Mode: Degraded, Reason: reason, Manager: m}, nil
}

func connect(ctx context.Context, dsn string, cfg *config.Config) (*sql.DB, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := dbx.Ping(ctx, db, cfg.DBConnectTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// createDatabase issues CREATE DATABASE through the maintenance database.
// A concurrent creation by another process counts as success.
func createDatabase(ctx context.Context, cfg *config.Config) error {
	name, err := databaseName(cfg)
	if err != nil {
		return err
	}

	dsn, err := cfg.MaintenanceDSN()
	if err != nil {
		return err
	}

	db, err := connect(ctx, dsn, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := dbx.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()

	_, err = db.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	if err != nil && pgCode(err) != codeDuplicateCatalog {
		return err
	}
	return nil
}

func databaseName(cfg *config.Config) (string, error) {
	if cfg.DatabaseDSN == "" {
		return cfg.DBName, nil
	}
	pc, err := pgconn.ParseConfig(cfg.DatabaseDSN)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if pc.Database == "" {
		return "", errors.New("dsn names no database")
	}
	return pc.Database, nil
}

func isMissingDatabase(err error) bool {
	return pgCode(err) == codeInvalidCatalog
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
