package gateway

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaphubteam/SwapIt/internal/cryptox"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

type fakeManager struct {
	repomanager.RepositoryManager
	migrateErr error
	migrated   bool
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	f.migrated = true
	return f.migrateErr
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return db, mock
}

// stubOpen makes openDB hand out dbs in order and records the DSNs asked for.
func stubOpen(t *testing.T, dbs ...*sql.DB) *[]string {
	t.Helper()
	var dsns []string
	orig := openDB
	openDB = func(dsn string) (*sql.DB, error) {
		dsns = append(dsns, dsn)
		if len(dbs) == 0 {
			return nil, errors.New("unexpected open")
		}
		db := dbs[0]
		dbs = dbs[1:]
		return db, nil
	}
	t.Cleanup(func() { openDB = orig })
	return &dsns
}

func stubManager(t *testing.T, m repomanager.RepositoryManager) {
	t.Helper()
	orig := newPostgresManager
	newPostgresManager = func() repomanager.RepositoryManager { return m }
	t.Cleanup(func() { newPostgresManager = orig })
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func hasher() *cryptox.Hasher {
	return cryptox.NewHasher(bcrypt.MinCost)
}

func TestBootstrap_MemoryRequested(t *testing.T) {
	cfg := testConfig()
	cfg.StoreMode = config.StoreMemory
	stubOpen(t)

	res, err := Bootstrap(context.Background(), cfg, hasher(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, Degraded, res.Mode)
	assert.ErrorIs(t, res.Reason, ErrMemoryRequested)
	assert.Nil(t, res.DB)
	assert.Equal(t, "memory", res.Store())

	u, err := res.Manager.Users(nil).GetByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", u.Email)
}

func TestBootstrap_Connected(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectPing()
	stubOpen(t, db)
	fm := &fakeManager{}
	stubManager(t, fm)

	res, err := Bootstrap(context.Background(), testConfig(), hasher(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, Connected, res.Mode)
	assert.Nil(t, res.Reason)
	assert.Same(t, db, res.DB)
	assert.True(t, fm.migrated)
	assert.Equal(t, "postgres", res.Store())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrap_UnreachableFallsBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	stubOpen(t, db)
	stubManager(t, &fakeManager{})

	res, err := Bootstrap(context.Background(), testConfig(), hasher(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, Degraded, res.Mode)
	require.Error(t, res.Reason)
	assert.Contains(t, res.Reason.Error(), "connection refused")
	assert.Nil(t, res.DB)
}

func TestBootstrap_CreatesMissingDatabase(t *testing.T) {
	first, m1 := newMockDB(t)
	m1.ExpectPing().WillReturnError(&pgconn.PgError{Code: "3D000", Message: `database "swapit" does not exist`})

	maint, m2 := newMockDB(t)
	m2.ExpectPing()
	m2.ExpectExec(`CREATE DATABASE "swapit"`).WillReturnResult(sqlmock.NewResult(0, 0))

	second, m3 := newMockDB(t)
	m3.ExpectPing()

	dsns := stubOpen(t, first, maint, second)
	stubManager(t, &fakeManager{})

	res, err := Bootstrap(context.Background(), testConfig(), hasher(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, Connected, res.Mode)
	assert.Same(t, second, res.DB)
	require.Len(t, *dsns, 3)
	assert.True(t, strings.Contains((*dsns)[1], "/postgres?"), (*dsns)[1])
	assert.NoError(t, m2.ExpectationsWereMet())
}

func TestBootstrap_CreateFailureDegrades(t *testing.T) {
	first, m1 := newMockDB(t)
	m1.ExpectPing().WillReturnError(&pgconn.PgError{Code: "3D000"})

	maint, m2 := newMockDB(t)
	m2.ExpectPing()
	m2.ExpectExec(`CREATE DATABASE`).WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied"})

	stubOpen(t, first, maint)
	stubManager(t, &fakeManager{})

	res, err := Bootstrap(context.Background(), testConfig(), hasher(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, Degraded, res.Mode)
	assert.Contains(t, res.Reason.Error(), "create database")
}

func TestBootstrap_MigrationFailureDegrades(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectPing()
	stubOpen(t, db)
	stubManager(t, &fakeManager{migrateErr: errors.New("bad migration")})

	res, err := Bootstrap(context.Background(), testConfig(), hasher(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, Degraded, res.Mode)
	assert.Contains(t, res.Reason.Error(), "bad migration")
	assert.NoError(t, res.Close())
}

func TestDatabaseName(t *testing.T) {
	cfg := testConfig()
	name, err := databaseName(cfg)
	require.NoError(t, err)
	assert.Equal(t, "swapit", name)

	cfg.DatabaseDSN = "postgres://u:p@db:5432/market?sslmode=disable"
	name, err = databaseName(cfg)
	require.NoError(t, err)
	assert.Equal(t, "market", name)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "degraded", Degraded.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
}
