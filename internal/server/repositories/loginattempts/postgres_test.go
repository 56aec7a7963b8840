package loginattempts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_FoundWithLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	start := time.Now().Add(-time.Minute)
	until := start.Add(15 * time.Minute)
	rows := sqlmock.NewRows([]string{"identifier", "failed_count", "window_start", "locked_until"}).
		AddRow("a@example.com", 5, start, until)

	mock.ExpectQuery(`(?s)^\s*SELECT\s+identifier,\s*failed_count,\s*window_start,\s*locked_until\s+FROM\s+login_attempts\s+WHERE\s+identifier\s*=\s*\$1\s*$`).
		WithArgs("a@example.com").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.FailedCount != 5 || got.LockedUntil == nil || !got.LockedUntil.Equal(until) {
		t.Fatalf("unexpected attempt: %+v", got)
	}
}

func TestGet_NullLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"identifier", "failed_count", "window_start", "locked_until"}).
		AddRow("a@example.com", 2, time.Now(), nil)
	mock.ExpectQuery(`FROM\s+login_attempts`).
		WithArgs("a@example.com").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.LockedUntil != nil {
		t.Fatalf("expected nil lock, got %v", *got.LockedUntil)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+login_attempts`).
		WithArgs("x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "x")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSave_Upsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	start := time.Now()
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+login_attempts.*ON\s+CONFLICT\s+\(identifier\)\s+DO\s+UPDATE`).
		WithArgs("a@example.com", 1, start, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &models.LoginAttempt{Identifier: "a@example.com", FailedCount: 1, WindowStart: start})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*DELETE\s+FROM\s+login_attempts\s+WHERE\s+identifier\s*=\s*\$1\s*$`).
		WithArgs("a").
		WillReturnError(errors.New("boom"))

	err := repo.Delete(context.Background(), "a")
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
