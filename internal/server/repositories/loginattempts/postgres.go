package loginattempts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/dbx"
	"github.com/swaphubteam/SwapIt/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, identifier string) (*models.LoginAttempt, error) {
	query := `
		SELECT identifier, failed_count, window_start, locked_until
		FROM login_attempts
		WHERE identifier = $1
	`
	a := &models.LoginAttempt{}
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(&a.Identifier, &a.FailedCount, &a.WindowStart, &a.LockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Save(ctx context.Context, a *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (identifier, failed_count, window_start, locked_until)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identifier) DO UPDATE
		SET failed_count = EXCLUDED.failed_count,
		    window_start = EXCLUDED.window_start,
		    locked_until = EXCLUDED.locked_until
	`
	if _, err := r.db.ExecContext(ctx, query, a.Identifier, a.FailedCount, a.WindowStart, a.LockedUntil); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, identifier string) error {
	query := `
		DELETE FROM login_attempts
		WHERE identifier = $1
	`
	if _, err := r.db.ExecContext(ctx, query, identifier); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
