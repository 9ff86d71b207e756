// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lesartilleurs/club-api/internal/core"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	CountByRole(ctx context.Context) ([]RoleCount, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectUser = `
		SELECT u.id, u.firstname, u.lastname, u.email, u.password_hash,
		       r.code AS role_code, u.last_login_at, u.created_at, u.updated_at
		FROM users u
		JOIN roles r ON r.id = u.role_id`

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := selectUser + `
		WHERE u.id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetByEmail matches email exactly as stored.
func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := selectUser + `
		WHERE u.email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePasswordHash(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password hash", query, id, passwordHash)
}

func (r *repository) TouchLastLogin(
	ctx context.Context,
	id int64,
	at time.Time,
) error {
	query := `
		UPDATE users
		SET last_login_at = $2
		WHERE id = $1`

	return r.execOne(ctx, "touch last login", query, id, at)
}

func (r *repository) CountByRole(ctx context.Context) ([]RoleCount, error) {
	query := `
		SELECT r.code AS role_code, COUNT(u.id) AS count
		FROM roles r
		LEFT JOIN users u ON u.role_id = r.id
		GROUP BY r.code
		ORDER BY r.code`

	var counts []RoleCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	return counts, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
