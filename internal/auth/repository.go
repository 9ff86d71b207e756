// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/lesartilleurs/club-api/internal/core"
)

// Store persists refresh token records. Reads made through the Store handed
// to a WithTx callback lock the row until the transaction ends.
type Store interface {
	Insert(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Update(ctx context.Context, token *RefreshToken) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type repository struct {
	db   core.DBTX
	root *sqlx.DB
	inTx bool
}

func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db, root: db}
}

const selectRefreshToken = `
		SELECT
			id, token_hash, user_id, expires_at, revoked_at,
			COALESCE(created_by_ip, '') AS created_by_ip,
			COALESCE(user_agent, '') AS user_agent,
			last_used_at, created_at, updated_at
		FROM refresh_token
		WHERE token_hash = $1`

const insertSavepoint = "refresh_token_insert"

// Insert runs under a savepoint inside a transaction. A failed statement
// aborts a postgres transaction, and the savepoint keeps writes made before
// the insert committable.
func (r *repository) Insert(ctx context.Context, token *RefreshToken) error {
	if !r.inTx {
		return r.insert(ctx, token)
	}

	if _, err := r.db.ExecContext(ctx, "SAVEPOINT "+insertSavepoint); err != nil {
		return fmt.Errorf("insert refresh token: savepoint: %w", err)
	}

	if err := r.insert(ctx, token); err != nil {
		_, rbErr := r.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+insertSavepoint)
		if rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %w)", err, rbErr)
		}
		return err
	}

	if _, err := r.db.ExecContext(ctx, "RELEASE SAVEPOINT "+insertSavepoint); err != nil {
		return fmt.Errorf("insert refresh token: release savepoint: %w", err)
	}

	return nil
}

func (r *repository) insert(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_token (
			token_hash, user_id, expires_at, created_by_ip, user_agent,
			last_used_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		ON CONFLICT (token_hash) DO NOTHING
		RETURNING id, created_at, updated_at`

	var row struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	err := r.db.GetContext(ctx, &row, query,
		token.TokenHash,
		token.OwnerID,
		token.ExpiresAt,
		token.CreatedByIP,
		token.UserAgent,
		token.LastUsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) || isDuplicateKeyError(err) {
		return fmt.Errorf("insert refresh token: %w", ErrDuplicateHash)
	}
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	token.ID = row.ID
	token.CreatedAt = row.CreatedAt
	token.UpdatedAt = row.UpdatedAt

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	query := selectRefreshToken
	if r.inTx {
		query += ` FOR UPDATE`
	}

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// Update writes the mutable fields. revoked_at is never cleared once set.
func (r *repository) Update(ctx context.Context, token *RefreshToken) error {
	query := `
		UPDATE refresh_token
		SET revoked_at = COALESCE(revoked_at, $2),
		    last_used_at = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING revoked_at, updated_at`

	var row struct {
		RevokedAt *time.Time `db:"revoked_at"`
		UpdatedAt time.Time  `db:"updated_at"`
	}

	err := r.db.GetContext(ctx, &row, query,
		token.ID,
		token.RevokedAt,
		token.LastUsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	token.RevokedAt = row.RevokedAt
	token.UpdatedAt = row.UpdatedAt

	return nil
}

func (r *repository) DeleteExpiredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	query := `
		DELETE FROM refresh_token
		WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}

	return rows, nil
}

// WithTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (r *repository) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if r.root == nil {
		return fn(r)
	}

	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx, inTx: true})
	})
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
