// AngelaMos | 2026
// session.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lesartilleurs/club-api/internal/config"
	"github.com/lesartilleurs/club-api/internal/core"
)

// a failed insert is retried once with a fresh token
const maxCreateAttempts = 2

// IssuedRefreshToken carries the plaintext token, which exists only here and
// in the response sent to the client.
type IssuedRefreshToken struct {
	Token  string
	Record *RefreshToken
}

type SessionService struct {
	store         Store
	ttl           time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
	generate      func() (string, error)
}

type SessionOption func(*SessionService)

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		s.now = now
	}
}

func WithTokenGenerator(generate func() (string, error)) SessionOption {
	return func(s *SessionService) {
		s.generate = generate
	}
}

func NewSessionService(
	store Store,
	cfg config.JWTConfig,
	opts ...SessionOption,
) *SessionService {
	s := &SessionService{
		store:         store,
		ttl:           cfg.RefreshTokenExpire,
		rememberMeTTL: cfg.RefreshTokenRememberMeExpire,
		now:           func() time.Time { return time.Now().UTC() },
		generate:      core.GenerateRefreshToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionService) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return s.rememberMeTTL
	}
	return s.ttl
}

// Create persists a new active record for ownerID and returns its plaintext
// token.
func (s *SessionService) Create(
	ctx context.Context,
	ownerID int64,
	rememberMe bool,
	meta ClientMeta,
) (*IssuedRefreshToken, error) {
	return s.create(ctx, s.store, ownerID, rememberMe, meta)
}

func (s *SessionService) create(
	ctx context.Context,
	store Store,
	ownerID int64,
	rememberMe bool,
	meta ClientMeta,
) (*IssuedRefreshToken, error) {
	meta = meta.normalized()

	var lastErr error
	for range maxCreateAttempts {
		plain, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}

		now := s.now()
		record := &RefreshToken{
			TokenHash:   core.HashToken(plain),
			OwnerID:     ownerID,
			ExpiresAt:   now.Add(s.TTL(rememberMe)),
			CreatedByIP: meta.IPAddress,
			UserAgent:   meta.UserAgent,
		}
		record.Touch(now)

		err = store.Insert(ctx, record)
		if err == nil {
			return &IssuedRefreshToken{Token: plain, Record: record}, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("create session: %w", lastErr)
}

// ValidateAndTouch returns the live record behind plain and records the use.
func (s *SessionService) ValidateAndTouch(
	ctx context.Context,
	plain string,
) (*RefreshToken, error) {
	var record *RefreshToken

	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		record, err = s.validateAndTouch(ctx, tx, plain)
		return err
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *SessionService) validateAndTouch(
	ctx context.Context,
	store Store,
	plain string,
) (*RefreshToken, error) {
	record, err := store.FindByHash(ctx, core.HashToken(plain))
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}

	now := s.now()
	if record.IsRevoked() {
		return nil, ErrRevokedRefreshToken
	}
	if record.IsExpired(now) {
		return nil, ErrExpiredRefreshToken
	}

	record.Touch(now)
	if err := store.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}

	return record, nil
}

// Revoke is idempotent: unknown and already revoked tokens are a no-op.
func (s *SessionService) Revoke(ctx context.Context, plain string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		record, err := tx.FindByHash(ctx, core.HashToken(plain))
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}

		if record.IsRevoked() {
			return nil
		}

		record.Revoke(s.now())
		if err := tx.Update(ctx, record); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}

		return nil
	})
}

// Rotate exchanges plain for a new token owned by the same identity. Once
// plain has validated it is revoked and that revocation is committed even
// when creating the replacement fails, so a presented token is usable at
// most once.
func (s *SessionService) Rotate(
	ctx context.Context,
	plain string,
	rememberMe bool,
	meta ClientMeta,
) (*IssuedRefreshToken, error) {
	var (
		issued    *IssuedRefreshToken
		createErr error
	)

	err := s.store.WithTx(ctx, func(tx Store) error {
		current, err := s.validateAndTouch(ctx, tx, plain)
		if err != nil {
			return err
		}

		current.Revoke(s.now())
		if err := tx.Update(ctx, current); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}

		issued, createErr = s.create(ctx, tx, current.OwnerID, rememberMe, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if createErr != nil {
		return nil, fmt.Errorf("rotate session: %w", createErr)
	}

	return issued, nil
}

// Cleanup deletes every record whose expiry is older than now - retention,
// revoked or not.
func (s *SessionService) Cleanup(
	ctx context.Context,
	retention time.Duration,
) (int64, error) {
	cutoff := s.now().Add(-retention)

	deleted, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}

	return deleted, nil
}
