// AngelaMos | 2026
// errors.go

package auth

import (
	"errors"
	"fmt"

	"github.com/lesartilleurs/club-api/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidToken = fmt.Errorf("access token: %w", core.ErrTokenInvalid)
	ErrExpiredToken = fmt.Errorf("access token: %w", core.ErrTokenExpired)

	ErrInvalidRefreshToken = fmt.Errorf("refresh token: %w", core.ErrTokenInvalid)
	ErrRevokedRefreshToken = fmt.Errorf("refresh token: %w", core.ErrTokenRevoked)
	ErrExpiredRefreshToken = fmt.Errorf("refresh token: %w", core.ErrTokenExpired)

	ErrDuplicateHash = fmt.Errorf("refresh token hash: %w", core.ErrDuplicateKey)

	ErrSweepInProgress = errors.New("refresh token sweep already running")
)

// IsAuthFailure reports whether err must be rendered as the generic
// "authentication failed" response.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, core.ErrTokenInvalid) ||
		errors.Is(err, core.ErrTokenExpired) ||
		errors.Is(err, core.ErrTokenRevoked)
}
