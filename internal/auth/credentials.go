// AngelaMos | 2026
// credentials.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lesartilleurs/club-api/internal/core"
)

// IdentityProvider is the account store this package reads users from.
type IdentityProvider interface {
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByID(ctx context.Context, id int64) (*Identity, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type CredentialVerifier struct {
	identities IdentityProvider
}

func NewCredentialVerifier(identities IdentityProvider) *CredentialVerifier {
	return &CredentialVerifier{identities: identities}
}

// Verify resolves email and checks password against the stored hash. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials and cost one
// bcrypt comparison each.
func (v *CredentialVerifier) Verify(
	ctx context.Context,
	email, password string,
) (*Identity, error) {
	identity, err := v.identities.GetByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		//nolint:errcheck // burn the same time as a real comparison
		_, _ = core.VerifyPasswordTimingSafe(password, nil)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(password, &identity.PasswordHash)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}
