// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"time"

	"github.com/lesartilleurs/club-api/internal/auth"
)

// Service exposes accounts to the auth package as read-only identities.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*auth.Identity, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toIdentity(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.Identity, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return toIdentity(user), nil
}

func (s *Service) UpdatePasswordHash(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	return s.repo.UpdatePasswordHash(ctx, id, passwordHash)
}

func (s *Service) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.repo.TouchLastLogin(ctx, id, at)
}

// CountByRole feeds the admin stats endpoint.
func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(counts))
	for _, c := range counts {
		out[c.RoleCode] = c.Count
	}
	return out, nil
}

func toIdentity(u *User) *auth.Identity {
	return &auth.Identity{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		RoleCode:     u.RoleCode,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
	}
}

var _ auth.IdentityProvider = (*Service)(nil)
