// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lesartilleurs/club-api/internal/core"
)

const tracerName = "auth"

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultError   = "error"
)

// Service is the boundary for login, refresh and logout.
type Service struct {
	verifier   *CredentialVerifier
	jwt        *JWTManager
	sessions   *SessionService
	identities IdentityProvider
	logger     *slog.Logger
}

func NewService(
	identities IdentityProvider,
	jwt *JWTManager,
	sessions *SessionService,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		verifier:   NewCredentialVerifier(identities),
		jwt:        jwt,
		sessions:   sessions,
		identities: identities,
		logger:     logger,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	meta ClientMeta,
) (*TokenResponse, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auth.login",
		attribute.Bool("auth.remember_me", req.RememberMe),
	)
	defer span.End()

	resp, err := s.login(ctx, req, meta)
	recordResult(ctx, core.LoginsTotal, err)
	return resp, err
}

func (s *Service) login(
	ctx context.Context,
	req LoginRequest,
	meta ClientMeta,
) (*TokenResponse, error) {
	identity, err := s.verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	s.afterLogin(ctx, identity, req.Password)

	accessToken, err := s.jwt.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	issued, err := s.sessions.Create(ctx, identity.ID, req.RememberMe, meta)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.tokenResponse(accessToken, issued.Token), nil
}

// afterLogin upgrades weak hashes and stamps the login time. Failures are
// logged and never fail the login.
func (s *Service) afterLogin(ctx context.Context, identity *Identity, password string) {
	if core.NeedsRehash(identity.PasswordHash) {
		hash, err := core.HashPassword(password)
		if err == nil {
			err = s.identities.UpdatePasswordHash(ctx, identity.ID, hash)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "password rehash failed",
				"user_id", identity.ID,
				"error", err,
			)
		}
	}

	if err := s.identities.TouchLastLogin(ctx, identity.ID, s.sessions.now()); err != nil {
		s.logger.WarnContext(ctx, "last login update failed",
			"user_id", identity.ID,
			"error", err,
		)
	}
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	rememberMe bool,
	meta ClientMeta,
) (*TokenResponse, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auth.refresh",
		attribute.Bool("auth.remember_me", rememberMe),
	)
	defer span.End()

	resp, err := s.refresh(ctx, refreshToken, rememberMe, meta)
	recordResult(ctx, core.RefreshesTotal, err)
	return resp, err
}

func (s *Service) refresh(
	ctx context.Context,
	refreshToken string,
	rememberMe bool,
	meta ClientMeta,
) (*TokenResponse, error) {
	issued, err := s.sessions.Rotate(ctx, refreshToken, rememberMe, meta)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.GetByID(ctx, issued.Record.OwnerID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	accessToken, err := s.jwt.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return s.tokenResponse(accessToken, issued.Token), nil
}

// Logout revokes refreshToken. Unknown and already revoked tokens succeed.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := core.StartSpan(ctx, tracerName, "auth.logout")
	defer span.End()

	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("logout: %w", err)
	}

	core.LogoutsTotal.Inc()
	return nil
}

func (s *Service) tokenResponse(accessToken, refreshToken string) *TokenResponse {
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(s.jwt.AccessTokenTTL().Seconds()),
	}
}

func recordResult(
	ctx context.Context,
	counter *prometheus.CounterVec,
	err error,
) {
	switch {
	case err == nil:
		counter.WithLabelValues(resultSuccess).Inc()
	case IsAuthFailure(err):
		counter.WithLabelValues(resultFailure).Inc()
	default:
		counter.WithLabelValues(resultError).Inc()
		core.SetSpanError(ctx, err)
	}
}
