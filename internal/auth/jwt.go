// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/lesartilleurs/club-api/internal/config"
	"github.com/lesartilleurs/club-api/internal/middleware"
)

const (
	claimUserID    = "id"
	claimFirstName = "firstname"
	claimLastName  = "lastname"
	claimRole      = "role"
)

// Claims is the decoded payload of a verified access token.
type Claims struct {
	Subject   string
	UserID    int64
	FirstName string
	LastName  string
	Role      string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTManager issues and verifies HS256 access tokens.
type JWTManager struct {
	key    jwk.Key
	config config.JWTConfig
	now    func() time.Time
}

type JWTOption func(*JWTManager)

func WithJWTClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) {
		m.now = now
	}
}

func NewJWTManager(cfg config.JWTConfig, opts ...JWTOption) (*JWTManager, error) {
	secret, err := cfg.SecretBytes()
	if err != nil {
		return nil, err
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	m := &JWTManager{
		key:    key,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

// Issue mints an access token for identity. The subject is the email.
func (m *JWTManager) Issue(identity *Identity) (string, error) {
	now := m.now()

	token, err := jwt.NewBuilder().
		Issuer(m.config.Issuer).
		Subject(identity.Email).
		IssuedAt(now).
		Expiration(now.Add(m.config.AccessTokenExpire)).
		Claim(claimUserID, identity.ID).
		Claim(claimFirstName, identity.FirstName).
		Claim(claimLastName, identity.LastName).
		Claim(claimRole, identity.RoleCode).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// Validate verifies the signature first and only then reads claims. Expiry is
// checked against the manager clock with no leeway.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithClock(jwt.ClockFunc(m.now)),
		jwt.WithAcceptableSkew(0),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("missing subject: %w", ErrInvalidToken)
	}

	var userID float64
	if err := token.Get(claimUserID, &userID); err != nil {
		return nil, fmt.Errorf("missing id claim: %w", ErrInvalidToken)
	}

	var role string
	if err := token.Get(claimRole, &role); err != nil {
		return nil, fmt.Errorf("missing role claim: %w", ErrInvalidToken)
	}

	var firstName, lastName string
	//nolint:errcheck // names are informational and may be absent
	_ = token.Get(claimFirstName, &firstName)
	//nolint:errcheck // names are informational and may be absent
	_ = token.Get(claimLastName, &lastName)

	issuer, _ := token.Issuer()
	issuedAt, _ := token.IssuedAt()
	expiresAt, _ := token.Expiration()

	return &Claims{
		Subject:   subject,
		UserID:    int64(userID),
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		Issuer:    issuer,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyAccessToken adapts Validate to the middleware.TokenVerifier contract.
func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.Principal, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	return &middleware.Principal{
		UserID:    claims.UserID,
		Email:     claims.Subject,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func isTokenExpiredError(err error) bool {
	return errors.Is(err, jwt.TokenExpiredError())
}
